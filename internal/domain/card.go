package domain

import (
	"time"

	"github.com/google/uuid"
)

type CardStatus string

const (
	CardStatusActive  CardStatus = "active"
	CardStatusBlocked CardStatus = "blocked"
	CardStatusExpired CardStatus = "expired"
)

// Card carries the PIN hash checked for withdrawals on card channels.
// Issuance is external; the ledger only reads cards.
type Card struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	MaskedNumber string
	PINHash      string
	Status       CardStatus
	CreatedAt    time.Time
}
