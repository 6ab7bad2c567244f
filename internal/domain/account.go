package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNGN Currency = "NGN"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyKES Currency = "KES"
	CurrencyZAR Currency = "ZAR"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyNGN, CurrencyEUR, CurrencyGBP,
		CurrencyCAD, CurrencyAUD, CurrencyKES, CurrencyZAR:
		return true
	}
	return false
}

// Symbol returns the display symbol used in notification messages.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyUSD:
		return "$"
	case CurrencyNGN:
		return "₦"
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	case CurrencyCAD:
		return "C$"
	case CurrencyAUD:
		return "A$"
	case CurrencyKES:
		return "KSh"
	case CurrencyZAR:
		return "R"
	default:
		return string(c)
	}
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusClosed   AccountStatus = "closed"
)

// Account balances are stored in minor units (kobo, cents). Balance and Version
// are mutated only through the ledger engine's locked read-modify-write path.
type Account struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AccountNumber   string
	Currency        Currency
	Balance         int64
	Version         int64
	TransferPINHash string
	Status          AccountStatus
	CreatedAt       time.Time
}
