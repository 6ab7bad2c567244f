package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
	KindTransfer   TransactionKind = "transfer"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransfer:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

type Channel string

const (
	ChannelOnline           Channel = "online"
	ChannelPOS              Channel = "POS"
	ChannelATM              Channel = "ATM"
	ChannelBankTransfer     Channel = "bank_transfer"
	ChannelInBankWithdrawal Channel = "inBank_withdrawal"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelOnline, ChannelPOS, ChannelATM, ChannelBankTransfer, ChannelInBankWithdrawal:
		return true
	}
	return false
}

// IsCardChannel reports whether movements on this channel were initiated with a
// physical card and therefore require card PIN authorization for withdrawals.
func (c Channel) IsCardChannel() bool {
	return c == ChannelATM || c == ChannelPOS
}

// Transaction is the immutable ledger record of one movement. Reference is
// unique for all time, across completed and failed rows alike. Rows reach
// storage only in a terminal status; no external reader ever observes pending.
type Transaction struct {
	ID            uuid.UUID
	Reference     string
	UserID        uuid.UUID
	Kind          TransactionKind
	Amount        int64
	Currency      Currency
	SourceID      *uuid.UUID
	DestinationID *uuid.UUID
	Channel       Channel
	Status        TransactionStatus
	Description   string
	CreatedAt     time.Time
}
