package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("amount must be positive with at most two decimal places")
	ErrInvalidKind        = errors.New("unsupported transaction kind")
	ErrInvalidChannel     = errors.New("unsupported channel")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSameAccount        = errors.New("source and destination are the same account")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrUnauthorized       = errors.New("authorization failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrReferenceCollision = errors.New("transaction reference already exists")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
)
