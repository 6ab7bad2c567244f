package repository

import (
	"errors"

	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

// Postgres error classes the ledger engine reacts to. Serialization failures
// and deadlocks are transient and retried with the same reference; a unique
// violation on the reference column means a collision and forces a fresh one.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pqErrorCode(err) == pgUniqueViolation
}

func IsSerializationFailure(err error) bool {
	code := pqErrorCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

func IsLockTimeout(err error) bool {
	return pqErrorCode(err) == pgLockNotAvailable
}
