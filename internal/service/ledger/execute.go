package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/domain"
	"github.com/corebank-ng/ledger/internal/logging"
	"github.com/corebank-ng/ledger/internal/repository"
)

// executeMovement runs the atomic unit with bounded retries. Reference
// collisions and serialization conflicts retry with a fresh reference; lock
// timeouts and exhausted retries surface as a failed transaction with the
// rolled-back state guaranteed.
func (e *Engine) executeMovement(ctx context.Context, req Request, amount int64, source, destination *domain.Account) (*Result, error) {
	log := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxCommitAttempts; attempt++ {
		result, err := e.tryMovement(ctx, req, amount, source, destination)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, domain.ErrReferenceCollision) || repository.IsSerializationFailure(err) {
			log.Warn("retrying movement", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		if repository.IsLockTimeout(err) {
			return nil, fmt.Errorf("executeMovement: lock wait timed out: %w", domain.ErrTransactionFailed)
		}

		if isMovementError(err) {
			return nil, fmt.Errorf("executeMovement: %w", err)
		}

		return nil, fmt.Errorf("executeMovement: %s: %w", err, domain.ErrTransactionFailed)
	}

	return nil, fmt.Errorf("executeMovement: retries exhausted after %s: %w", lastErr, domain.ErrTransactionFailed)
}

// isMovementError reports whether the error is a business outcome that must
// reach the caller unchanged rather than be folded into the storage failure.
func isMovementError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrCurrencyMismatch)
}

// tryMovement is one attempt at the atomic unit: lock rows in ascending id
// order, re-check the locked state, apply deltas, persist the record, commit.
func (e *Engine) tryMovement(ctx context.Context, req Request, amount int64, source, destination *domain.Account) (*Result, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tryMovement: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", e.config.LockTimeoutMs)); err != nil {
		return nil, fmt.Errorf("tryMovement: set lock timeout: %w", err)
	}

	locked, err := e.lockAccounts(ctx, tx, source, destination)
	if err != nil {
		return nil, fmt.Errorf("tryMovement: %w", err)
	}

	var lockedSource, lockedDestination *domain.Account
	if source != nil {
		lockedSource = locked[source.ID]
	}
	if destination != nil {
		lockedDestination = locked[destination.ID]
	}

	// Balances may have moved between validation and lock acquisition; every
	// check below uses the locked, authoritative rows.
	for _, account := range locked {
		if account.Status != domain.AccountStatusActive {
			return nil, fmt.Errorf("tryMovement: %w", domain.ErrAccountNotFound)
		}
	}

	if lockedSource != nil && lockedSource.Balance < amount {
		return nil, fmt.Errorf("tryMovement: %w", domain.ErrInsufficientFunds)
	}

	if lockedSource != nil {
		if err := e.accounts.UpdateBalance(ctx, tx, lockedSource.ID, lockedSource.Balance-amount, lockedSource.Version+1); err != nil {
			return nil, fmt.Errorf("tryMovement: debit source: %w", err)
		}
	}
	if lockedDestination != nil {
		if err := e.accounts.UpdateBalance(ctx, tx, lockedDestination.ID, lockedDestination.Balance+amount, lockedDestination.Version+1); err != nil {
			return nil, fmt.Errorf("tryMovement: credit destination: %w", err)
		}
	}

	txn := e.newTransaction(req, amount, source, destination)
	txn.Status = domain.TransactionStatusCompleted

	if err := e.transactions.Create(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("tryMovement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tryMovement: commit: %w", err)
	}

	balance := int64(0)
	switch {
	case lockedSource != nil:
		balance = lockedSource.Balance - amount
	case lockedDestination != nil:
		balance = lockedDestination.Balance + amount
	}

	return &Result{Transaction: txn, Balance: balance}, nil
}

// lockAccounts acquires row locks in ascending account id order. The fixed
// global order is what prevents two opposite-direction transfers from
// deadlocking on each other.
func (e *Engine) lockAccounts(ctx context.Context, tx *sql.Tx, accounts ...*domain.Account) (map[uuid.UUID]*domain.Account, error) {
	var ids []uuid.UUID
	for _, a := range accounts {
		if a != nil {
			ids = append(ids, a.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range ids {
		account, err := e.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("lockAccounts: %w", domain.ErrAccountNotFound)
			}
			return nil, fmt.Errorf("lockAccounts: %w", err)
		}
		locked[id] = account
	}
	return locked, nil
}
