package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/domain"
)

const cardColumns = `id, account_id, masked_number, pin_hash, status, created_at`

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetActiveByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE account_id = $1 AND status = 'active'
		ORDER BY created_at DESC LIMIT 1`, accountID,
	)

	var c domain.Card
	err := row.Scan(&c.ID, &c.AccountID, &c.MaskedNumber, &c.PINHash, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetActiveByAccountID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetActiveByAccountID: %w", err)
	}
	return &c, nil
}
