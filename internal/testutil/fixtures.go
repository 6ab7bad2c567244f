package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/corebank-ng/ledger/internal/domain"
)

// DefaultPIN is the transfer/card PIN every seeded fixture accepts.
const DefaultPIN = "4321"

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, currency string, balance int64) *domain.Account {
	t.Helper()

	pinHash, err := bcrypt.GenerateFromPassword([]byte(DefaultPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}

	a := &domain.Account{
		ID:              uuid.New(),
		UserID:          userID,
		AccountNumber:   RandomAccountNumber(),
		Currency:        domain.Currency(currency),
		Balance:         balance,
		Version:         0,
		TransferPINHash: string(pinHash),
		Status:          domain.AccountStatusActive,
		CreatedAt:       time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO accounts (id, user_id, account_number, currency, balance, version,
			transfer_pin_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.AccountNumber, a.Currency, a.Balance, a.Version,
		a.TransferPINHash, a.Status, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account %s/%s: %v", userID, currency, err)
	}
	return a
}

func SeedInactiveAccount(t *testing.T, db *sql.DB, userID uuid.UUID, currency string, balance int64) *domain.Account {
	t.Helper()

	a := SeedTestAccount(t, db, userID, currency, balance)
	if _, err := db.Exec(`UPDATE accounts SET status = 'inactive' WHERE id = $1`, a.ID); err != nil {
		t.Fatalf("deactivate account %s: %v", a.ID, err)
	}
	a.Status = domain.AccountStatusInactive
	return a
}

func SeedTestCard(t *testing.T, db *sql.DB, accountID uuid.UUID) *domain.Card {
	t.Helper()

	pinHash, err := bcrypt.GenerateFromPassword([]byte(DefaultPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash card pin: %v", err)
	}

	c := &domain.Card{
		ID:           uuid.New(),
		AccountID:    accountID,
		MaskedNumber: "****-****-****-4242",
		PINHash:      string(pinHash),
		Status:       domain.CardStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO cards (id, account_id, masked_number, pin_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.AccountID, c.MaskedNumber, c.PINHash, c.Status, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test card for account %s: %v", accountID, err)
	}
	return c
}

func RandomAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int63n(10_000_000_000))
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions
		 WHERE source_account_id = $1 OR destination_account_id = $1`, accountID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", accountID, err)
	}
	return count
}

func CountNotifications(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE reference_id = $1`, transactionID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count notifications for %s: %v", transactionID, err)
	}
	return count
}
