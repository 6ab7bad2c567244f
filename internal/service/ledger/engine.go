package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank-ng/ledger/internal/config"
	"github.com/corebank-ng/ledger/internal/domain"
	"github.com/corebank-ng/ledger/internal/logging"
)

type accountStore interface {
	GetByLocator(ctx context.Context, locator string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type transactionStore interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	CreateStandalone(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
}

type cardStore interface {
	GetActiveByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Card, error)
}

// notificationSink receives completed movements after commit. Dispatch is
// best-effort: implementations log delivery problems and never report them
// back to the movement's caller.
type notificationSink interface {
	TransactionCompleted(ctx context.Context, txn *domain.Transaction, source, destination *domain.Account)
}

type pinVerifier interface {
	Verify(secret, storedHash string) bool
}

type referenceGenerator interface {
	NewReference() string
}

// Request is the single tagged-variant movement instruction. Kind discriminates
// which locators apply: deposit uses Destination only, withdrawal uses Source
// only, transfer uses both. A locator is an account id or an account number.
type Request struct {
	Kind        domain.TransactionKind
	Amount      decimal.Decimal
	Currency    domain.Currency // optional; must match the primary account when set
	Source      string
	Destination string
	UserID      uuid.UUID
	Channel     domain.Channel
	Description string
	Secret      string
}

// Result carries the committed record and the post-transaction balance of the
// primary account: the source for withdrawals and transfers, the destination
// for deposits.
type Result struct {
	Transaction *domain.Transaction
	Balance     int64
}

// Engine executes movements as single atomic units. It is the only code path
// allowed to write account balances.
type Engine struct {
	accounts     accountStore
	transactions transactionStore
	cards        cardStore
	notify       notificationSink
	pins         pinVerifier
	refs         referenceGenerator
	db           *sql.DB
	config       *config.Config
}

func NewEngine(
	accounts accountStore,
	transactions transactionStore,
	cards cardStore,
	notify notificationSink,
	pins pinVerifier,
	refs referenceGenerator,
	db *sql.DB,
	cfg *config.Config,
) *Engine {
	return &Engine{
		accounts:     accounts,
		transactions: transactions,
		cards:        cards,
		notify:       notify,
		pins:         pins,
		refs:         refs,
		db:           db,
		config:       cfg,
	}
}

// Execute validates, authorizes, and applies one movement. Validation failures
// abort with zero side effects. A movement that fails inside the atomic unit
// rolls back completely; insufficient funds additionally leaves a failed audit
// row, written outside the unit.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	log := logging.FromContext(ctx)

	amount, err := validateRequest(req)
	if err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}

	source, destination, err := e.resolveAccounts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}

	if err := e.authorize(ctx, req, source); err != nil {
		return nil, fmt.Errorf("Execute: %w", err)
	}

	result, err := e.executeMovement(ctx, req, amount, source, destination)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			e.recordFailure(ctx, req, amount, source, destination)
		}
		return nil, fmt.Errorf("Execute: %w", err)
	}

	log.Info("movement completed",
		"reference", result.Transaction.Reference,
		"kind", req.Kind,
		"amount", result.Transaction.Amount,
		"currency", result.Transaction.Currency,
	)

	e.notify.TransactionCompleted(ctx, result.Transaction, source, destination)

	return result, nil
}

// GetEntry resolves a transaction for audit, by reference or by id.
func (e *Engine) GetEntry(ctx context.Context, locator string) (*domain.Transaction, error) {
	txn, err := e.transactions.GetByReference(ctx, locator)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}

	id, parseErr := uuid.Parse(locator)
	if parseErr != nil {
		return nil, fmt.Errorf("GetEntry: %w", domain.ErrNotFound)
	}

	txn, err = e.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	return txn, nil
}

// recordFailure persists a failed audit row after the atomic unit rolled
// back. Best-effort: a write problem is logged, not surfaced, because the
// movement's outcome is already decided.
func (e *Engine) recordFailure(ctx context.Context, req Request, amount int64, source, destination *domain.Account) {
	txn := e.newTransaction(req, amount, source, destination)
	txn.Status = domain.TransactionStatusFailed

	if err := e.transactions.CreateStandalone(ctx, txn); err != nil {
		logging.FromContext(ctx).Error("failed to record declined movement",
			"reference", txn.Reference, "error", err)
	}
}

func (e *Engine) newTransaction(req Request, amount int64, source, destination *domain.Account) *domain.Transaction {
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Reference:   e.refs.NewReference(),
		UserID:      req.UserID,
		Kind:        req.Kind,
		Amount:      amount,
		Channel:     req.Channel,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if source != nil {
		txn.SourceID = &source.ID
		txn.Currency = source.Currency
	}
	if destination != nil {
		txn.DestinationID = &destination.ID
		if source == nil {
			txn.Currency = destination.Currency
		}
	}
	return txn
}
