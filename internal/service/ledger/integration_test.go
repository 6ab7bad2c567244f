package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank-ng/ledger/internal/auth"
	"github.com/corebank-ng/ledger/internal/config"
	"github.com/corebank-ng/ledger/internal/domain"
	"github.com/corebank-ng/ledger/internal/repository"
	"github.com/corebank-ng/ledger/internal/service/ledger"
	"github.com/corebank-ng/ledger/internal/service/notify"
	"github.com/corebank-ng/ledger/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		LockTimeoutMs:     3000,
		MaxCommitAttempts: 3,
	}
}

func setupEngine(t *testing.T, db *sql.DB) *ledger.Engine {
	t.Helper()
	return ledger.NewEngine(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewCardRepository(db),
		notify.NewService(repository.NewNotificationRepository(db)),
		auth.NewBcryptVerifier(),
		ledger.NewUUIDReferenceGenerator(),
		db,
		testConfig(),
	)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "NGN", 50000)
	recipientAcct := testutil.SeedTestAccount(t, db, recipient.ID, "NGN", 10000)

	result, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("200.00"),
		Source:      senderAcct.ID.String(),
		Destination: recipientAcct.ID.String(),
		UserID:      sender.ID,
		Channel:     domain.ChannelOnline,
		Secret:      testutil.DefaultPIN,
	})

	require.NoError(t, err)
	txn := result.Transaction
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, domain.KindTransfer, txn.Kind)
	assert.Equal(t, int64(20000), txn.Amount)
	assert.Equal(t, domain.CurrencyNGN, txn.Currency)
	assert.NotEmpty(t, txn.Reference)
	require.NotNil(t, txn.SourceID)
	require.NotNil(t, txn.DestinationID)
	assert.Equal(t, senderAcct.ID, *txn.SourceID)
	assert.Equal(t, recipientAcct.ID, *txn.DestinationID)

	assert.Equal(t, int64(30000), result.Balance)
	assert.Equal(t, int64(30000), testutil.GetAccountBalance(t, db, senderAcct.ID))
	assert.Equal(t, int64(30000), testutil.GetAccountBalance(t, db, recipientAcct.ID))

	assert.Equal(t, 2, testutil.CountNotifications(t, db, txn.ID))

	fetched, err := engine.GetEntry(ctx, txn.Reference)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, fetched.ID)

	byID, err := engine.GetEntry(ctx, txn.ID.String())
	require.NoError(t, err)
	assert.Equal(t, txn.Reference, byID.Reference)
}

func TestTransfer_ByAccountNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "USD", 10000)
	recipientAcct := testutil.SeedTestAccount(t, db, recipient.ID, "USD", 0)

	result, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("25.00"),
		Source:      senderAcct.AccountNumber,
		Destination: recipientAcct.AccountNumber,
		UserID:      sender.ID,
		Channel:     domain.ChannelBankTransfer,
		Secret:      testutil.DefaultPIN,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7500), result.Balance)
	assert.Equal(t, int64(2500), testutil.GetAccountBalance(t, db, recipientAcct.ID))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "USD", 5000)
	recipientAcct := testutil.SeedTestAccount(t, db, recipient.ID, "USD", 1000)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("100.00"),
		Source:      senderAcct.ID.String(),
		Destination: recipientAcct.ID.String(),
		UserID:      sender.ID,
		Secret:      testutil.DefaultPIN,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(5000), testutil.GetAccountBalance(t, db, senderAcct.ID))
	assert.Equal(t, int64(1000), testutil.GetAccountBalance(t, db, recipientAcct.ID))

	// The declined movement leaves a failed audit row but no completed one.
	var failed, completed int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE source_account_id = $1 AND status = 'failed'`,
		senderAcct.ID,
	).Scan(&failed))
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE source_account_id = $1 AND status = 'completed'`,
		senderAcct.ID,
	).Scan(&completed))
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, completed)
}

func TestWithdrawal_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", 5000)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:    domain.KindWithdrawal,
		Amount:  amount("100.00"),
		Source:  acct.ID.String(),
		UserID:  user.ID,
		Channel: domain.ChannelOnline,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(5000), testutil.GetAccountBalance(t, db, acct.ID))
}

func TestTransfer_SameAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")
	acct := testutil.SeedTestAccount(t, db, user.ID, "NGN", 10000)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("10.00"),
		Source:      acct.ID.String(),
		Destination: acct.AccountNumber,
		UserID:      user.ID,
		Secret:      testutil.DefaultPIN,
	})

	require.ErrorIs(t, err, domain.ErrSameAccount)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, acct.ID))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, acct.ID))
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	usdAcct := testutil.SeedTestAccount(t, db, sender.ID, "USD", 10000)
	ngnAcct := testutil.SeedTestAccount(t, db, recipient.ID, "NGN", 10000)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("10.00"),
		Source:      usdAcct.ID.String(),
		Destination: ngnAcct.ID.String(),
		UserID:      sender.ID,
		Secret:      testutil.DefaultPIN,
	})

	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, usdAcct.ID))
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, ngnAcct.ID))
}

func TestTransfer_WrongPIN(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "NGN", 10000)
	recipientAcct := testutil.SeedTestAccount(t, db, recipient.ID, "NGN", 0)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("10.00"),
		Source:      senderAcct.ID.String(),
		Destination: recipientAcct.ID.String(),
		UserID:      sender.ID,
		Secret:      "0000",
	})

	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, senderAcct.ID))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, senderAcct.ID))
}

func TestTransfer_InactiveDestination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "NGN", 10000)
	inactive := testutil.SeedInactiveAccount(t, db, recipient.ID, "NGN", 0)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("10.00"),
		Source:      senderAcct.ID.String(),
		Destination: inactive.ID.String(),
		UserID:      sender.ID,
		Secret:      testutil.DefaultPIN,
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, senderAcct.ID))
}

func TestDeposit_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")
	acct := testutil.SeedTestAccount(t, db, user.ID, "KES", 0)

	result, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindDeposit,
		Amount:      amount("1500.50"),
		Destination: acct.AccountNumber,
		UserID:      user.ID,
		Channel:     domain.ChannelOnline,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(150050), result.Balance)
	assert.Equal(t, domain.CurrencyKES, result.Transaction.Currency)
	assert.Nil(t, result.Transaction.SourceID)
	assert.Equal(t, int64(150050), testutil.GetAccountBalance(t, db, acct.ID))
	assert.Equal(t, 1, testutil.CountNotifications(t, db, result.Transaction.ID))
}

func TestWithdrawal_CardChannel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")
	acct := testutil.SeedTestAccount(t, db, user.ID, "USD", 20000)
	testutil.SeedTestCard(t, db, acct.ID)

	result, err := engine.Execute(ctx, ledger.Request{
		Kind:    domain.KindWithdrawal,
		Amount:  amount("50.00"),
		Source:  acct.ID.String(),
		UserID:  user.ID,
		Channel: domain.ChannelATM,
		Secret:  testutil.DefaultPIN,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(15000), result.Balance)
	assert.Nil(t, result.Transaction.DestinationID)

	// Wrong card PIN is rejected without touching the balance.
	_, err = engine.Execute(ctx, ledger.Request{
		Kind:    domain.KindWithdrawal,
		Amount:  amount("50.00"),
		Source:  acct.ID.String(),
		UserID:  user.ID,
		Channel: domain.ChannelATM,
		Secret:  "9999",
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int64(15000), testutil.GetAccountBalance(t, db, acct.ID))
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	userA := testutil.SeedTestUser(t, db, "a@test.com", "A")
	userB := testutil.SeedTestUser(t, db, "b@test.com", "B")
	acctA := testutil.SeedTestAccount(t, db, userA.ID, "NGN", 50000)
	acctB := testutil.SeedTestAccount(t, db, userB.ID, "NGN", 50000)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	run := func(from, to *domain.Account, userID uuid.UUID, amt string) {
		defer wg.Done()
		_, err := engine.Execute(ctx, ledger.Request{
			Kind:        domain.KindTransfer,
			Amount:      amount(amt),
			Source:      from.ID.String(),
			Destination: to.ID.String(),
			UserID:      userID,
			Secret:      testutil.DefaultPIN,
		})
		errs <- err
	}

	wg.Add(2)
	go run(acctA, acctB, userA.ID, "100.00")
	go run(acctB, acctA, userB.ID, "50.00")
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(45000), testutil.GetAccountBalance(t, db, acctA.ID))
	assert.Equal(t, int64(55000), testutil.GetAccountBalance(t, db, acctB.ID))
}

func TestConcurrentOverdraftPrevented(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	userA := testutil.SeedTestUser(t, db, "a@test.com", "A")
	userB := testutil.SeedTestUser(t, db, "b@test.com", "B")
	acctA := testutil.SeedTestAccount(t, db, userA.ID, "USD", 10000)
	acctB := testutil.SeedTestAccount(t, db, userB.ID, "USD", 0)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Execute(ctx, ledger.Request{
				Kind:        domain.KindTransfer,
				Amount:      amount("70.00"),
				Source:      acctA.ID.String(),
				Destination: acctB.ID.String(),
				UserID:      userA.ID,
				Secret:      testutil.DefaultPIN,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var succeeded, declined int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrInsufficientFunds)
			declined++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, declined)
	assert.Equal(t, int64(3000), testutil.GetAccountBalance(t, db, acctA.ID))
	assert.Equal(t, int64(7000), testutil.GetAccountBalance(t, db, acctB.ID))
}

func TestTransferConservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	userA := testutil.SeedTestUser(t, db, "a@test.com", "A")
	userB := testutil.SeedTestUser(t, db, "b@test.com", "B")
	acctA := testutil.SeedTestAccount(t, db, userA.ID, "ZAR", 40000)
	acctB := testutil.SeedTestAccount(t, db, userB.ID, "ZAR", 20000)

	before := testutil.GetAccountBalance(t, db, acctA.ID) + testutil.GetAccountBalance(t, db, acctB.ID)

	amounts := []string{"15.00", "42.50", "0.01", "99.99"}
	for i, amt := range amounts {
		from, to, userID := acctA, acctB, userA.ID
		if i%2 == 1 {
			from, to, userID = acctB, acctA, userB.ID
		}
		_, err := engine.Execute(ctx, ledger.Request{
			Kind:        domain.KindTransfer,
			Amount:      amount(amt),
			Source:      from.ID.String(),
			Destination: to.ID.String(),
			UserID:      userID,
			Secret:      testutil.DefaultPIN,
		})
		require.NoError(t, err)
	}

	after := testutil.GetAccountBalance(t, db, acctA.ID) + testutil.GetAccountBalance(t, db, acctB.ID)
	assert.Equal(t, before, after)
}

func TestReferenceUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")
	acct := testutil.SeedTestAccount(t, db, user.ID, "EUR", 0)

	for range 10 {
		_, err := engine.Execute(ctx, ledger.Request{
			Kind:        domain.KindDeposit,
			Amount:      amount("5.00"),
			Destination: acct.ID.String(),
			UserID:      user.ID,
		})
		require.NoError(t, err)
	}

	var total, distinct int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&total))
	require.NoError(t, db.QueryRow(`SELECT COUNT(DISTINCT reference) FROM transactions`).Scan(&distinct))
	assert.Equal(t, 10, total)
	assert.Equal(t, total, distinct)
}

// failingTransactionStore injects a storage failure between the balance
// mutation and the ledger record write, inside the atomic unit.
type failingTransactionStore struct {
	*repository.TransactionRepository
}

func (failingTransactionStore) Create(context.Context, *sql.Tx, *domain.Transaction) error {
	return errors.New("injected storage failure")
}

func TestAtomicity_EntryWriteFailureRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	engine := ledger.NewEngine(
		repository.NewAccountRepository(db),
		failingTransactionStore{repository.NewTransactionRepository(db)},
		repository.NewCardRepository(db),
		notify.NewService(repository.NewNotificationRepository(db)),
		auth.NewBcryptVerifier(),
		ledger.NewUUIDReferenceGenerator(),
		db,
		testConfig(),
	)

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "Sender")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "Recipient")
	senderAcct := testutil.SeedTestAccount(t, db, sender.ID, "NGN", 30000)
	recipientAcct := testutil.SeedTestAccount(t, db, recipient.ID, "NGN", 10000)

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindTransfer,
		Amount:      amount("100.00"),
		Source:      senderAcct.ID.String(),
		Destination: recipientAcct.ID.String(),
		UserID:      sender.ID,
		Secret:      testutil.DefaultPIN,
	})

	require.ErrorIs(t, err, domain.ErrTransactionFailed)

	// Full rollback: the already-applied balance deltas must not survive.
	assert.Equal(t, int64(30000), testutil.GetAccountBalance(t, db, senderAcct.ID))
	assert.Equal(t, int64(10000), testutil.GetAccountBalance(t, db, recipientAcct.ID))

	var completed int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE status = 'completed'`,
	).Scan(&completed))
	assert.Equal(t, 0, completed)
}

func TestExecute_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := setupEngine(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User")

	_, err := engine.Execute(ctx, ledger.Request{
		Kind:        domain.KindDeposit,
		Amount:      amount("10.00"),
		Destination: "0000000000",
		UserID:      user.ID,
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = engine.GetEntry(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
