package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank-ng/ledger/internal/auth"
	"github.com/corebank-ng/ledger/internal/domain"
	"github.com/corebank-ng/ledger/internal/service/ledger"
)

type ledgerEngine interface {
	Execute(ctx context.Context, req ledger.Request) (*ledger.Result, error)
	GetEntry(ctx context.Context, locator string) (*domain.Transaction, error)
}

type transactionLister interface {
	ListByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type accountReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type TransactionHandler struct {
	engine       ledgerEngine
	transactions transactionLister
	accounts     accountReader
}

func NewTransactionHandler(engine ledgerEngine, transactions transactionLister, accounts accountReader) *TransactionHandler {
	return &TransactionHandler{engine: engine, transactions: transactions, accounts: accounts}
}

type createTransactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Source      string `json:"source_account"`
	Destination string `json:"destination_account"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
	PIN         string `json:"pin"`
}

func (r createTransactionRequest) Validate() ([]FieldError, decimal.Decimal) {
	var errs []FieldError

	kind := domain.TransactionKind(r.Kind)
	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be deposit, withdrawal, or transfer"})
	}

	var amount decimal.Decimal
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else {
		parsed, err := decimal.NewFromString(r.Amount)
		if err != nil {
			errs = append(errs, FieldError{Field: "amount", Message: "must be a decimal number"})
		} else {
			amount = parsed
		}
	}

	switch kind {
	case domain.KindDeposit:
		if r.Destination == "" {
			errs = append(errs, FieldError{Field: "destination_account", Message: "required"})
		}
	case domain.KindWithdrawal:
		if r.Source == "" {
			errs = append(errs, FieldError{Field: "source_account", Message: "required"})
		}
	case domain.KindTransfer:
		if r.Source == "" {
			errs = append(errs, FieldError{Field: "source_account", Message: "required"})
		}
		if r.Destination == "" {
			errs = append(errs, FieldError{Field: "destination_account", Message: "required"})
		}
	}

	if r.Currency != "" && !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "unsupported currency"})
	}
	if r.Channel != "" && !domain.Channel(r.Channel).IsValid() {
		errs = append(errs, FieldError{Field: "channel", Message: "unsupported channel"})
	}

	return errs, amount
}

type transactionDTO struct {
	ID            uuid.UUID  `json:"id"`
	Reference     string     `json:"reference"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	SourceID      *uuid.UUID `json:"source_account_id,omitempty"`
	DestinationID *uuid.UUID `json:"destination_account_id,omitempty"`
	Channel       string     `json:"channel,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toTransactionDTO(txn *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:            txn.ID,
		Reference:     txn.Reference,
		Kind:          string(txn.Kind),
		Status:        string(txn.Status),
		Amount:        domain.FormatAmount(txn.Amount),
		Currency:      string(txn.Currency),
		SourceID:      txn.SourceID,
		DestinationID: txn.DestinationID,
		Channel:       string(txn.Channel),
		Description:   txn.Description,
		CreatedAt:     txn.CreatedAt,
	}
}

type createTransactionResponse struct {
	Transaction transactionDTO `json:"transaction"`
	Balance     string         `json:"balance"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	fieldErrs, amount := req.Validate()
	if len(fieldErrs) > 0 {
		RespondValidationError(w, fieldErrs)
		return
	}

	result, err := h.engine.Execute(r.Context(), ledger.Request{
		Kind:        domain.TransactionKind(req.Kind),
		Amount:      amount,
		Currency:    domain.Currency(req.Currency),
		Source:      req.Source,
		Destination: req.Destination,
		UserID:      userID,
		Channel:     domain.Channel(req.Channel),
		Description: req.Description,
		Secret:      req.PIN,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createTransactionResponse{
		Transaction: toTransactionDTO(result.Transaction),
		Balance:     domain.FormatAmount(result.Balance),
	})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	locator := r.PathValue("locator")

	txn, err := h.engine.GetEntry(r.Context(), locator)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

type transactionListResponse struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r, 20, 100)

	var (
		txns  []domain.Transaction
		total int
		err   error
	)

	if rawAccountID := r.URL.Query().Get("account_id"); rawAccountID != "" {
		accountID, parseErr := uuid.Parse(rawAccountID)
		if parseErr != nil {
			RespondValidationError(w, []FieldError{{Field: "account_id", Message: "must be a UUID"}})
			return
		}

		account, acctErr := h.accounts.GetByID(r.Context(), accountID)
		if acctErr != nil {
			RespondDomainError(w, acctErr)
			return
		}
		if account.UserID != userID {
			RespondAppError(w, ErrResourceNotFound, nil)
			return
		}

		txns, total, err = h.transactions.ListByAccountID(r.Context(), accountID, limit, offset)
	} else {
		txns, total, err = h.transactions.ListByUserID(r.Context(), userID, limit, offset)
	}
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(txns))
	for i := range txns {
		dtos = append(dtos, toTransactionDTO(&txns[i]))
	}

	RespondSuccess(w, http.StatusOK, transactionListResponse{
		Transactions: dtos,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	})
}

func paginationParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
