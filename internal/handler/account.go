package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/auth"
	"github.com/corebank-ng/ledger/internal/domain"
)

type accountLister interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

// AccountHandler exposes the read side only. Provisioning and status changes
// are administrative operations owned by a different service; balances are
// written exclusively by the ledger engine.
type AccountHandler struct {
	accounts accountLister
}

func NewAccountHandler(accounts accountLister) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber string    `json:"account_number"`
	Currency      string    `json:"currency"`
	Balance       string    `json:"balance"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accounts, err := h.accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, accountDTO{
			ID:            a.ID,
			AccountNumber: a.AccountNumber,
			Currency:      string(a.Currency),
			Balance:       domain.FormatAmount(a.Balance),
			Status:        string(a.Status),
			CreatedAt:     a.CreatedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
