package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/auth"
	"github.com/corebank-ng/ledger/internal/domain"
)

type notificationReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type NotificationHandler struct {
	notifications notificationReader
}

func NewNotificationHandler(notifications notificationReader) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type notificationDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	ReferenceID uuid.UUID `json:"reference_id"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r, 20, 100)

	notifications, err := h.notifications.GetByUserID(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]notificationDTO, 0, len(notifications))
	for _, n := range notifications {
		dtos = append(dtos, notificationDTO{
			ID:          n.ID,
			Title:       n.Title,
			Message:     n.Message,
			ReferenceID: n.ReferenceID,
			Read:        n.Read,
			CreatedAt:   n.CreatedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a UUID"}})
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, userID); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]bool{"read": true})
}
