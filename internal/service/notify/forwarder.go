package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/domain"
)

type forwarderRepo interface {
	GetUndelivered(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// Forwarder pushes recorded notifications to an external webhook sink on a
// fixed interval. Delivery runs out of band from the ledger decision; a row
// stays undelivered until the sink acknowledges it.
type Forwarder struct {
	notifications forwarderRepo
	webhookURL    string
	interval      time.Duration
	client        *http.Client
	logger        *slog.Logger
}

const forwardBatchSize = 50

func NewForwarder(notifications forwarderRepo, webhookURL string, interval time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		notifications: notifications,
		webhookURL:    webhookURL,
		interval:      interval,
		client:        &http.Client{Timeout: 5 * time.Second},
		logger:        logger,
	}
}

func (f *Forwarder) Start(ctx context.Context) {
	f.logger.Info("notification forwarder started", "interval", f.interval)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("notification forwarder stopped")
			return
		case <-ticker.C:
			f.forwardPending(ctx)
		}
	}
}

func (f *Forwarder) forwardPending(ctx context.Context) {
	pending, err := f.notifications.GetUndelivered(ctx, forwardBatchSize)
	if err != nil {
		f.logger.Error("failed to load undelivered notifications", "error", err)
		return
	}

	for _, n := range pending {
		if err := f.deliver(ctx, n); err != nil {
			f.logger.Warn("notification delivery failed, will retry",
				"notification_id", n.ID, "error", err)
			continue
		}
		if err := f.notifications.MarkDelivered(ctx, n.ID); err != nil {
			f.logger.Error("failed to mark notification delivered",
				"notification_id", n.ID, "error", err)
		}
	}
}

type webhookPayload struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Reference uuid.UUID `json:"reference_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Forwarder) deliver(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(webhookPayload{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Reference: n.ReferenceID,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("deliver: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deliver: sink returned %d", resp.StatusCode)
	}
	return nil
}
