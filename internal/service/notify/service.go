package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corebank-ng/ledger/internal/domain"
	"github.com/corebank-ng/ledger/internal/logging"
)

type notificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Service records movement notifications once the atomic unit has committed.
// A write failure here never rolls back or fails the movement; it is logged
// and left to the delivery forwarder's collaborator to reconcile.
type Service struct {
	notifications notificationRepo
}

func NewService(notifications notificationRepo) *Service {
	return &Service{notifications: notifications}
}

// TransactionCompleted produces one notification per affected party: two for
// a transfer (sender and recipient), one otherwise. Messages name the
// counterpart's account number and nothing else about the counterpart.
func (s *Service) TransactionCompleted(ctx context.Context, txn *domain.Transaction, source, destination *domain.Account) {
	for _, n := range BuildNotifications(txn, source, destination) {
		if err := s.notifications.Create(ctx, &n); err != nil {
			logging.FromContext(ctx).Error("failed to record notification",
				"reference", txn.Reference, "user_id", n.UserID, "error", err)
		}
	}
}

func BuildNotifications(txn *domain.Transaction, source, destination *domain.Account) []domain.Notification {
	now := time.Now().UTC()

	if txn.Kind == domain.KindTransfer {
		money := domain.FormatMoney(txn.Amount, txn.Currency)
		return []domain.Notification{
			{
				ID:          uuid.New(),
				UserID:      source.UserID,
				Title:       "Transfer Sent",
				Message:     fmt.Sprintf("You transferred %s to account number %s", money, destination.AccountNumber),
				Channel:     domain.NotificationChannelInApp,
				ReferenceID: txn.ID,
				CreatedAt:   now,
			},
			{
				ID:          uuid.New(),
				UserID:      destination.UserID,
				Title:       "Transfer Received",
				Message:     fmt.Sprintf("You received %s from account number %s", money, source.AccountNumber),
				Channel:     domain.NotificationChannelInApp,
				ReferenceID: txn.ID,
				CreatedAt:   now,
			},
		}
	}

	money := domain.FormatMoney(txn.Amount, txn.Currency)
	return []domain.Notification{
		{
			ID:          uuid.New(),
			UserID:      txn.UserID,
			Title:       fmt.Sprintf("%s - %s", strings.ToUpper(string(txn.Kind)), money),
			Message:     fmt.Sprintf("Your %s of %s was successful.", txn.Kind, money),
			Channel:     domain.NotificationChannelInApp,
			ReferenceID: txn.ID,
			CreatedAt:   now,
		},
	}
}
