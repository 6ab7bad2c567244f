package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "in-app"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

// Notification is written after a movement commits, never inside the atomic
// unit. Delivered tracks forwarding to the external sink; Read tracks the
// recipient opening it in-app.
type Notification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Message     string
	Channel     NotificationChannel
	ReferenceID uuid.UUID
	Read        bool
	Delivered   bool
	CreatedAt   time.Time
}
