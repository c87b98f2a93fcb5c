package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies notifications for the delivery layer.
type NotificationType string

const (
	NotificationTypeChallenge         NotificationType = "challenge"
	NotificationTypeDisaster          NotificationType = "disaster"
	NotificationTypeResourcesReceived NotificationType = "resourcesReceived"
)

// Notification is an outbound message record. Rendering for display
// belongs to the delivery collaborator; the message is stored raw.
type Notification struct {
	ID               uuid.UUID        `json:"id"`
	Message          string           `json:"message"`
	NotificationType NotificationType `json:"notification_type"`
	IsGlobal         bool             `json:"is_global"`
	UserID           *string          `json:"user_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}
