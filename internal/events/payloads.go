package events

import (
	"time"
)

// Event payload types shared between the domain apps, the outbox and
// the gateway.

// Event type names as stored in the outbox and used as NATS subjects.
const (
	TypeNotificationCreated = "NotificationCreated"
	TypeChallengeCreated    = "ChallengeCreated"
	TypeDisasterStruck      = "DisasterStruck"
)

// NotificationCreatedPayload is the payload for a NotificationCreated event
type NotificationCreatedPayload struct {
	NotificationID   string    `json:"notification_id"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notification_type"`
	IsGlobal         bool      `json:"is_global"`
	UserID           *string   `json:"user_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChallengeCreatedPayload is the payload for a ChallengeCreated event
type ChallengeCreatedPayload struct {
	ChallengeID   string    `json:"challenge_id"`
	BuildingID    string    `json:"building_id"`
	RequiredCount int       `json:"required_count"`
	Points        int64     `json:"points"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// DisasterStruckPayload is the payload for a DisasterStruck event
type DisasterStruckPayload struct {
	DisasterID     string    `json:"disaster_id"`
	DisasterType   string    `json:"disaster_type"`
	DestroyedCount int       `json:"destroyed_count"`
	StruckAt       time.Time `json:"struck_at"`
}
