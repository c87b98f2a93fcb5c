package notifications

import "github.com/evergreen-games/ecocity/internal/models"

// CreateNotificationRequest carries a new outbound notification.
// UserID must be set when the notification is not global.
type CreateNotificationRequest struct {
	Message          string                  `json:"message"`
	NotificationType models.NotificationType `json:"notification_type"`
	IsGlobal         bool                    `json:"is_global"`
	UserID           *string                 `json:"user_id,omitempty"`
}
