package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/events"
	"github.com/evergreen-games/ecocity/internal/models"
)

// NotificationsRepository defines what the app layer needs from the repository
type NotificationsRepository interface {
	InsertWithEvent(ctx context.Context, n models.Notification, eventType string, payload []byte) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error
}

// App handles notification emission and retrieval. Display formatting
// belongs to the delivery collaborator; messages are stored raw.
type App struct {
	repo  NotificationsRepository
	clock clockwork.Clock
}

// NewApp creates a new notifications App
func NewApp(repo NotificationsRepository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// Create persists a notification and queues its delivery event.
func (a *App) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if req.Message == "" {
		return nil, apperrors.Validationf("message is required")
	}
	if req.NotificationType == "" {
		return nil, apperrors.Validationf("notification type is required")
	}
	if !req.IsGlobal && req.UserID == nil {
		return nil, apperrors.Validationf("user id is required for non-global notifications")
	}

	n := models.Notification{
		ID:               uuid.New(),
		Message:          req.Message,
		NotificationType: req.NotificationType,
		IsGlobal:         req.IsGlobal,
		UserID:           req.UserID,
		CreatedAt:        a.clock.Now().UTC(),
	}

	payload, err := json.Marshal(events.NotificationCreatedPayload{
		NotificationID:   n.ID.String(),
		Message:          n.Message,
		NotificationType: string(n.NotificationType),
		IsGlobal:         n.IsGlobal,
		UserID:           n.UserID,
		CreatedAt:        n.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	if err := a.repo.InsertWithEvent(ctx, n, events.TypeNotificationCreated, payload); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	log.Info().
		Str("notification_id", n.ID.String()).
		Str("notification_type", string(n.NotificationType)).
		Bool("is_global", n.IsGlobal).
		Msg("created notification")
	return &n, nil
}

// ListForUser returns the global feed plus the user's own entries.
func (a *App) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	if userID == "" {
		return nil, apperrors.Validationf("user id is required")
	}
	notifications, err := a.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Delete removes a notification; only its addressee may do so.
func (a *App) Delete(ctx context.Context, id uuid.UUID, callerID string) error {
	n, err := a.repo.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("notification %s", id)
		}
		return fmt.Errorf("failed to get notification: %w", err)
	}

	if n.UserID == nil || *n.UserID != callerID {
		return fmt.Errorf("%w: notification %s does not belong to caller", apperrors.ErrUnauthorized, id)
	}

	if err := a.repo.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	log.Info().Str("notification_id", id.String()).Msg("deleted notification")
	return nil
}
