package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements notification data access. Creation writes the
// notification row and its delivery event in one transaction.
type Repository struct {
	pool   *pgxpool.Pool
	outbox *outbox.Repository
}

// NewRepository creates a new notifications repository.
func NewRepository(pool *pgxpool.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

const notificationColumns = `id, message, notification_type, is_global, user_id, created_at`

// InsertWithEvent stores the notification and the outbox event
// atomically.
func (r *Repository) InsertWithEvent(ctx context.Context, n models.Notification, eventType string, payload []byte) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO notifications (id, message, notification_type, is_global, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.Message, n.NotificationType, n.IsGlobal, n.UserID, n.CreatedAt)
		if err != nil {
			return err
		}
		return r.outbox.WithTx(tx).InsertEvent(ctx, eventType, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetNotification fetches one notification by id.
func (r *Repository) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE id = $1`, id)

	var n models.Notification
	if err := row.Scan(&n.ID, &n.Message, &n.NotificationType, &n.IsGlobal, &n.UserID, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

// ListForUser returns global notifications plus the ones addressed to
// the user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE is_global = true OR user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.NotificationType, &n.IsGlobal, &n.UserID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// DeleteNotification removes one notification.
func (r *Repository) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
