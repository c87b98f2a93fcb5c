package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository inserts outbox rows on the request path. Domains insert
// events inside the same transaction as their own writes; the worker
// drains the table on its own connection.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new outbox repository.
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

// InsertEvent appends one event to the outbox.
func (r *Repository) InsertEvent(ctx context.Context, eventType string, payload []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO outbox (id, event_type, payload)
		VALUES ($1, $2, $3)`,
		uuid.New(), eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}
