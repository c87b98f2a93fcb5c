package disasters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements disaster report data access on Postgres. The
// affected scopes list is stored as a JSON document.
type Repository struct {
	db     sqlutil.DBTX
	pool   *pgxpool.Pool
	outbox *outbox.Repository
}

// NewRepository creates a new disasters repository.
func NewRepository(pool *pgxpool.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{db: pool, pool: pool, outbox: outboxRepo}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx, pool: r.pool, outbox: r.outbox}
}

// InsertDisasterWithEvent stores the disaster report and its event
// atomically.
func (r *Repository) InsertDisasterWithEvent(ctx context.Context, d models.Disaster, eventType string, payload []byte) error {
	affected, err := json.Marshal(d.AffectedUsersList)
	if err != nil {
		return fmt.Errorf("failed to marshal disaster impacts: %w", err)
	}

	err = sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO disasters (id, disaster_type, affected_users, destroyed_buildings_count, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.DisasterType, affected, d.DestroyedBuildingsCount, d.CreatedAt)
		if err != nil {
			return err
		}
		return r.outbox.WithTx(tx).InsertEvent(ctx, eventType, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to insert disaster: %w", err)
	}
	return nil
}

// ListDisasters returns every disaster report, newest first.
func (r *Repository) ListDisasters(ctx context.Context) ([]models.Disaster, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, disaster_type, affected_users, destroyed_buildings_count, created_at
		FROM disasters
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list disasters: %w", err)
	}
	defer rows.Close()

	var disasters []models.Disaster
	for rows.Next() {
		var d models.Disaster
		var affected []byte
		if err := rows.Scan(&d.ID, &d.DisasterType, &affected, &d.DestroyedBuildingsCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan disaster: %w", err)
		}
		if err := json.Unmarshal(affected, &d.AffectedUsersList); err != nil {
			return nil, fmt.Errorf("failed to unmarshal disaster impacts: %w", err)
		}
		disasters = append(disasters, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return disasters, nil
}
