package assets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements asset data access on Postgres.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new assets repository.
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

const assetColumns = `id, user_id, league_id, building_id, x, y, is_created, is_forbidden, is_rotate, is_destroyed, created_at`

// InsertAsset persists a new asset.
func (r *Repository) InsertAsset(ctx context.Context, a models.Asset) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO assets (id, user_id, league_id, building_id, x, y, is_created, is_forbidden, is_rotate, is_destroyed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.UserID, a.LeagueID, a.BuildingID, a.X, a.Y,
		a.IsCreated, a.IsForbidden, a.IsRotate, a.IsDestroyed, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

// ListAssets returns every asset on the scope's board.
func (r *Repository) ListAssets(ctx context.Context, scope models.Scope) ([]models.Asset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2
		ORDER BY created_at`,
		scope.UserID, scope.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// FindFirstActive returns the oldest non-destroyed asset of the given
// building type on the scope's board.
func (r *Repository) FindFirstActive(ctx context.Context, scope models.Scope, buildingID string) (*models.Asset, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2
			AND building_id = $3 AND is_destroyed = false
		ORDER BY created_at
		LIMIT 1`,
		scope.UserID, scope.LeagueID, buildingID)

	a, err := scanAsset(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find asset: %w", err)
	}
	return a, nil
}

// DeleteAsset removes one asset by id.
func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete asset: %w", pgx.ErrNoRows)
	}
	return nil
}

// DeleteAt removes every asset of the building type at the board
// position. Returns the number of assets removed.
func (r *Repository) DeleteAt(ctx context.Context, scope models.Scope, buildingID string, x, y int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM assets
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2
			AND building_id = $3 AND x = $4 AND y = $5`,
		scope.UserID, scope.LeagueID, buildingID, x, y)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assets at position: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListActive returns every non-destroyed asset across all scopes.
// The disaster engine partitions the result per scope.
func (r *Repository) ListActive(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+assetColumns+`
		FROM assets
		WHERE is_destroyed = false
		ORDER BY user_id, league_id, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assets: %w", err)
	}
	defer rows.Close()

	return scanAssets(rows)
}

// MarkDestroyed flags the given assets as destroyed in one update.
func (r *Repository) MarkDestroyed(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE assets SET is_destroyed = true
		WHERE id = ANY($1)`,
		ids)
	if err != nil {
		return fmt.Errorf("failed to mark assets destroyed: %w", err)
	}
	return nil
}

// DeleteByLeague removes every asset scoped to a league. Used by the
// league deletion cascade.
func (r *Repository) DeleteByLeague(ctx context.Context, leagueID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM assets WHERE league_id = $1`, leagueID); err != nil {
		return fmt.Errorf("failed to delete league assets: %w", err)
	}
	return nil
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID, &a.UserID, &a.LeagueID, &a.BuildingID, &a.X, &a.Y,
		&a.IsCreated, &a.IsForbidden, &a.IsRotate, &a.IsDestroyed, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssets(rows pgx.Rows) ([]models.Asset, error) {
	var assets []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}
