package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements balance data access on Postgres.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new ledger repository.
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

const balanceColumns = `id, user_id, league_id, coins, eco_points, electricity, water, garbage, population, last_logined, created_at`

// GetBalance fetches the balance row for a scope.
func (r *Repository) GetBalance(ctx context.Context, scope models.Scope) (*models.Balance, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM balances
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2`,
		scope.UserID, scope.LeagueID)

	b, err := scanBalance(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

// CreateBalance inserts the default balance for a scope. Inserting an
// already initialized scope is a no-op; the stored row is returned
// either way.
func (r *Repository) CreateBalance(ctx context.Context, scope models.Scope) (*models.Balance, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO balances (id, user_id, league_id, coins, eco_points, electricity, water, garbage, population)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, COALESCE(league_id, '00000000-0000-0000-0000-000000000000'::uuid)) DO NOTHING`,
		uuid.New(), scope.UserID, scope.LeagueID,
		models.DefaultCoins, models.DefaultEcoPoints, models.DefaultElectricity,
		models.DefaultWater, models.DefaultGarbage, models.DefaultPopulation)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}

	return r.GetBalance(ctx, scope)
}

// ApplyDelta adds the delta to the scope's balance in one atomic
// update. Returns pgx.ErrNoRows when the scope has no balance row.
func (r *Repository) ApplyDelta(ctx context.Context, scope models.Scope, d Delta) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE balances SET
			coins       = coins + $3,
			eco_points  = eco_points + $4,
			electricity = electricity + $5,
			water       = water + $6,
			garbage     = garbage + $7,
			population  = population + $8
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2`,
		scope.UserID, scope.LeagueID,
		d.Coins, d.EcoPoints, d.Electricity, d.Water, d.Garbage, d.Population)
	if err != nil {
		return fmt.Errorf("failed to apply delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to apply delta: %w", pgx.ErrNoRows)
	}
	return nil
}

// UpdateFields overwrites the given balance fields for a scope.
func (r *Repository) UpdateFields(ctx context.Context, scope models.Scope, req UpdateBalanceRequest) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE balances SET
			coins       = COALESCE($3, coins),
			eco_points  = COALESCE($4, eco_points),
			electricity = COALESCE($5, electricity),
			water       = COALESCE($6, water),
			garbage     = COALESCE($7, garbage),
			population  = COALESCE($8, population)
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2`,
		scope.UserID, scope.LeagueID,
		req.Coins, req.EcoPoints, req.Electricity, req.Water, req.Garbage, req.Population)
	if err != nil {
		return fmt.Errorf("failed to update balance fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update balance fields: %w", pgx.ErrNoRows)
	}
	return nil
}

// TouchLastLogined stamps the scope's last login time server-side.
func (r *Repository) TouchLastLogined(ctx context.Context, scope models.Scope) error {
	_, err := r.db.Exec(ctx, `
		UPDATE balances SET last_logined = now()
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2`,
		scope.UserID, scope.LeagueID)
	if err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}

// ListForUser returns every league-scoped balance of a user.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]models.Balance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM balances
		WHERE user_id = $1 AND league_id IS NOT NULL
		ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	return scanBalances(rows)
}

// DeleteByLeague removes every balance scoped to a league. Used by the
// league deletion cascade.
func (r *Repository) DeleteByLeague(ctx context.Context, leagueID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM balances WHERE league_id = $1`, leagueID); err != nil {
		return fmt.Errorf("failed to delete league balances: %w", err)
	}
	return nil
}

func scanBalance(row pgx.Row) (*models.Balance, error) {
	var b models.Balance
	err := row.Scan(
		&b.ID, &b.UserID, &b.LeagueID,
		&b.Coins, &b.EcoPoints, &b.Electricity, &b.Water, &b.Garbage, &b.Population,
		&b.LastLogined, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBalances(rows pgx.Rows) ([]models.Balance, error) {
	var balances []models.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}
