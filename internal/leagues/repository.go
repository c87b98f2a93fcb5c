package leagues

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreen-games/ecocity/internal/assets"
	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements league data access on Postgres. League deletion
// cascades into the balances and assets tables, so the repository holds
// those repositories for transactional reuse.
type Repository struct {
	db       sqlutil.DBTX
	pool     *pgxpool.Pool
	balances *ledger.Repository
	assets   *assets.Repository
}

// NewRepository creates a new leagues repository.
func NewRepository(pool *pgxpool.Pool, balances *ledger.Repository, assetsRepo *assets.Repository) *Repository {
	return &Repository{db: pool, pool: pool, balances: balances, assets: assetsRepo}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx, pool: r.pool, balances: r.balances, assets: r.assets}
}

const leagueColumns = `id, league_name, number_of_players, user_ids, created_by, is_private, joining_code, created_at`

// InsertLeague persists a new league.
func (r *Repository) InsertLeague(ctx context.Context, l models.League) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO leagues (id, league_name, number_of_players, user_ids, created_by, is_private, joining_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.LeagueName, l.NumberOfPlayers, l.UserIDs,
		l.CreatedBy, l.IsPrivate, l.JoiningCode, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert league: %w", err)
	}
	return nil
}

// GetLeague fetches a league by id.
func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leagueColumns+`
		FROM leagues
		WHERE id = $1`, id)

	l, err := scanLeague(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return l, nil
}

// GetLeagueByJoiningCode fetches the league carrying the code.
func (r *Repository) GetLeagueByJoiningCode(ctx context.Context, code string) (*models.League, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leagueColumns+`
		FROM leagues
		WHERE joining_code = $1`, code)

	l, err := scanLeague(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get league by joining code: %w", err)
	}
	return l, nil
}

// GetLeagueForUser returns the first league the user belongs to.
func (r *Repository) GetLeagueForUser(ctx context.Context, userID string) (*models.League, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leagueColumns+`
		FROM leagues
		WHERE $1 = ANY(user_ids)
		ORDER BY created_at
		LIMIT 1`, userID)

	l, err := scanLeague(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get league for user: %w", err)
	}
	return l, nil
}

// ListLeagues returns every league, oldest first.
func (r *Repository) ListLeagues(ctx context.Context) ([]models.League, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leagueColumns+`
		FROM leagues
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.League
	for rows.Next() {
		l, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leagues, nil
}

// ListLeagueIDs returns every league id.
func (r *Repository) ListLeagueIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM leagues ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list league ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan league id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddMember appends the user to the membership list if there is room
// and the user is not already a member. Returns false when the guarded
// update matched no row.
func (r *Repository) AddMember(ctx context.Context, leagueID uuid.UUID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE leagues SET user_ids = array_append(user_ids, $2)
		WHERE id = $1
			AND NOT (user_ids @> ARRAY[$2])
			AND cardinality(user_ids) < number_of_players`,
		leagueID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add league member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveMember drops the user from the membership list.
func (r *Repository) RemoveMember(ctx context.Context, leagueID uuid.UUID, userID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leagues SET user_ids = array_remove(user_ids, $2)
		WHERE id = $1`,
		leagueID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove league member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to remove league member: %w", pgx.ErrNoRows)
	}
	return nil
}

// TransferOwnership reassigns the league owner and, when requested,
// drops the outgoing owner from the membership list in the same
// statement. The SET expressions read the pre-update row, so
// array_remove sees the old created_by.
func (r *Repository) TransferOwnership(ctx context.Context, leagueID uuid.UUID, newOwnerID string, removeOldOwner bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leagues
		SET created_by = $2,
		    user_ids = CASE WHEN $3 THEN array_remove(user_ids, created_by) ELSE user_ids END
		WHERE id = $1`,
		leagueID, newOwnerID, removeOldOwner)
	if err != nil {
		return fmt.Errorf("failed to transfer league ownership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to transfer league ownership: %w", pgx.ErrNoRows)
	}
	return nil
}

// DeleteLeagueCascade removes the league and everything scoped to it,
// balances and assets included, in one transaction.
func (r *Repository) DeleteLeagueCascade(ctx context.Context, leagueID uuid.UUID) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.balances.WithTx(tx).DeleteByLeague(ctx, leagueID); err != nil {
			return err
		}
		if err := r.assets.WithTx(tx).DeleteByLeague(ctx, leagueID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM leagues WHERE id = $1`, leagueID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete league: %w", err)
	}
	return nil
}

func scanLeague(row pgx.Row) (*models.League, error) {
	var l models.League
	err := row.Scan(
		&l.ID, &l.LeagueName, &l.NumberOfPlayers, &l.UserIDs,
		&l.CreatedBy, &l.IsPrivate, &l.JoiningCode, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
