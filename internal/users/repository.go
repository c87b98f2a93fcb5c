package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements user profile data access on Postgres.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new users repository.
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx}
}

const profileColumns = `user_id, user_name, email, game_init_map, created_at`

// InsertProfile persists a new profile.
func (r *Repository) InsertProfile(ctx context.Context, p models.UserProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, user_name, email, game_init_map, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.UserID, p.UserName, p.Email, p.GameInitMap, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user profile: %w", err)
	}
	return nil
}

// GetProfile fetches a profile by user id.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		WHERE user_id = $1`, userID)

	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return p, nil
}

// SearchProfiles returns profiles whose name or email contains the
// term, case insensitive.
func (r *Repository) SearchProfiles(ctx context.Context, term string) ([]models.UserProfile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		WHERE user_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY created_at`, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search user profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateGameMap overwrites the profile's stored board blob.
func (r *Repository) UpdateGameMap(ctx context.Context, userID, gameInitMap string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_profiles SET game_init_map = $2
		WHERE user_id = $1`, userID, gameInitMap)
	if err != nil {
		return fmt.Errorf("failed to update game map: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update game map: %w", pgx.ErrNoRows)
	}
	return nil
}

// ListUserIDs returns every registered user id.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM user_profiles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := row.Scan(&p.UserID, &p.UserName, &p.Email, &p.GameInitMap, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
