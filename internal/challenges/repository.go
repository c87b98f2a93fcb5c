package challenges

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements challenge and progress data access on Postgres.
type Repository struct {
	db     sqlutil.DBTX
	pool   *pgxpool.Pool
	outbox *outbox.Repository
}

// NewRepository creates a new challenges repository.
func NewRepository(pool *pgxpool.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{db: pool, pool: pool, outbox: outboxRepo}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{db: tx, pool: r.pool, outbox: r.outbox}
}

const challengeColumns = `id, start_time, end_time, league_id, message, required_building_id, required_count, points, is_ended`

// InsertChallengeWithEvent stores the challenge and its announcement
// event atomically.
func (r *Repository) InsertChallengeWithEvent(ctx context.Context, c models.Challenge, eventType string, payload []byte) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.WithTx(tx).InsertChallenge(ctx, c); err != nil {
			return err
		}
		return r.outbox.WithTx(tx).InsertEvent(ctx, eventType, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to insert challenge with event: %w", err)
	}
	return nil
}

// InsertChallenge persists a new challenge.
func (r *Repository) InsertChallenge(ctx context.Context, c models.Challenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO challenges (id, start_time, end_time, league_id, message, required_building_id, required_count, points, is_ended)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.StartTime, c.EndTime, c.LeagueID, c.Message,
		c.Required.BuildingID, c.Required.Count, c.Points, c.IsEnded)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	return nil
}

// GetChallenge fetches a challenge by id.
func (r *Repository) GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE id = $1`,
		id)

	c, err := scanChallenge(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// ListUnended returns every challenge not yet flagged as ended,
// regardless of its end time.
func (r *Repository) ListUnended(ctx context.Context) ([]models.Challenge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE is_ended = false
		ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unended challenges: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

// ListActiveByBuilding returns unended challenges requiring the given
// building type.
func (r *Repository) ListActiveByBuilding(ctx context.Context, buildingID string) ([]models.Challenge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE is_ended = false AND required_building_id = $1
		ORDER BY start_time`,
		buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active challenges by building: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

// EndExpiredBefore flags every unended challenge whose end time is
// strictly before the cutoff. A challenge ending exactly at the cutoff
// is still live. Returns the number of challenges ended.
func (r *Repository) EndExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE challenges SET is_ended = true
		WHERE is_ended = false AND end_time < $1`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to end expired challenges: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetProgress fetches the progress row for a challenge and scope.
func (r *Repository) GetProgress(ctx context.Context, challengeID uuid.UUID, scope models.Scope) (*models.ChallengeProgress, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, challenge_id, user_id, league_id, building_id, count, is_completed
		FROM challenge_progress
		WHERE challenge_id = $1 AND user_id = $2 AND league_id IS NOT DISTINCT FROM $3`,
		challengeID, scope.UserID, scope.LeagueID)

	p, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge progress: %w", err)
	}
	return p, nil
}

// InsertProgress persists a single progress row.
func (r *Repository) InsertProgress(ctx context.Context, p models.ChallengeProgress) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO challenge_progress (id, challenge_id, user_id, league_id, building_id, count, is_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ChallengeID, p.UserID, p.LeagueID,
		p.Progress.BuildingID, p.Progress.Count, p.IsCompleted)
	if err != nil {
		return fmt.Errorf("failed to insert challenge progress: %w", err)
	}
	return nil
}

// InsertProgressBatch persists progress rows in one multi-row insert.
// Callers chunk the input; batches here are bounded by the fan-out
// chunk size.
func (r *Repository) InsertProgressBatch(ctx context.Context, rows []models.ChallengeProgress) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range rows {
		batch.Queue(`
			INSERT INTO challenge_progress (id, challenge_id, user_id, league_id, building_id, count, is_completed)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.ChallengeID, p.UserID, p.LeagueID,
			p.Progress.BuildingID, p.Progress.Count, p.IsCompleted)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert challenge progress batch: %w", err)
		}
	}
	return nil
}

// UpdateProgress overwrites an incomplete progress row's count and
// completion flag. Reports whether a row changed; a row that is
// missing or already completed is left untouched, so two racing
// placements cannot both observe the completing write.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, count int, isCompleted bool) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE challenge_progress SET count = $2, is_completed = $3
		WHERE id = $1 AND is_completed = false`,
		id, count, isCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to update challenge progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListProgressForScope returns a scope's progress rows, optionally
// restricted to completed ones.
func (r *Repository) ListProgressForScope(ctx context.Context, scope models.Scope, completedOnly bool) ([]models.ChallengeProgress, error) {
	q := `
		SELECT id, challenge_id, user_id, league_id, building_id, count, is_completed
		FROM challenge_progress
		WHERE user_id = $1 AND league_id IS NOT DISTINCT FROM $2`
	if completedOnly {
		q += ` AND is_completed = true`
	}

	rows, err := r.db.Query(ctx, q, scope.UserID, scope.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenge progress: %w", err)
	}
	defer rows.Close()

	var out []models.ChallengeProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge progress: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanProgress(row pgx.Row) (*models.ChallengeProgress, error) {
	var p models.ChallengeProgress
	err := row.Scan(
		&p.ID, &p.ChallengeID, &p.UserID, &p.LeagueID,
		&p.Progress.BuildingID, &p.Progress.Count, &p.IsCompleted,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var c models.Challenge
	err := row.Scan(
		&c.ID, &c.StartTime, &c.EndTime, &c.LeagueID, &c.Message,
		&c.Required.BuildingID, &c.Required.Count, &c.Points, &c.IsEnded,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChallenges(rows pgx.Rows) ([]models.Challenge, error) {
	var challenges []models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}
