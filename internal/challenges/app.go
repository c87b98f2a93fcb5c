package challenges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/events"
	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/notifications"
)

// ChallengesRepository defines what the challenge workflows need from
// storage.
type ChallengesRepository interface {
	InsertChallengeWithEvent(ctx context.Context, c models.Challenge, eventType string, payload []byte) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListUnended(ctx context.Context) ([]models.Challenge, error)
	ListActiveByBuilding(ctx context.Context, buildingID string) ([]models.Challenge, error)
	EndExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	GetProgress(ctx context.Context, challengeID uuid.UUID, scope models.Scope) (*models.ChallengeProgress, error)
	InsertProgress(ctx context.Context, p models.ChallengeProgress) error
	InsertProgressBatch(ctx context.Context, rows []models.ChallengeProgress) error
	UpdateProgress(ctx context.Context, id uuid.UUID, count int, isCompleted bool) (bool, error)
	ListProgressForScope(ctx context.Context, scope models.Scope, completedOnly bool) ([]models.ChallengeProgress, error)
}

// BuildingCatalog resolves building definitions.
type BuildingCatalog interface {
	GetBuilding(ctx context.Context, id string) (*models.Building, error)
}

// CoinLedger credits challenge rewards.
type CoinLedger interface {
	ApplyDelta(ctx context.Context, scope models.Scope, d ledger.Delta) error
}

// Notifier announces challenges to players.
type Notifier interface {
	Create(ctx context.Context, req notifications.CreateNotificationRequest) (*models.Notification, error)
}

// UserDirectory lists every registered player id.
type UserDirectory interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// LeagueDirectory lists every league id.
type LeagueDirectory interface {
	ListLeagueIDs(ctx context.Context) ([]uuid.UUID, error)
}

// App implements the challenge engine workflows.
type App struct {
	repo      ChallengesRepository
	buildings BuildingCatalog
	ledger    CoinLedger
	notifier  Notifier
	users     UserDirectory
	leagues   LeagueDirectory
	clock     clockwork.Clock
	rng       *rand.Rand
}

// NewApp creates a new challenges App with its own seeded RNG.
func NewApp(repo ChallengesRepository, buildingCatalog BuildingCatalog, coinLedger CoinLedger, notifier Notifier, users UserDirectory, leagues LeagueDirectory, clock clockwork.Clock) *App {
	src := rand.NewSource(time.Now().UnixNano())
	return &App{
		repo:      repo,
		buildings: buildingCatalog,
		ledger:    coinLedger,
		notifier:  notifier,
		users:     users,
		leagues:   leagues,
		clock:     clock,
		rng:       rand.New(src),
	}
}

// CreateChallenge generates a random building challenge, seeds a
// zero-count progress row for every player in every scope and posts a
// global announcement.
func (a *App) CreateChallenge(ctx context.Context) (*models.Challenge, error) {
	entry := catalog[a.rng.Intn(len(catalog))]
	count := a.rng.Intn(MaxCount) + 1

	building, err := a.buildings.GetBuilding(ctx, entry.BuildingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundf("no building found for the id: %s", entry.BuildingID)
		}
		return nil, fmt.Errorf("failed to validate challenge building: %w", err)
	}

	now := a.clock.Now().UTC()
	challenge := models.Challenge{
		ID:        uuid.New(),
		StartTime: now,
		EndTime:   now.Add(Duration),
		Message:   fmt.Sprintf("Build %d %s", count, entry.Description),
		Required: models.ChallengeRequirement{
			BuildingID: entry.BuildingID,
			Count:      count,
		},
		Points:  RewardPoints,
		IsEnded: false,
	}

	payload, err := json.Marshal(events.ChallengeCreatedPayload{
		ChallengeID:   challenge.ID.String(),
		BuildingID:    challenge.Required.BuildingID,
		RequiredCount: challenge.Required.Count,
		Points:        challenge.Points,
		StartTime:     challenge.StartTime,
		EndTime:       challenge.EndTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal challenge payload: %w", err)
	}

	if err := a.repo.InsertChallengeWithEvent(ctx, challenge, events.TypeChallengeCreated, payload); err != nil {
		return nil, err
	}

	if err := a.fanOutProgress(ctx, challenge); err != nil {
		return nil, err
	}

	if _, err := a.notifier.Create(ctx, notifications.CreateNotificationRequest{
		Message:          fmt.Sprintf("New eco challenge! Complete the challenge to get %d coins reward", challenge.Points),
		NotificationType: models.NotificationTypeChallenge,
		IsGlobal:         true,
	}); err != nil {
		log.Warn().Err(err).
			Str("challenge_id", challenge.ID.String()).
			Msg("failed to announce challenge")
	}

	log.Info().
		Str("challenge_id", challenge.ID.String()).
		Str("building_id", challenge.Required.BuildingID).
		Str("building_title", building.Title).
		Int("required_count", challenge.Required.Count).
		Time("end_time", challenge.EndTime).
		Msg("created challenge")

	return &challenge, nil
}

// fanOutProgress seeds zero-count progress rows for every user's global
// scope and for every (user, league) pair, in bounded batches.
func (a *App) fanOutProgress(ctx context.Context, challenge models.Challenge) error {
	userIDs, err := a.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for challenge fan-out: %w", err)
	}
	leagueIDs, err := a.leagues.ListLeagueIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list leagues for challenge fan-out: %w", err)
	}

	rows := make([]models.ChallengeProgress, 0, len(userIDs)*(len(leagueIDs)+1))
	appendRow := func(userID string, leagueID *uuid.UUID) {
		rows = append(rows, models.ChallengeProgress{
			ID:          uuid.New(),
			ChallengeID: challenge.ID,
			UserID:      userID,
			LeagueID:    leagueID,
			Progress: models.ChallengeRequirement{
				BuildingID: challenge.Required.BuildingID,
				Count:      0,
			},
			IsCompleted: false,
		})
	}

	for _, userID := range userIDs {
		appendRow(userID, nil)
	}
	for _, leagueID := range leagueIDs {
		id := leagueID
		for _, userID := range userIDs {
			appendRow(userID, &id)
		}
	}

	for start := 0; start < len(rows); start += fanOutChunk {
		end := start + fanOutChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := a.repo.InsertProgressBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}

	log.Debug().
		Str("challenge_id", challenge.ID.String()).
		Int("progress_rows", len(rows)).
		Msg("seeded challenge progress")
	return nil
}

// OnBuildingPlaced advances the scope's progress on every active
// challenge requiring the placed building type. Crossing the required
// count completes the progress and credits the reward exactly once.
func (a *App) OnBuildingPlaced(ctx context.Context, scope models.Scope, buildingID string) error {
	if _, err := a.SweepExpired(ctx); err != nil {
		return err
	}

	active, err := a.repo.ListActiveByBuilding(ctx, buildingID)
	if err != nil {
		return err
	}

	for _, challenge := range active {
		if err := a.advanceProgress(ctx, challenge, scope); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) advanceProgress(ctx context.Context, challenge models.Challenge, scope models.Scope) error {
	progress, err := a.repo.GetProgress(ctx, challenge.ID, scope)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		// Scope joined after the fan-out; start it at one.
		p := models.ChallengeProgress{
			ID:          uuid.New(),
			ChallengeID: challenge.ID,
			UserID:      scope.UserID,
			LeagueID:    scope.LeagueID,
			Progress: models.ChallengeRequirement{
				BuildingID: challenge.Required.BuildingID,
				Count:      1,
			},
			IsCompleted: challenge.Required.Count == 1,
		}
		if err := a.repo.InsertProgress(ctx, p); err != nil {
			return err
		}
		if p.IsCompleted {
			return a.award(ctx, challenge, scope)
		}
		return nil
	}

	if progress.IsCompleted {
		return nil
	}

	count := progress.Progress.Count + 1
	completed := count >= challenge.Required.Count
	updated, err := a.repo.UpdateProgress(ctx, progress.ID, count, completed)
	if err != nil {
		return err
	}
	// A lost race means another placement completed the row first and
	// the reward is theirs.
	if completed && updated {
		return a.award(ctx, challenge, scope)
	}
	return nil
}

func (a *App) award(ctx context.Context, challenge models.Challenge, scope models.Scope) error {
	if err := a.ledger.ApplyDelta(ctx, scope, ledger.Delta{Coins: challenge.Points}); err != nil {
		return fmt.Errorf("failed to credit challenge reward: %w", err)
	}

	log.Info().
		Str("challenge_id", challenge.ID.String()).
		Str("user_id", scope.UserID).
		Int64("points", challenge.Points).
		Msg("challenge completed")
	return nil
}

// SweepExpired flags every challenge whose window has closed. Returns
// the number of challenges ended.
func (a *App) SweepExpired(ctx context.Context) (int64, error) {
	ended, err := a.repo.EndExpiredBefore(ctx, a.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if ended > 0 {
		log.Info().Int64("ended", ended).Msg("ended expired challenges")
	}
	return ended, nil
}

// ActiveChallenges sweeps expiry and returns the challenges still
// running.
func (a *App) ActiveChallenges(ctx context.Context) ([]models.Challenge, error) {
	if _, err := a.SweepExpired(ctx); err != nil {
		return nil, err
	}
	return a.repo.ListUnended(ctx)
}

// CompletedChallenges returns the scope's completed progress joined
// with challenge and building detail.
func (a *App) CompletedChallenges(ctx context.Context, scope models.Scope) ([]ProgressView, error) {
	rows, err := a.repo.ListProgressForScope(ctx, scope, true)
	if err != nil {
		return nil, err
	}
	return a.enrichProgress(ctx, rows)
}

// ProgressForScope returns all of the scope's progress rows joined with
// challenge and building detail.
func (a *App) ProgressForScope(ctx context.Context, scope models.Scope) ([]ProgressView, error) {
	rows, err := a.repo.ListProgressForScope(ctx, scope, false)
	if err != nil {
		return nil, err
	}
	return a.enrichProgress(ctx, rows)
}

func (a *App) enrichProgress(ctx context.Context, rows []models.ChallengeProgress) ([]ProgressView, error) {
	views := make([]ProgressView, 0, len(rows))
	for _, p := range rows {
		challenge, err := a.repo.GetChallenge(ctx, p.ChallengeID)
		if err != nil {
			return nil, err
		}
		building, err := a.buildings.GetBuilding(ctx, p.Progress.BuildingID)
		if err != nil {
			return nil, err
		}
		views = append(views, ProgressView{
			ID:            p.ID,
			Progress:      p.Progress,
			IsCompleted:   p.IsCompleted,
			Message:       fmt.Sprintf("Build %d %s", challenge.Required.Count, building.Title),
			RequiredCount: challenge.Required.Count,
			EndTime:       challenge.EndTime,
			Points:        challenge.Points,
		})
	}
	return views, nil
}

// CreateProgress seeds a progress row explicitly; the challenge and,
// when scoped, the league must exist.
func (a *App) CreateProgress(ctx context.Context, req CreateProgressRequest) error {
	if err := a.validateCreateProgressRequest(req); err != nil {
		return err
	}

	if _, err := a.repo.GetChallenge(ctx, req.ChallengeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no challenge found for the id: %s", req.ChallengeID)
		}
		return err
	}

	return a.repo.InsertProgress(ctx, models.ChallengeProgress{
		ID:          uuid.New(),
		ChallengeID: req.ChallengeID,
		UserID:      req.UserID,
		LeagueID:    req.LeagueID,
		Progress: models.ChallengeRequirement{
			BuildingID: req.BuildingID,
			Count:      req.Count,
		},
		IsCompleted: false,
	})
}

func (a *App) validateCreateProgressRequest(req CreateProgressRequest) error {
	if req.ChallengeID == uuid.Nil {
		return apperrors.Validationf("challengeID is required")
	}
	if req.UserID == "" {
		return apperrors.Validationf("userID is required")
	}
	if req.BuildingID == "" {
		return apperrors.Validationf("buildingID is required")
	}
	if req.Count == 0 {
		return apperrors.Validationf("count is required")
	}
	return nil
}
