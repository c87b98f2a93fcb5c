package leagues

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

// LeaguesRepository defines what the league workflows need from
// storage.
type LeaguesRepository interface {
	InsertLeague(ctx context.Context, l models.League) error
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	GetLeagueByJoiningCode(ctx context.Context, code string) (*models.League, error)
	GetLeagueForUser(ctx context.Context, userID string) (*models.League, error)
	ListLeagues(ctx context.Context) ([]models.League, error)
	ListLeagueIDs(ctx context.Context) ([]uuid.UUID, error)
	AddMember(ctx context.Context, leagueID uuid.UUID, userID string) (bool, error)
	RemoveMember(ctx context.Context, leagueID uuid.UUID, userID string) error
	TransferOwnership(ctx context.Context, leagueID uuid.UUID, newOwnerID string, removeOldOwner bool) error
	DeleteLeagueCascade(ctx context.Context, leagueID uuid.UUID) error
}

// BalanceLedger initializes and reads member balances.
type BalanceLedger interface {
	GetOrCreate(ctx context.Context, scope models.Scope) (*models.Balance, error)
	Get(ctx context.Context, scope models.Scope) (*models.Balance, error)
}

// App implements the league registry workflows.
type App struct {
	repo   LeaguesRepository
	ledger BalanceLedger
	clock  clockwork.Clock
	rng    *rand.Rand
}

// NewApp creates a new leagues App with its own seeded RNG for joining
// codes.
func NewApp(repo LeaguesRepository, balanceLedger BalanceLedger, clock clockwork.Clock) *App {
	src := rand.NewSource(time.Now().UnixNano())
	return &App{
		repo:   repo,
		ledger: balanceLedger,
		clock:  clock,
		rng:    rand.New(src),
	}
}

// CreateLeague creates a league with the founder as first member and
// initializes the founder's league-scoped balance. Private leagues get
// a six digit joining code.
func (a *App) CreateLeague(ctx context.Context, req CreateLeagueRequest) (*models.League, error) {
	if err := a.validateCreateLeagueRequest(req); err != nil {
		return nil, err
	}

	var joiningCode *string
	if req.IsPrivate {
		code := fmt.Sprintf("%06d", 100000+a.rng.Intn(900000))
		joiningCode = &code
	}

	league := models.League{
		ID:              uuid.New(),
		LeagueName:      req.LeagueName,
		NumberOfPlayers: req.NumberOfPlayers,
		UserIDs:         []string{req.CreatedBy},
		CreatedBy:       req.CreatedBy,
		IsPrivate:       req.IsPrivate,
		JoiningCode:     joiningCode,
		CreatedAt:       a.clock.Now().UTC(),
	}
	if err := a.repo.InsertLeague(ctx, league); err != nil {
		return nil, err
	}

	if _, err := a.ledger.GetOrCreate(ctx, models.LeagueScope(req.CreatedBy, league.ID)); err != nil {
		return nil, fmt.Errorf("failed to init founder balance: %w", err)
	}

	log.Info().
		Str("league_id", league.ID.String()).
		Str("created_by", league.CreatedBy).
		Bool("is_private", league.IsPrivate).
		Msg("created league")

	return &league, nil
}

// GetLeagueForUser returns the league the user belongs to.
func (a *App) GetLeagueForUser(ctx context.Context, userID string) (*models.League, error) {
	if userID == "" {
		return nil, apperrors.Validationf("userID is required")
	}

	league, err := a.repo.GetLeagueForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("no league found for the given userID")
		}
		return nil, err
	}
	return league, nil
}

// JoinLeague adds the user to a public league and initializes their
// league-scoped balance.
func (a *App) JoinLeague(ctx context.Context, leagueID uuid.UUID, userID string) error {
	if userID == "" {
		return apperrors.Validationf("userID is required")
	}

	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no league found with the given leagueID")
		}
		return err
	}

	return a.join(ctx, league, userID)
}

// JoinPrivateLeague adds the user to the league carrying the joining
// code.
func (a *App) JoinPrivateLeague(ctx context.Context, joiningCode, userID string) error {
	if joiningCode == "" {
		return apperrors.Validationf("joiningCode is required")
	}
	if userID == "" {
		return apperrors.Validationf("userID is required")
	}

	league, err := a.repo.GetLeagueByJoiningCode(ctx, joiningCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no league found with the given joiningCode")
		}
		return err
	}

	return a.join(ctx, league, userID)
}

// join enforces the membership preconditions in order, then appends the
// user through the guarded update.
func (a *App) join(ctx context.Context, league *models.League, userID string) error {
	if league.HasMember(userID) {
		return apperrors.Conflictf("user already in the league")
	}
	if league.IsFull() {
		return apperrors.Conflictf("league is already full")
	}

	added, err := a.repo.AddMember(ctx, league.ID, userID)
	if err != nil {
		return err
	}
	if !added {
		// Lost the race to the last seat or a concurrent duplicate join.
		return apperrors.Conflictf("league is already full")
	}

	if _, err := a.ledger.GetOrCreate(ctx, models.LeagueScope(userID, league.ID)); err != nil {
		return fmt.Errorf("failed to init member balance: %w", err)
	}

	log.Info().
		Str("league_id", league.ID.String()).
		Str("user_id", userID).
		Msg("user joined league")
	return nil
}

// LeaveLeague drops the user from the league's membership list.
func (a *App) LeaveLeague(ctx context.Context, leagueID uuid.UUID, userID string) error {
	if userID == "" {
		return apperrors.Validationf("userID is required")
	}

	if _, err := a.repo.GetLeague(ctx, leagueID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no league found with the given leagueID")
		}
		return err
	}

	if err := a.repo.RemoveMember(ctx, leagueID, userID); err != nil {
		return err
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Str("user_id", userID).
		Msg("user left league")
	return nil
}

// TransferOwnership reassigns the league to another member. Only the
// current owner may transfer; with leave set the old owner also exits
// the membership list.
func (a *App) TransferOwnership(ctx context.Context, leagueID uuid.UUID, callerID, newOwnerID string, leave bool) error {
	if callerID == "" || newOwnerID == "" {
		return apperrors.Validationf("callerID and newOwnerID are required")
	}

	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no league found with the given leagueID")
		}
		return err
	}

	if league.CreatedBy != callerID {
		return fmt.Errorf("only the league owner may transfer ownership: %w", apperrors.ErrUnauthorized)
	}
	if !league.HasMember(newOwnerID) {
		return apperrors.Validationf("new owner must be a league member")
	}

	if err := a.repo.TransferOwnership(ctx, leagueID, newOwnerID, leave); err != nil {
		return err
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Str("old_owner", callerID).
		Str("new_owner", newOwnerID).
		Msg("transferred league ownership")
	return nil
}

// DeleteLeague removes the league and cascades its scoped balances and
// assets. Only the owner may delete.
func (a *App) DeleteLeague(ctx context.Context, leagueID uuid.UUID, callerID string) error {
	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("no league found with the given leagueID")
		}
		return err
	}

	if league.CreatedBy != callerID {
		return fmt.Errorf("only the league owner may delete the league: %w", apperrors.ErrUnauthorized)
	}

	if err := a.repo.DeleteLeagueCascade(ctx, leagueID); err != nil {
		return err
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Str("deleted_by", callerID).
		Msg("deleted league")
	return nil
}

// ListLeaguesWithPoints returns every league with its members' global
// eco scores and their average. Members without a balance count as
// zero.
func (a *App) ListLeaguesWithPoints(ctx context.Context) ([]LeagueWithPoints, error) {
	leagues, err := a.repo.ListLeagues(ctx)
	if err != nil {
		return nil, err
	}
	if len(leagues) == 0 {
		return nil, apperrors.NotFoundf("no leagues found")
	}

	out := make([]LeagueWithPoints, 0, len(leagues))
	for _, league := range leagues {
		members := make([]MemberPoints, 0, len(league.UserIDs))
		var total int64
		for _, userID := range league.UserIDs {
			var ecoPoints int64
			balance, err := a.ledger.Get(ctx, models.GlobalScope(userID))
			switch {
			case err == nil:
				ecoPoints = balance.EcoPoints
			case errors.Is(err, apperrors.ErrNotFound):
				// No balance yet counts as zero.
			default:
				return nil, err
			}
			members = append(members, MemberPoints{UserID: userID, EcoPoints: ecoPoints})
			total += ecoPoints
		}

		var average float64
		if len(members) > 0 {
			average = float64(total) / float64(len(members))
		}
		out = append(out, LeagueWithPoints{
			League:           league,
			AverageEcoPoints: average,
			MemberPoints:     members,
		})
	}
	return out, nil
}

// ListLeagueIDs returns every league id.
func (a *App) ListLeagueIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.repo.ListLeagueIDs(ctx)
}

func (a *App) validateCreateLeagueRequest(req CreateLeagueRequest) error {
	if req.CreatedBy == "" {
		return apperrors.Validationf("createdBy is required")
	}
	if req.LeagueName == "" {
		return apperrors.Validationf("leagueName is required")
	}
	if req.NumberOfPlayers <= 0 {
		return apperrors.Validationf("numberOfPlayers must be positive")
	}
	return nil
}
