package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

// UsersRepository defines what the profile workflows need from storage.
type UsersRepository interface {
	InsertProfile(ctx context.Context, p models.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SearchProfiles(ctx context.Context, term string) ([]models.UserProfile, error)
	UpdateGameMap(ctx context.Context, userID, gameInitMap string) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

// BalanceLedger lazily initializes the global balance on first detail
// fetch.
type BalanceLedger interface {
	GetOrCreate(ctx context.Context, scope models.Scope) (*models.Balance, error)
}

// App implements the user profile workflows.
type App struct {
	repo   UsersRepository
	ledger BalanceLedger
	clock  clockwork.Clock
}

// NewApp creates a new users App.
func NewApp(repo UsersRepository, balanceLedger BalanceLedger, clock clockwork.Clock) *App {
	return &App{repo: repo, ledger: balanceLedger, clock: clock}
}

// RegisterProfile creates the player profile for a verified identity.
// The identity itself lives with the auth collaborator.
func (a *App) RegisterProfile(ctx context.Context, req RegisterProfileRequest) (*models.UserProfile, error) {
	if req.UserID == "" || req.UserName == "" || req.Email == "" {
		return nil, apperrors.Validationf("userID, userName and email are required")
	}

	profile := models.UserProfile{
		UserID:      req.UserID,
		UserName:    req.UserName,
		Email:       req.Email,
		GameInitMap: "",
		CreatedAt:   a.clock.Now().UTC(),
	}
	if err := a.repo.InsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", profile.UserID).
		Str("user_name", profile.UserName).
		Msg("registered user profile")

	return &profile, nil
}

// GetProfile returns the profile for a user id.
func (a *App) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, apperrors.Validationf("userID is required")
	}

	profile, err := a.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("user doesn't exist")
		}
		return nil, err
	}
	return profile, nil
}

// SearchUsers returns profiles whose name or email contains the term.
func (a *App) SearchUsers(ctx context.Context, term string) ([]models.UserProfile, error) {
	if term == "" {
		return nil, apperrors.Validationf("name parameter is required")
	}

	profiles, err := a.repo.SearchProfiles(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, apperrors.NotFoundf("no matching users found")
	}
	return profiles, nil
}

// UpdateGameMap stores the player's serialized board. The blob is
// opaque to the backend.
func (a *App) UpdateGameMap(ctx context.Context, userID, gameInitMap string) error {
	if userID == "" {
		return apperrors.Validationf("userID is required")
	}
	if gameInitMap == "" {
		return apperrors.Validationf("game map is required")
	}

	if err := a.repo.UpdateGameMap(ctx, userID, gameInitMap); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("user doesn't exist")
		}
		return err
	}
	return nil
}

// UserDetails returns the profile and ensures the global balance exists
// so a fresh player can start with the default resources.
func (a *App) UserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	if userID == "" {
		return nil, apperrors.Validationf("userID is required")
	}

	if _, err := a.ledger.GetOrCreate(ctx, models.GlobalScope(userID)); err != nil {
		return nil, err
	}

	profile, err := a.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("user doesn't exist")
		}
		return nil, err
	}

	return &UserDetails{
		UserID:      profile.UserID,
		UserName:    profile.UserName,
		Email:       profile.Email,
		GameInitMap: profile.GameInitMap,
	}, nil
}

// ListUserIDs returns every registered user id.
func (a *App) ListUserIDs(ctx context.Context) ([]string, error) {
	return a.repo.ListUserIDs(ctx)
}
