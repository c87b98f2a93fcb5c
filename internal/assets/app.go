package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/ledger"
	"github.com/evergreen-games/ecocity/internal/models"
)

// houseBuildingID is the only building type whose removal refunds the
// placement delta. Other removals leave the balance untouched.
const houseBuildingID = "3"

// AssetsRepository defines what the asset workflows need from storage.
type AssetsRepository interface {
	InsertAsset(ctx context.Context, a models.Asset) error
	ListAssets(ctx context.Context, scope models.Scope) ([]models.Asset, error)
	FindFirstActive(ctx context.Context, scope models.Scope, buildingID string) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	DeleteAt(ctx context.Context, scope models.Scope, buildingID string, x, y int) (int64, error)
}

// BuildingCatalog resolves building definitions.
type BuildingCatalog interface {
	GetBuilding(ctx context.Context, id string) (*models.Building, error)
}

// BalanceLedger settles placement costs against the scope's balance.
type BalanceLedger interface {
	GetOrCreate(ctx context.Context, scope models.Scope) (*models.Balance, error)
	ApplyDelta(ctx context.Context, scope models.Scope, d ledger.Delta) error
}

// ChallengeTracker observes building placements for challenge progress.
type ChallengeTracker interface {
	OnBuildingPlaced(ctx context.Context, scope models.Scope, buildingID string) error
}

// App implements the asset registry workflows.
type App struct {
	repo       AssetsRepository
	buildings  BuildingCatalog
	ledger     BalanceLedger
	challenges ChallengeTracker
	clock      clockwork.Clock
}

// NewApp creates a new assets App.
func NewApp(repo AssetsRepository, buildingCatalog BuildingCatalog, balanceLedger BalanceLedger, challengeTracker ChallengeTracker, clock clockwork.Clock) *App {
	return &App{
		repo:       repo,
		buildings:  buildingCatalog,
		ledger:     balanceLedger,
		challenges: challengeTracker,
		clock:      clock,
	}
}

// PlaceAsset records a building placement on the scope's board,
// advances challenge progress and settles the placement cost.
func (a *App) PlaceAsset(ctx context.Context, req PlaceAssetRequest) (*models.Asset, error) {
	if err := a.validatePlaceAssetRequest(req); err != nil {
		return nil, err
	}

	building, err := a.buildings.GetBuilding(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}

	asset := models.Asset{
		ID:          uuid.New(),
		UserID:      req.UserID,
		LeagueID:    req.LeagueID,
		BuildingID:  req.BuildingID,
		X:           req.X,
		Y:           req.Y,
		IsCreated:   req.Flags.IsCreated,
		IsForbidden: req.Flags.IsForbidden,
		IsRotate:    req.Flags.IsRotate,
		IsDestroyed: req.Flags.IsDestroyed,
		CreatedAt:   a.clock.Now().UTC(),
	}
	if err := a.repo.InsertAsset(ctx, asset); err != nil {
		return nil, err
	}

	scope := asset.Scope()

	// The balance row must exist before challenge tracking runs: a
	// completing placement credits the reward through the ledger, and
	// the award is not retried.
	if _, err := a.ledger.GetOrCreate(ctx, scope); err != nil {
		return nil, fmt.Errorf("failed to init balance for placement: %w", err)
	}

	// Challenge tracking must not block the placement.
	if err := a.challenges.OnBuildingPlaced(ctx, scope, asset.BuildingID); err != nil {
		log.Warn().Err(err).
			Str("user_id", scope.UserID).
			Str("building_id", asset.BuildingID).
			Msg("failed to advance challenge progress")
	}

	if err := a.ledger.ApplyDelta(ctx, scope, ledger.PlacementDelta(*building)); err != nil {
		return nil, fmt.Errorf("failed to settle placement: %w", err)
	}

	log.Info().
		Str("asset_id", asset.ID.String()).
		Str("user_id", scope.UserID).
		Str("building_id", asset.BuildingID).
		Int("x", asset.X).
		Int("y", asset.Y).
		Msg("placed asset")

	return &asset, nil
}

// ListAssets returns the scope's board. A scope with no assets is
// reported as not found, not as an empty board.
func (a *App) ListAssets(ctx context.Context, scope models.Scope) ([]models.Asset, error) {
	assets, err := a.repo.ListAssets(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, apperrors.NotFoundf("no assets found")
	}
	return assets, nil
}

// RemoveAsset deletes the scope's oldest non-destroyed asset of the
// building type. House removals refund the placement delta first.
func (a *App) RemoveAsset(ctx context.Context, scope models.Scope, buildingID string) error {
	if buildingID == "" {
		return apperrors.Validationf("buildingID is required")
	}

	asset, err := a.repo.FindFirstActive(ctx, scope, buildingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFoundf("asset not found")
		}
		return err
	}

	if buildingID == houseBuildingID {
		building, err := a.buildings.GetBuilding(ctx, buildingID)
		if err != nil {
			return err
		}
		if err := a.ledger.ApplyDelta(ctx, scope, ledger.RemovalDelta(*building)); err != nil {
			return fmt.Errorf("failed to refund removal: %w", err)
		}
	}

	if err := a.repo.DeleteAsset(ctx, asset.ID); err != nil {
		return err
	}

	log.Info().
		Str("asset_id", asset.ID.String()).
		Str("user_id", scope.UserID).
		Str("building_id", buildingID).
		Msg("removed asset")
	return nil
}

// RemoveAssetAt deletes every asset of the building type at the board
// position. No balance adjustment is made.
func (a *App) RemoveAssetAt(ctx context.Context, scope models.Scope, buildingID string, x, y int) error {
	if buildingID == "" {
		return apperrors.Validationf("buildingID is required")
	}

	removed, err := a.repo.DeleteAt(ctx, scope, buildingID, x, y)
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperrors.NotFoundf("asset not found")
	}

	log.Info().
		Str("user_id", scope.UserID).
		Str("building_id", buildingID).
		Int("x", x).
		Int("y", y).
		Int64("removed", removed).
		Msg("removed assets at position")
	return nil
}

func (a *App) validatePlaceAssetRequest(req PlaceAssetRequest) error {
	if req.UserID == "" {
		return apperrors.Validationf("userID is required")
	}
	if req.BuildingID == "" {
		return apperrors.Validationf("buildingID is required")
	}
	if req.X < 0 || req.Y < 0 {
		return apperrors.Validationf("position must not be negative")
	}
	return nil
}
