package buildings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

// BuildingsRepository defines what the app layer needs from the repository
type BuildingsRepository interface {
	CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*models.Building, error)
	GetBuilding(ctx context.Context, id string) (*models.Building, error)
	ListBuildings(ctx context.Context) ([]models.Building, error)
	GetBuildingsByIDs(ctx context.Context, ids []string) ([]models.Building, error)
}

// App handles the read-mostly building catalog. Entries are created by
// administrative seeding and never mutated by gameplay.
type App struct {
	repo BuildingsRepository
}

// NewApp creates a new buildings App
func NewApp(repo BuildingsRepository) *App {
	return &App{repo: repo}
}

// CreateBuilding registers a catalog entry.
func (a *App) CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*models.Building, error) {
	if req.ID == "" {
		return nil, apperrors.Validationf("id is required")
	}
	if req.Title == "" {
		return nil, apperrors.Validationf("title is required")
	}

	building, err := a.repo.CreateBuilding(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create building: %w", err)
	}

	log.Info().Str("building_id", building.ID).Str("title", building.Title).Msg("created building")
	return building, nil
}

// GetBuilding returns one catalog entry or ErrNotFound.
func (a *App) GetBuilding(ctx context.Context, id string) (*models.Building, error) {
	building, err := a.repo.GetBuilding(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundf("building %s", id)
		}
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return building, nil
}

// ListBuildings returns the full catalog.
func (a *App) ListBuildings(ctx context.Context) ([]models.Building, error) {
	buildings, err := a.repo.ListBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	return buildings, nil
}

// GetBuildingsByIDs returns the catalog entries for the given ids.
// Missing ids are skipped, not errors.
func (a *App) GetBuildingsByIDs(ctx context.Context, ids []string) ([]models.Building, error) {
	buildings, err := a.repo.GetBuildingsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get buildings: %w", err)
	}
	return buildings, nil
}
