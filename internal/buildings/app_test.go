package buildings

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/evergreen-games/ecocity/internal/apperrors"
	"github.com/evergreen-games/ecocity/internal/models"
)

type fakeBuildingsRepo struct {
	buildings map[string]models.Building
}

func newFakeBuildingsRepo() *fakeBuildingsRepo {
	return &fakeBuildingsRepo{buildings: make(map[string]models.Building)}
}

func (f *fakeBuildingsRepo) CreateBuilding(_ context.Context, req CreateBuildingRequest) (*models.Building, error) {
	b := models.Building{
		ID:                     req.ID,
		Title:                  req.Title,
		Cost:                   req.Cost,
		Earning:                req.Earning,
		TaxIncome:              req.TaxIncome,
		ResidentCapacity:       req.ResidentCapacity,
		ElectricityConsumption: req.ElectricityConsumption,
		WaterUsage:             req.WaterUsage,
		WasteProduce:           req.WasteProduce,
		EcoPoints:              req.EcoPoints,
	}
	f.buildings[b.ID] = b
	return &b, nil
}

func (f *fakeBuildingsRepo) GetBuilding(_ context.Context, id string) (*models.Building, error) {
	b, ok := f.buildings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (f *fakeBuildingsRepo) ListBuildings(_ context.Context) ([]models.Building, error) {
	var out []models.Building
	for _, b := range f.buildings {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBuildingsRepo) GetBuildingsByIDs(_ context.Context, ids []string) ([]models.Building, error) {
	var out []models.Building
	for _, id := range ids {
		if b, ok := f.buildings[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestCreateBuildingValidation(t *testing.T) {
	t.Parallel()

	app := NewApp(newFakeBuildingsRepo())

	if _, err := app.CreateBuilding(context.Background(), CreateBuildingRequest{Title: "x"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing id, got %v", err)
	}
	if _, err := app.CreateBuilding(context.Background(), CreateBuildingRequest{ID: "3"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}
}

func TestGetBuildingMapsMissingToNotFound(t *testing.T) {
	t.Parallel()

	repo := newFakeBuildingsRepo()
	app := NewApp(repo)

	if _, err := app.CreateBuilding(context.Background(), CreateBuildingRequest{ID: "3", Title: "HouseAs", Cost: 100}); err != nil {
		t.Fatalf("CreateBuilding failed: %v", err)
	}

	b, err := app.GetBuilding(context.Background(), "3")
	if err != nil {
		t.Fatalf("GetBuilding failed: %v", err)
	}
	if b.Title != "HouseAs" || b.Cost != 100 {
		t.Fatalf("unexpected building %+v", b)
	}

	if _, err := app.GetBuilding(context.Background(), "99"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBuildingsByIDsSkipsMissing(t *testing.T) {
	t.Parallel()

	repo := newFakeBuildingsRepo()
	app := NewApp(repo)

	for _, seed := range []CreateBuildingRequest{
		{ID: "3", Title: "HouseAs"},
		{ID: "7", Title: "Factory"},
	} {
		if _, err := app.CreateBuilding(context.Background(), seed); err != nil {
			t.Fatalf("seed %s: %v", seed.ID, err)
		}
	}

	got, err := app.GetBuildingsByIDs(context.Background(), []string{"3", "99", "7"})
	if err != nil {
		t.Fatalf("GetBuildingsByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d buildings, want 2", len(got))
	}
}
