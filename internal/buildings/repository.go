package buildings

import (
	"context"
	"fmt"

	"github.com/evergreen-games/ecocity/internal/models"
	"github.com/evergreen-games/ecocity/internal/sqlutil"
)

// Repository implements building catalog data access.
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new buildings repository.
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

const buildingColumns = `id, title, cost, earning, tax_income, resident_capacity, electricity_consumption, water_usage, waste_produce, eco_points`

// CreateBuilding upserts a catalog entry.
func (r *Repository) CreateBuilding(ctx context.Context, req CreateBuildingRequest) (*models.Building, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO buildings (`+buildingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			cost = EXCLUDED.cost,
			earning = EXCLUDED.earning,
			tax_income = EXCLUDED.tax_income,
			resident_capacity = EXCLUDED.resident_capacity,
			electricity_consumption = EXCLUDED.electricity_consumption,
			water_usage = EXCLUDED.water_usage,
			waste_produce = EXCLUDED.waste_produce,
			eco_points = EXCLUDED.eco_points`,
		req.ID, req.Title, req.Cost, req.Earning, req.TaxIncome,
		req.ResidentCapacity, req.ElectricityConsumption, req.WaterUsage,
		req.WasteProduce, req.EcoPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to create building: %w", err)
	}

	return r.GetBuilding(ctx, req.ID)
}

// GetBuilding fetches one catalog entry by building type id.
func (r *Repository) GetBuilding(ctx context.Context, id string) (*models.Building, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+buildingColumns+`
		FROM buildings
		WHERE id = $1`, id)

	var b models.Building
	err := row.Scan(
		&b.ID, &b.Title, &b.Cost, &b.Earning, &b.TaxIncome,
		&b.ResidentCapacity, &b.ElectricityConsumption, &b.WaterUsage,
		&b.WasteProduce, &b.EcoPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return &b, nil
}

// ListBuildings returns the whole catalog.
func (r *Repository) ListBuildings(ctx context.Context) ([]models.Building, error) {
	rows, err := r.db.Query(ctx, `SELECT `+buildingColumns+` FROM buildings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []models.Building
	for rows.Next() {
		var b models.Building
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Cost, &b.Earning, &b.TaxIncome,
			&b.ResidentCapacity, &b.ElectricityConsumption, &b.WaterUsage,
			&b.WasteProduce, &b.EcoPoints,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buildings, nil
}

// GetBuildingsByIDs fetches catalog entries for a set of ids.
func (r *Repository) GetBuildingsByIDs(ctx context.Context, ids []string) ([]models.Building, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+buildingColumns+`
		FROM buildings
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get buildings by ids: %w", err)
	}
	defer rows.Close()

	var buildings []models.Building
	for rows.Next() {
		var b models.Building
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Cost, &b.Earning, &b.TaxIncome,
			&b.ResidentCapacity, &b.ElectricityConsumption, &b.WaterUsage,
			&b.WasteProduce, &b.EcoPoints,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buildings, nil
}
