// Seeds the building catalog from a YAML file. Rows are upserted, so
// re-running against an existing database is safe.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/evergreen-games/ecocity/internal/buildings"
	"github.com/evergreen-games/ecocity/internal/dbconfig"
)

type seedFile struct {
	Buildings []struct {
		ID                     string `yaml:"id"`
		Title                  string `yaml:"title"`
		Cost                   int64  `yaml:"cost"`
		Earning                int64  `yaml:"earning"`
		TaxIncome              int64  `yaml:"tax_income"`
		ResidentCapacity       int64  `yaml:"resident_capacity"`
		ElectricityConsumption int64  `yaml:"electricity_consumption"`
		WaterUsage             int64  `yaml:"water_usage"`
		WasteProduce           int64  `yaml:"waste_produce"`
		EcoPoints              int64  `yaml:"eco_points"`
	} `yaml:"buildings"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	path := "buildings.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), path); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
}

func run(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(seed.Buildings) == 0 {
		return fmt.Errorf("seed file %s contains no buildings", path)
	}

	pool, err := pgxpool.New(ctx, dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	app := buildings.NewApp(buildings.NewRepository(pool))
	for _, b := range seed.Buildings {
		if _, err := app.CreateBuilding(ctx, buildings.CreateBuildingRequest{
			ID:                     b.ID,
			Title:                  b.Title,
			Cost:                   b.Cost,
			Earning:                b.Earning,
			TaxIncome:              b.TaxIncome,
			ResidentCapacity:       b.ResidentCapacity,
			ElectricityConsumption: b.ElectricityConsumption,
			WaterUsage:             b.WaterUsage,
			WasteProduce:           b.WasteProduce,
			EcoPoints:              b.EcoPoints,
		}); err != nil {
			return fmt.Errorf("failed to seed building %s: %w", b.ID, err)
		}
		log.Info().Str("building_id", b.ID).Str("title", b.Title).Msg("seeded building")
	}

	log.Info().Int("count", len(seed.Buildings)).Msg("building catalog seeded")
	return nil
}
