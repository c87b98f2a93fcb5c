package ledger

import (
	"testing"

	"github.com/evergreen-games/ecocity/internal/models"
)

func houseBuilding() models.Building {
	return models.Building{
		ID:                     "3",
		Title:                  "HouseAs",
		Cost:                   100,
		Earning:                0,
		TaxIncome:              10,
		ResidentCapacity:       4,
		ElectricityConsumption: 20,
		WaterUsage:             5,
		WasteProduce:           2,
		EcoPoints:              5,
	}
}

func defaultBalance() models.Balance {
	return models.Balance{
		UserID:      "user-1",
		Coins:       models.DefaultCoins,
		EcoPoints:   models.DefaultEcoPoints,
		Electricity: models.DefaultElectricity,
		Water:       models.DefaultWater,
		Garbage:     models.DefaultGarbage,
		Population:  models.DefaultPopulation,
	}
}

func TestPlacementDeltaHouse(t *testing.T) {
	t.Parallel()

	got := PlacementDelta(houseBuilding()).Apply(defaultBalance())

	if got.Coins != 199890 {
		t.Fatalf("coins = %d, want 199890", got.Coins)
	}
	if got.EcoPoints != 195 {
		t.Fatalf("eco points = %d, want 195", got.EcoPoints)
	}
	if got.Electricity != 199980 {
		t.Fatalf("electricity = %d, want 199980", got.Electricity)
	}
	if got.Water != 195 {
		t.Fatalf("water = %d, want 195", got.Water)
	}
	if got.Garbage != 2 {
		t.Fatalf("garbage = %d, want 2", got.Garbage)
	}
	if got.Population != 4 {
		t.Fatalf("population = %d, want 4", got.Population)
	}
}

func TestPlacementDeltaEarningOffsetsCost(t *testing.T) {
	t.Parallel()

	b := models.Building{ID: "7", Title: "Factory", Cost: 1000, Earning: 120}
	d := PlacementDelta(b)
	if d.Coins != -880 {
		t.Fatalf("coins delta = %d, want -880", d.Coins)
	}
}

func TestRemovalDeltaInvertsPlacement(t *testing.T) {
	t.Parallel()

	start := defaultBalance()
	b := houseBuilding()

	after := RemovalDelta(b).Apply(PlacementDelta(b).Apply(start))
	if after != start {
		t.Fatalf("removal after placement changed the balance: got %+v, want %+v", after, start)
	}
}

func TestSettlementDeltaScalesIncomeByDays(t *testing.T) {
	t.Parallel()

	b := houseBuilding()

	tests := []struct {
		name              string
		days              int64
		includePopulation bool
		wantCoins         int64
		wantPopulation    int64
	}{
		{name: "one day with population", days: 1, includePopulation: true, wantCoins: -110, wantPopulation: 4},
		{name: "three days recompute", days: 3, includePopulation: false, wantCoins: -130, wantPopulation: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := SettlementDelta(b, tt.days, tt.includePopulation)
			if d.Coins != tt.wantCoins {
				t.Fatalf("coins delta = %d, want %d", d.Coins, tt.wantCoins)
			}
			if d.Population != tt.wantPopulation {
				t.Fatalf("population delta = %d, want %d", d.Population, tt.wantPopulation)
			}
		})
	}
}

func TestDeltaIsZero(t *testing.T) {
	t.Parallel()

	if !(Delta{}).IsZero() {
		t.Fatal("empty delta should be zero")
	}
	if (Delta{Garbage: 1}).IsZero() {
		t.Fatal("non-empty delta should not be zero")
	}
}
