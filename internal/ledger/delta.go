package ledger

import "github.com/evergreen-games/ecocity/internal/models"

// PlacementDelta computes the one-shot purchase delta for placing one
// instance of building b:
//
//	coins       -= (cost + taxIncome) - earning
//	ecoPoints   -= b.EcoPoints
//	electricity -= consumption
//	water       -= usage
//	garbage     += waste
//	population  += resident capacity
func PlacementDelta(b models.Building) Delta {
	return Delta{
		Coins:       -(b.Cost + b.TaxIncome - b.Earning),
		EcoPoints:   -b.EcoPoints,
		Electricity: -b.ElectricityConsumption,
		Water:       -b.WaterUsage,
		Garbage:     b.WasteProduce,
		Population:  b.ResidentCapacity,
	}
}

// RemovalDelta is the exact inverse of PlacementDelta, used when a
// placement is reversed.
func RemovalDelta(b models.Building) Delta {
	return PlacementDelta(b).Inverse()
}

// SettlementDelta is the day-scaled variant of PlacementDelta for
// periodic settlement over days: earning and tax income scale with the
// number of days. Population is counted exactly once per asset
// lifetime, so recompute passes set includePopulation to false.
func SettlementDelta(b models.Building, days int64, includePopulation bool) Delta {
	d := Delta{
		Coins:       -(b.Cost + days*b.TaxIncome - days*b.Earning),
		EcoPoints:   -b.EcoPoints,
		Electricity: -b.ElectricityConsumption,
		Water:       -b.WaterUsage,
		Garbage:     b.WasteProduce,
	}
	if includePopulation {
		d.Population = b.ResidentCapacity
	}
	return d
}
