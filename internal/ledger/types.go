package ledger

import "github.com/evergreen-games/ecocity/internal/models"

// Delta is a partial signed change to a balance. Zero fields leave the
// corresponding balance field untouched.
type Delta struct {
	Coins       int64 `json:"coins"`
	EcoPoints   int64 `json:"eco_points"`
	Electricity int64 `json:"electricity"`
	Water       int64 `json:"water"`
	Garbage     int64 `json:"garbage"`
	Population  int64 `json:"population"`
}

// Inverse returns the delta that undoes d.
func (d Delta) Inverse() Delta {
	return Delta{
		Coins:       -d.Coins,
		EcoPoints:   -d.EcoPoints,
		Electricity: -d.Electricity,
		Water:       -d.Water,
		Garbage:     -d.Garbage,
		Population:  -d.Population,
	}
}

// IsZero reports whether applying d would be a no-op.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Apply returns b with d added to every dimension.
func (d Delta) Apply(b models.Balance) models.Balance {
	b.Coins += d.Coins
	b.EcoPoints += d.EcoPoints
	b.Electricity += d.Electricity
	b.Water += d.Water
	b.Garbage += d.Garbage
	b.Population += d.Population
	return b
}

// UpdateBalanceRequest overwrites individual balance fields. Nil
// pointers keep the stored value.
type UpdateBalanceRequest struct {
	Coins       *int64 `json:"coins,omitempty"`
	EcoPoints   *int64 `json:"eco_points,omitempty"`
	Electricity *int64 `json:"electricity,omitempty"`
	Water       *int64 `json:"water,omitempty"`
	Garbage     *int64 `json:"garbage,omitempty"`
	Population  *int64 `json:"population,omitempty"`
}
