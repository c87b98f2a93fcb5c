package models

import (
	"time"

	"github.com/google/uuid"
)

// DisasterImpact is the destruction histogram for one affected scope,
// keyed by normalized building title.
type DisasterImpact struct {
	UserID      string         `json:"user_id"`
	LeagueID    *uuid.UUID     `json:"league_id,omitempty"`
	Destruction map[string]int `json:"destruction"`
}

// Disaster is an immutable report of one destruction event. Flagging
// the destroyed assets is its only side effect on game state; balances
// are deliberately left untouched.
type Disaster struct {
	ID                      uuid.UUID        `json:"id"`
	DisasterType            string           `json:"disaster_type"`
	AffectedUsersList       []DisasterImpact `json:"affected_users_list"`
	DestroyedBuildingsCount int              `json:"destroyed_buildings_count"`
	CreatedAt               time.Time        `json:"created_at"`
}
