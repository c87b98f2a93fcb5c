package assets

import (
	"github.com/google/uuid"
)

// AssetFlags carries the board-state flags of a placed asset. The zero
// value is a freshly placed, untouched asset.
type AssetFlags struct {
	IsCreated   bool `json:"is_created"`
	IsForbidden bool `json:"is_forbidden"`
	IsRotate    bool `json:"is_rotate"`
	IsDestroyed bool `json:"is_destroyed"`
}

// PlaceAssetRequest places one building instance on a scope's board.
type PlaceAssetRequest struct {
	UserID     string     `json:"user_id"`
	LeagueID   *uuid.UUID `json:"league_id,omitempty"`
	BuildingID string     `json:"building_id"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Flags      AssetFlags `json:"flags"`
}
