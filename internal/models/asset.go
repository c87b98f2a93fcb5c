package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is one placed building instance on a participant's board.
type Asset struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	LeagueID    *uuid.UUID `json:"league_id,omitempty"`
	BuildingID  string     `json:"building_id"`
	X           int        `json:"x"`
	Y           int        `json:"y"`
	IsCreated   bool       `json:"is_created"`
	IsForbidden bool       `json:"is_forbidden"`
	IsRotate    bool       `json:"is_rotate"`
	IsDestroyed bool       `json:"is_destroyed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Scope returns the balance scope the asset belongs to.
func (a Asset) Scope() Scope {
	return Scope{UserID: a.UserID, LeagueID: a.LeagueID}
}
