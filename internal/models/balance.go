package models

import (
	"time"

	"github.com/google/uuid"
)

// Scope identifies the owner of a resource balance: a single user
// (LeagueID nil) or a user inside a league.
type Scope struct {
	UserID   string     `json:"user_id"`
	LeagueID *uuid.UUID `json:"league_id,omitempty"`
}

// GlobalScope returns the league-less scope for a user.
func GlobalScope(userID string) Scope {
	return Scope{UserID: userID}
}

// LeagueScope returns the scope of a user inside a league.
func LeagueScope(userID string, leagueID uuid.UUID) Scope {
	return Scope{UserID: userID, LeagueID: &leagueID}
}

// Balance holds a participant's resource totals for one scope.
type Balance struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"user_id"`
	LeagueID    *uuid.UUID `json:"league_id,omitempty"`
	Coins       int64      `json:"coins"`
	EcoPoints   int64      `json:"eco_points"`
	Electricity int64      `json:"electricity"`
	Water       int64      `json:"water"`
	Garbage     int64      `json:"garbage"`
	Population  int64      `json:"population"`
	LastLogined *time.Time `json:"last_logined,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Balance defaults handed to every newly initialized scope.
const (
	DefaultCoins       int64 = 200000
	DefaultEcoPoints   int64 = 200
	DefaultElectricity int64 = 200000
	DefaultWater       int64 = 200
	DefaultGarbage     int64 = 0
	DefaultPopulation  int64 = 0
)
