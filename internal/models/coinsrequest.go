package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceAmounts carries the three transferable dimensions of a coins
// request. Money maps to the coins balance field.
type ResourceAmounts struct {
	Electricity int64 `json:"electricity"`
	Water       int64 `json:"water"`
	Money       int64 `json:"money"`
}

// CoinsRequest is a standing ask for resources inside a league,
// fulfillable incrementally by peers. CoinsRequested holds the still
// outstanding amounts; once every dimension is <= 0 the request is
// accepted and stays accepted.
type CoinsRequest struct {
	ID             uuid.UUID       `json:"id"`
	LeagueID       uuid.UUID       `json:"league_id"`
	UserID         string          `json:"user_id"` // requester
	CoinsRequested ResourceAmounts `json:"coins_requested"`
	IsAccepted     bool            `json:"is_accepted"`
	CreatedAt      time.Time       `json:"created_at"`
}
