package models

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeRequirement names the building type and how many placements
// complete the challenge.
type ChallengeRequirement struct {
	BuildingID string `json:"building_id"`
	Count      int    `json:"count"`
}

// Challenge is a time-boxed building objective. It transitions
// isEnded false -> true exactly once, lazily, when any read of active
// challenges observes the end time has passed.
type Challenge struct {
	ID        uuid.UUID            `json:"id"`
	StartTime time.Time            `json:"start_time"`
	EndTime   time.Time            `json:"end_time"`
	LeagueID  *uuid.UUID           `json:"league_id,omitempty"`
	Message   string               `json:"message"`
	Required  ChallengeRequirement `json:"required"`
	Points    int64                `json:"points"`
	IsEnded   bool                 `json:"is_ended"`
}

// ChallengeProgress tracks one scope's count toward a challenge.
// Count never decreases and IsCompleted never reverts.
type ChallengeProgress struct {
	ID          uuid.UUID            `json:"id"`
	ChallengeID uuid.UUID            `json:"challenge_id"`
	UserID      string               `json:"user_id"`
	LeagueID    *uuid.UUID           `json:"league_id,omitempty"`
	Progress    ChallengeRequirement `json:"progress"`
	IsCompleted bool                 `json:"is_completed"`
}
