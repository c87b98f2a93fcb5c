package challenges

import (
	"time"

	"github.com/google/uuid"

	"github.com/evergreen-games/ecocity/internal/models"
)

// Challenge timing and reward parameters. The window and reward are
// fixed for every generated challenge.
const (
	Duration     = 15 * time.Minute
	RewardPoints = 200
	MaxCount     = 9

	// fanOutChunk bounds the rows written per progress insert batch.
	fanOutChunk = 500
)

// CreateProgressRequest seeds a progress row for a scope on an existing
// challenge.
type CreateProgressRequest struct {
	ChallengeID uuid.UUID  `json:"challenge_id"`
	UserID      string     `json:"user_id"`
	LeagueID    *uuid.UUID `json:"league_id,omitempty"`
	BuildingID  string     `json:"building_id"`
	Count       int        `json:"count"`
}

// ProgressView is a progress row joined with its challenge and building
// for client display.
type ProgressView struct {
	ID            uuid.UUID                   `json:"id"`
	Progress      models.ChallengeRequirement `json:"progress"`
	IsCompleted   bool                        `json:"is_completed"`
	Message       string                      `json:"message"`
	RequiredCount int                         `json:"required_count"`
	EndTime       time.Time                   `json:"end_time"`
	Points        int64                       `json:"points"`
}
