package leagues

import (
	"github.com/evergreen-games/ecocity/internal/models"
)

// CreateLeagueRequest creates a league with the founder as its first
// member.
type CreateLeagueRequest struct {
	LeagueName      string `json:"league_name"`
	NumberOfPlayers int    `json:"number_of_players"`
	CreatedBy       string `json:"created_by"`
	IsPrivate       bool   `json:"is_private"`
}

// MemberPoints is one member's eco score inside a league listing.
type MemberPoints struct {
	UserID    string `json:"user_id"`
	EcoPoints int64  `json:"eco_points"`
}

// LeagueWithPoints is a league joined with its members' eco scores.
type LeagueWithPoints struct {
	League           models.League  `json:"league"`
	AverageEcoPoints float64        `json:"average_eco_points"`
	MemberPoints     []MemberPoints `json:"member_points"`
}
