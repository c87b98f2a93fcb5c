package models

import (
	"time"

	"github.com/google/uuid"
)

// League is a bounded-capacity competitive group of players.
type League struct {
	ID              uuid.UUID `json:"id"`
	LeagueName      string    `json:"league_name"`
	NumberOfPlayers int       `json:"number_of_players"` // capacity
	UserIDs         []string  `json:"user_ids"`          // membership, array semantics only
	CreatedBy       string    `json:"created_by"`
	IsPrivate       bool      `json:"is_private"`
	JoiningCode     *string   `json:"joining_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasMember reports whether userID is in the membership list.
func (l League) HasMember(userID string) bool {
	for _, id := range l.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the league reached its capacity.
func (l League) IsFull() bool {
	return len(l.UserIDs) >= l.NumberOfPlayers
}
