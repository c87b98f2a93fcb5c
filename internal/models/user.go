package models

import "time"

// UserProfile is the game-side record for an authenticated user. The
// id is issued by the external identity provider and treated as opaque.
type UserProfile struct {
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Email       string    `json:"email"`
	GameInitMap string    `json:"game_init_map"` // opaque board blob
	CreatedAt   time.Time `json:"created_at"`
}
