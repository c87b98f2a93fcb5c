package users

// RegisterProfileRequest creates a player profile for a verified
// identity.
type RegisterProfileRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// UserDetails is a profile joined with its lazily initialized global
// balance.
type UserDetails struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Email       string `json:"email"`
	GameInitMap string `json:"game_init_map"`
}
