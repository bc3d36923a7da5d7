package metadata

import "time"

// Identity is the claim set extracted from a verified access token.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserContext represents the authenticated user, set by the auth guard.
type UserContext struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
