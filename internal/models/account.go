package models

import "time"

// Role is the closed set of account roles. Every authorization decision
// checks against these constants, never against a free-form string.
type Role string

const (
	RoleUser      Role = "user"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCandidate, RoleAdmin:
		return true
	}
	return false
}

// Account represents a voter, candidate, or admin account.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose this to the client
	Role         Role   `json:"role"`

	// Hash of the currently live refresh token; empty when no session exists.
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
