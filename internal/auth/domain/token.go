package domain

import (
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

// TokenPair represents what the login and refresh endpoints return the
// short-lived access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}

// RefreshToken models the stored refresh token record in the DB. Only the
// fingerprint of the opaque token is stored; the raw token leaves the
// process exactly once, in the issue response.
type RefreshToken struct {
	ID          idx.ID
	UserID      int64
	Username    string // denormalized so refresh can mint claims without a directory call
	Fingerprint string // base64url SHA-256 of the raw token
	DeviceID    string // empty when the client did not identify a device
	ExpiresAt   time.Time
	Revoked     bool
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token passed its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
