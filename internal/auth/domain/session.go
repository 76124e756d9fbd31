package domain

import (
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

// UserSession records one authenticated device for a user. At most one
// active session exists per (user, device) pair; logging in again from the
// same device revokes the previous session.
type UserSession struct {
	ID         idx.ID     `json:"id"`
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	DeviceID   string     `json:"device_id,omitempty"` // empty for clients that do not send a device id
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session has not been revoked.
func (s *UserSession) Active() bool {
	return s.RevokedAt == nil
}
