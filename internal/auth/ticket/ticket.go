// Package ticket issues and redeems single-use WebSocket tickets. The
// browser cannot attach an Authorization header to a WebSocket upgrade, so
// it first trades its access token for a short-lived opaque ticket and
// passes that in the upgrade query string instead.
package ticket

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMissing means no ticket id was presented at all.
	ErrMissing = errors.New("ticket: missing ticket id")

	// ErrInvalid covers unknown ids and tickets already consumed. Callers
	// get no hint which of the two happened.
	ErrInvalid = errors.New("ticket: invalid or already used")

	// ErrExpired means the ticket existed but outlived its validity.
	ErrExpired = errors.New("ticket: expired")
)

// Ticket is the identity bound to an issued ticket id.
type Ticket struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store holds pending tickets. Take must be atomic: two concurrent
// consumers of the same id must not both succeed.
type Store interface {
	// Put stores the ticket under id for at most ttl.
	Put(ctx context.Context, id string, t Ticket, ttl time.Duration) error

	// Take removes and returns the ticket. ok is false when the id is
	// unknown or was already taken.
	Take(ctx context.Context, id string) (Ticket, bool, error)
}
