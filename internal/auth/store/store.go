package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable, and to actively stop callers from accidentally
// starting transactions within transactions.
type Store interface {
	RefreshTokens() RefreshTokens
	Sessions() Sessions
	MFASecrets() MFASecrets
	VerificationCodes() VerificationCodes
	ResetTokens() ResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type RefreshTokens interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, t domain.RefreshToken) error

	// GetByFingerprint returns the token by its fingerprint.
	GetByFingerprint(ctx context.Context, fp string) (domain.RefreshToken, error)

	// Revoke flips revoked=1 for the token with the given id.
	Revoke(ctx context.Context, id idx.ID) error

	// RevokeAllForUser bulk-revokes every live token for a user (e.g.,
	// password reset, logout-all).
	RevokeAllForUser(ctx context.Context, userID int64) error

	// RevokeForDevice revokes live tokens for a (user, device) pair.
	RevokeForDevice(ctx context.Context, userID int64, deviceID string) error

	// DeleteExpired removes expired and revoked rows (housekeeping).
	DeleteExpired(ctx context.Context, before time.Time) error
}

type Sessions interface {
	// Create inserts a new session record.
	Create(ctx context.Context, s domain.UserSession) error

	// GetByID returns one session regardless of state.
	GetByID(ctx context.Context, id idx.ID) (domain.UserSession, error)

	// ListActiveForUser returns non-revoked sessions, newest first.
	ListActiveForUser(ctx context.Context, userID int64) ([]domain.UserSession, error)

	// RevokeByID marks one session revoked.
	RevokeByID(ctx context.Context, id idx.ID) error

	// RevokeForDevice revokes active sessions for a (user, device) pair.
	// A login from an already-known device goes through here first.
	RevokeForDevice(ctx context.Context, userID int64, deviceID string) error

	// RevokeAllForUser marks every active session for the user revoked.
	RevokeAllForUser(ctx context.Context, userID int64) error

	// Touch bumps last_seen_at for an active session.
	Touch(ctx context.Context, id idx.ID, at time.Time) error

	// TouchForDevice bumps last_seen_at for the device's active session.
	// Refresh flows only know the device, not the session id.
	TouchForDevice(ctx context.Context, userID int64, deviceID string, at time.Time) error

	// DeleteRevoked removes revoked sessions older than the cutoff.
	DeleteRevoked(ctx context.Context, before time.Time) error
}

type MFASecrets interface {
	// Upsert stores or replaces a user's TOTP secret. Replacing resets the
	// confirmation state.
	Upsert(ctx context.Context, s domain.MFASecret) error

	// GetByUserID returns a user's secret, confirmed or not.
	GetByUserID(ctx context.Context, userID int64) (domain.MFASecret, error)

	// Confirm marks the secret enabled and stamps confirmed_at. Also used
	// to bump the stamp on later successful verifications.
	Confirm(ctx context.Context, userID int64, at time.Time) error

	// Disable clears the enabled flag and the confirmation stamp but
	// keeps the secret row so the enrollment survives an MFA disable.
	Disable(ctx context.Context, userID int64) error
}

type VerificationCodes interface {
	// Put stores a code for a user, replacing any previous one.
	Put(ctx context.Context, c domain.VerificationCode) error

	// Get returns the current code for a user.
	Get(ctx context.Context, userID int64) (domain.VerificationCode, error)

	// Delete removes the user's code after successful verification.
	Delete(ctx context.Context, userID int64) error

	// DeleteExpired removes stale codes (housekeeping).
	DeleteExpired(ctx context.Context, before time.Time) error
}

type ResetTokens interface {
	// Create stores a fingerprinted single-use password token.
	Create(ctx context.Context, t domain.PasswordResetToken) error

	// GetByFingerprint returns the token record, used or not.
	GetByFingerprint(ctx context.Context, fp string) (domain.PasswordResetToken, error)

	// MarkUsed consumes the token. Returns ErrNotFound if the token was
	// already used, which makes consumption race-safe inside a Tx.
	MarkUsed(ctx context.Context, fp string, at time.Time) error

	// DeleteExpired removes stale tokens (housekeeping).
	DeleteExpired(ctx context.Context, before time.Time) error
}
