// Package directory defines the collaborator services the auth service
// talks to over HTTP: the user directory that owns account rows, the
// mailer that delivers codes and reset links, and the notifier for login
// alerts. The auth service stores no user records itself.
package directory

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

var (
	// ErrUserNotFound maps the directory's 404.
	ErrUserNotFound = errors.New("directory: user not found")

	// ErrConflict maps the directory's 409 (username or email taken).
	ErrConflict = errors.New("directory: username or email already in use")

	// ErrUnavailable covers transport failures and 5xx responses.
	ErrUnavailable = errors.New("directory: service unavailable")
)

// NewUser is the payload for account creation. The password hash is a
// placeholder at registration time; the real one lands after email
// verification.
type NewUser struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// Directory is the user store the auth service authenticates against.
type Directory interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	Create(ctx context.Context, u NewUser) (domain.User, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
	MarkEmailVerified(ctx context.Context, userID int64) error
}

// EmailSender delivers transactional mail. Failures are logged by callers
// and never fail the triggering request, so a mail outage can't be used to
// probe which addresses exist.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Notifier raises out-of-band alerts, e.g. a login from a new device.
type Notifier interface {
	NotifyLogin(ctx context.Context, userID int64, deviceID, ip string) error
}
