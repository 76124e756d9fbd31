package domain

import "time"

// VerificationCode is a short-lived numeric code mailed to a user to prove
// ownership of an email address during registration.
type VerificationCode struct {
	UserID    int64
	Code      string // 6 digits
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PasswordResetToken is a single-use opaque token for the forgot-password
// and post-verification create-password flows. Stored fingerprinted, like
// refresh tokens.
type PasswordResetToken struct {
	Fingerprint string
	UserID      int64
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}
