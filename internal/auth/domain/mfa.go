package domain

import "time"

// MFASecret is a user's stored TOTP secret. A secret starts unconfirmed
// after setup and only gates logins once the user proves possession by
// submitting a valid code.
type MFASecret struct {
	UserID      int64
	Secret      string // base32, no padding
	Enabled     bool
	CreatedAt   time.Time
	ConfirmedAt *time.Time // bumped on every successful verification
}

// MFASetupResponse is returned when a user enrolls in TOTP.
type MFASetupResponse struct {
	Secret     string `json:"secret"`      // base32 encoded secret
	OtpauthURL string `json:"otpauth_url"` // otpauth:// URL for QR code generation
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
}

// MFAStatus reports whether a user has TOTP configured and confirmed,
// and when a code last verified successfully.
type MFAStatus struct {
	Configured     bool       `json:"configured"`
	Enabled        bool       `json:"enabled"`
	Verified       bool       `json:"verified"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}
