package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid_totp_code")
	ErrMFANotConfigured  = errors.New("mfa_not_configured")
	ErrMFAAlreadyEnabled = errors.New("mfa_already_enabled")
)

// totpOpts are the RFC 6238 parameters every authenticator app defaults
// to. One period of skew is accepted either way to absorb clock drift.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// MFAService manages TOTP enrollment and verification. Enrolling stores an
// unconfirmed secret; only a confirmed secret gates logins.
type MFAService struct {
	Store  store.Store
	Issuer string // issuer name shown in authenticator apps

	// Now is overridable for tests.
	Now func() time.Time
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Setup generates a TOTP secret for the user and returns it with the
// otpauth URL. This does NOT enable MFA yet - the user must confirm a code
// first. Calling Setup again before confirming replaces the secret.
func (s *MFAService) Setup(ctx context.Context, userID int64, username string) (domain.MFASetupResponse, error) {
	existing, err := s.Store.MFASecrets().GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.MFASetupResponse{}, fmt.Errorf("failed to get MFA secret: %w", err)
	}
	if err == nil && existing.Enabled {
		return domain.MFASetupResponse{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: username,
		SecretSize:  20,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFASetupResponse{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if err := s.Store.MFASecrets().Upsert(ctx, domain.MFASecret{
		UserID:    userID,
		Secret:    key.Secret(),
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return domain.MFASetupResponse{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFASetupResponse{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
		Issuer:     s.Issuer,
		Account:    username,
	}, nil
}

// Confirm enables MFA once the user proves they captured the secret by
// submitting a valid code.
func (s *MFAService) Confirm(ctx context.Context, userID int64, code string) error {
	secret, err := s.Store.MFASecrets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMFANotConfigured
		}
		return err
	}
	if secret.Enabled {
		return ErrMFAAlreadyEnabled
	}

	if !s.validate(code, secret.Secret) {
		return ErrInvalidTOTPCode
	}
	return s.Store.MFASecrets().Confirm(ctx, userID, s.now().UTC())
}

// VerifyCode checks a login-time TOTP code against the user's confirmed
// secret.
func (s *MFAService) VerifyCode(ctx context.Context, userID int64, code string) error {
	secret, err := s.Store.MFASecrets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMFANotConfigured
		}
		return err
	}
	if !secret.Enabled {
		return ErrMFANotConfigured
	}

	if !s.validate(code, secret.Secret) {
		return ErrInvalidTOTPCode
	}
	// Every successful verification bumps the stamp. Confirm is a no-op on
	// the enabled flag here since the secret is already enabled.
	return s.Store.MFASecrets().Confirm(ctx, userID, s.now().UTC())
}

// Enabled reports whether the user has confirmed MFA.
func (s *MFAService) Enabled(ctx context.Context, userID int64) (bool, error) {
	secret, err := s.Store.MFASecrets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return secret.Enabled, nil
}

// Status returns the enrollment state for the settings page.
func (s *MFAService) Status(ctx context.Context, userID int64) (domain.MFAStatus, error) {
	secret, err := s.Store.MFASecrets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.MFAStatus{}, nil
		}
		return domain.MFAStatus{}, err
	}
	return domain.MFAStatus{
		Configured:     true,
		Enabled:        secret.Enabled,
		Verified:       secret.ConfirmedAt != nil,
		LastVerifiedAt: secret.ConfirmedAt,
	}, nil
}

// Disable turns MFA off, clearing the enabled flag and the verification
// stamp but keeping the secret row. A valid current code is required so a
// hijacked session can't silently strip MFA.
func (s *MFAService) Disable(ctx context.Context, userID int64, code string) error {
	if err := s.VerifyCode(ctx, userID, code); err != nil {
		return err
	}
	return s.Store.MFASecrets().Disable(ctx, userID)
}

func (s *MFAService) validate(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), totpOpts)
	return err == nil && ok
}
