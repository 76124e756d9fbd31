package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/directory"
	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/ratelimit"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const (
	// VerificationCodeTTL bounds how long a mailed 6-digit code stays valid.
	VerificationCodeTTL = 10 * time.Minute

	// ResetTokenTTL bounds forgot-password tokens. Same 24 hour budget as
	// the create-password flow; both are single-use anyway.
	ResetTokenTTL = 24 * time.Hour

	// CreatePasswordTTL bounds the password token minted after email
	// verification. Generous because the user may verify on one device and
	// finish signup on another.
	CreatePasswordTTL = 24 * time.Hour

	// MinPasswordLength is the bare minimum accepted at reset time.
	MinPasswordLength = 8

	loginRateLimit   = 5
	loginRateWindow  = time.Minute
	forgotRateLimit  = 3
	forgotRateWindow = time.Minute
)

var (
	ErrAuthenticationFailed = errors.New("authentication_failed")
	ErrMFARequired          = errors.New("mfa_required")
	ErrEmailNotVerified     = errors.New("email_not_verified")
	ErrAccountDisabled      = errors.New("account_disabled")
	ErrEmailTaken           = errors.New("email_taken")
	ErrCodeInvalid          = errors.New("invalid_verification_code")
	ErrResetTokenInvalid    = errors.New("invalid_reset_token")
	ErrPasswordTooShort     = errors.New("password_too_short")
)

// AuthService orchestrates registration, login and the password flows. It
// composes the token, session, and MFA services and talks to the user
// directory for account data.
type AuthService struct {
	Users    directory.Directory
	Mailer   directory.EmailSender
	Notifier directory.Notifier

	Store    store.Store
	Tokens   *TokenService
	Sessions *SessionService
	MFA      *MFAService
	Limiter  *ratelimit.Limiter

	// Now is overridable for tests.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// LoginRequest carries everything the login flow needs.
type LoginRequest struct {
	Username  string // username or email address
	Password  string
	TOTPCode  string // empty unless answering an MFA challenge
	DeviceID  string
	IP        string
	UserAgent string
}

// LoginResult is the successful outcome of a login.
type LoginResult struct {
	Tokens  *domain.TokenPair
	User    domain.User
	Session domain.UserSession
}

// Register creates a directory account with a placeholder password and
// mails a 6-digit verification code. The real password is only set after
// the email is verified.
func (s *AuthService) Register(ctx context.Context, username, email string) error {
	l := slogx.FromContext(ctx)
	now := s.now().UTC()

	// The account can't be logged into until the password flow completes:
	// the placeholder is random and never leaves the process.
	placeholder, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}
	placeholderHash, err := cryptox.HashPassword(placeholder)
	if err != nil {
		return err
	}

	user, err := s.Users.Create(ctx, directory.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: placeholderHash,
	})
	if err != nil {
		if errors.Is(err, directory.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}

	code, err := cryptox.GenerateNumericCode(6)
	if err != nil {
		return err
	}

	if err := s.Store.VerificationCodes().Put(ctx, domain.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(VerificationCodeTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	// Mail delivery is best-effort; the user can always request a resend.
	if err := s.Mailer.SendVerificationCode(ctx, email, code); err != nil {
		l.Warn("failed to send verification code", "err", err, "user_id", user.ID)
	}
	return nil
}

// ResendVerification issues a fresh code for an unverified account. Always
// succeeds from the caller's perspective so addresses can't be probed.
func (s *AuthService) ResendVerification(ctx context.Context, email, ip string) error {
	l := slogx.FromContext(ctx)
	now := s.now().UTC()

	if err := s.Limiter.Check(ctx, "forgot:"+ip, forgotRateLimit, forgotRateWindow); err != nil {
		return err
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}

	code, err := cryptox.GenerateNumericCode(6)
	if err != nil {
		return err
	}
	if err := s.Store.VerificationCodes().Put(ctx, domain.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(VerificationCodeTTL),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	if err := s.Mailer.SendVerificationCode(ctx, email, code); err != nil {
		l.Warn("failed to resend verification code", "err", err, "user_id", user.ID)
	}
	return nil
}

// VerifyEmail checks the mailed code and, on success, marks the address
// verified and returns a single-use token for setting the first password.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (string, error) {
	now := s.now().UTC()

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return "", ErrCodeInvalid
		}
		return "", err
	}

	stored, err := s.Store.VerificationCodes().Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrCodeInvalid
		}
		return "", err
	}
	if now.After(stored.ExpiresAt) {
		return "", ErrCodeInvalid
	}
	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		return "", ErrCodeInvalid
	}

	if err := s.Users.MarkEmailVerified(ctx, user.ID); err != nil {
		return "", err
	}
	if err := s.Store.VerificationCodes().Delete(ctx, user.ID); err != nil {
		return "", err
	}

	return s.mintPasswordToken(ctx, user.ID, CreatePasswordTTL)
}

// EmailAvailable reports whether an address is free to register.
func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	_, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, directory.ErrUserNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Login authenticates a user and opens a device session. The flow is
// rate limited per client IP; failures share one error so callers cannot
// distinguish a wrong password from an unknown username.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	l := slogx.FromContext(ctx)

	if err := s.Limiter.Check(ctx, "login:"+req.IP, loginRateLimit, loginRateWindow); err != nil {
		return nil, err
	}

	// The identifier may be a username or an email address; try the
	// username first and fall back to an address lookup.
	user, err := s.Users.GetByUsername(ctx, req.Username)
	if errors.Is(err, directory.ErrUserNotFound) {
		user, err = s.Users.GetByEmail(ctx, req.Username)
	}
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		l.Info("login password mismatch", "user_id", user.ID)
		return nil, ErrAuthenticationFailed
	}

	// Account state checks come after the password so the rejection leaks
	// nothing to a guesser who doesn't hold the credentials.
	if !user.Enabled || user.Locked {
		return nil, ErrAccountDisabled
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	mfaEnabled, err := s.MFA.Enabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if mfaEnabled {
		if req.TOTPCode == "" {
			return nil, ErrMFARequired
		}
		if err := s.MFA.VerifyCode(ctx, user.ID, req.TOTPCode); err != nil {
			return nil, err
		}
	}

	sess, err := s.Sessions.RecordLogin(ctx, user, req.DeviceID, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	pair, err := s.Tokens.Issue(ctx, user, req.DeviceID)
	if err != nil {
		return nil, err
	}

	if err := s.Notifier.NotifyLogin(ctx, user.ID, req.DeviceID, req.IP); err != nil {
		l.Warn("login notification failed", "err", err, "user_id", user.ID)
	}

	user.PasswordHash = ""
	return &LoginResult{Tokens: pair, User: user, Session: sess}, nil
}

// Refresh rotates the refresh token and bumps the device's session.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	fp := cryptox.FingerprintToken(refreshOpaque)
	current, err := s.Store.RefreshTokens().GetByFingerprint(ctx, fp)

	pair, rerr := s.Tokens.Refresh(ctx, refreshOpaque)
	if rerr != nil {
		return nil, rerr
	}

	if err == nil && current.DeviceID != "" {
		if terr := s.Sessions.TouchByDevice(ctx, current.UserID, current.DeviceID); terr != nil {
			slogx.FromContext(ctx).Warn("session touch failed", "err", terr)
		}
	}
	return pair, nil
}

// Logout revokes the presented refresh token and the device's session.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)

	current, err := s.Store.RefreshTokens().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil // idempotent
		}
		return err
	}

	// Logout stays idempotent even if the token vanishes between the
	// lookup and the revoke.
	if err := s.Tokens.Revoke(ctx, refreshOpaque); err != nil && !errors.Is(err, ErrTokenInvalid) {
		return err
	}
	if current.DeviceID != "" {
		return s.Sessions.RevokeByDevice(ctx, current.UserID, current.DeviceID)
	}
	return nil
}

// LogoutAll revokes every token and session the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.Tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	return s.Sessions.RevokeAll(ctx, userID)
}

// LogoutDevice revokes the tokens and session of one device only.
func (s *AuthService) LogoutDevice(ctx context.Context, userID int64, deviceID string) error {
	if err := s.Tokens.RevokeForDevice(ctx, userID, deviceID); err != nil {
		return err
	}
	return s.Sessions.RevokeByDevice(ctx, userID, deviceID)
}

// ForgotPassword mails a reset link. The response never reveals whether
// the address exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ip string) error {
	l := slogx.FromContext(ctx)

	if err := s.Limiter.Check(ctx, "forgot:"+ip, forgotRateLimit, forgotRateWindow); err != nil {
		return err
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil
		}
		return err
	}

	raw, err := s.mintPasswordToken(ctx, user.ID, ResetTokenTTL)
	if err != nil {
		return err
	}

	if err := s.Mailer.SendPasswordReset(ctx, email, raw); err != nil {
		l.Warn("failed to send password reset", "err", err, "user_id", user.ID)
	}
	return nil
}

// ResetPassword consumes a password token (from forgot-password or email
// verification) and sets the new password. Every token and session the
// user holds is revoked afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	now := s.now().UTC()

	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	fp := cryptox.FingerprintToken(rawToken)

	tok, err := s.Store.ResetTokens().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if tok.UsedAt != nil || now.After(tok.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	// MarkUsed is the race gate: a concurrent consume of the same token
	// sees zero rows updated and fails.
	if err := s.Store.ResetTokens().MarkUsed(ctx, fp, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.SetPasswordHash(ctx, tok.UserID, hash); err != nil {
		return err
	}

	return s.LogoutAll(ctx, tok.UserID)
}

func (s *AuthService) mintPasswordToken(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	now := s.now().UTC()

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	if err := s.Store.ResetTokens().Create(ctx, domain.PasswordResetToken{
		Fingerprint: cryptox.FingerprintToken(raw),
		UserID:      userID,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}); err != nil {
		return "", err
	}
	return raw, nil
}
