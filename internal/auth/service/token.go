package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/directory"
	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

var (
	ErrTokenInvalid = errors.New("invalid_token")
	ErrTokenRevoked = errors.New("token_revoked")
	ErrTokenExpired = errors.New("token_expired")
)

// TokenService mints access tokens and manages the refresh token rotation
// cycle. Refresh tokens are opaque; only their fingerprint is stored.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Users    directory.Directory

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue creates a fresh token pair for an authenticated user. Any live
// refresh token for the same (user, device) is revoked first so a device
// holds at most one usable refresh token.
func (s *TokenService) Issue(ctx context.Context, user domain.User, deviceID string) (*domain.TokenPair, error) {
	now := s.now()

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:          idx.New(),
		UserID:      user.ID,
		Username:    user.Username,
		Fingerprint: cryptox.FingerprintToken(refreshOpaque),
		DeviceID:    deviceID,
		ExpiresAt:   now.Add(s.RefreshTTL),
		CreatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if deviceID != "" {
			if err := tx.RefreshTokens().RevokeForDevice(ctx, user.ID, deviceID); err != nil {
				return err
			}
		}
		return tx.RefreshTokens().Create(ctx, rt)
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued in the same transaction, so a replayed token fails
// cleanly with ErrTokenRevoked. Roles and permissions are re-read from the
// directory so an access token never outlives a role change by more than
// one refresh.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	fp := cryptox.FingerprintToken(refreshOpaque)

	current, err := s.Store.RefreshTokens().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if current.Revoked {
		// A revoked token being replayed may mean theft; drop everything
		// for this user as a precaution.
		l.Warn("revoked refresh token replayed, revoking all user tokens",
			"user_id", current.UserID)
		_ = s.Store.RefreshTokens().RevokeAllForUser(ctx, current.UserID)
		return nil, ErrTokenRevoked
	}
	if current.Expired(now) {
		return nil, ErrTokenExpired
	}

	user, err := s.Users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !user.Enabled || user.Locked {
		return nil, ErrTokenRevoked
	}

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	nextOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	next := domain.RefreshToken{
		ID:          idx.New(),
		UserID:      user.ID,
		Username:    user.Username,
		Fingerprint: cryptox.FingerprintToken(nextOpaque),
		DeviceID:    current.DeviceID,
		ExpiresAt:   now.Add(s.RefreshTTL),
		CreatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().Revoke(ctx, current.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: nextOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

// Revoke invalidates one refresh token (logout of a single device). An
// unknown token is ErrTokenInvalid; callers that want idempotent logout
// swallow that themselves.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)

	current, err := s.Store.RefreshTokens().GetByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	return s.Store.RefreshTokens().Revoke(ctx, current.ID)
}

// RevokeAllForUser invalidates every refresh token a user holds, across
// all devices. Used by logout-all and password reset.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.Store.RefreshTokens().RevokeAllForUser(ctx, userID)
}

// RevokeForDevice invalidates the refresh tokens of one device.
func (s *TokenService) RevokeForDevice(ctx context.Context, userID int64, deviceID string) error {
	return s.Store.RefreshTokens().RevokeForDevice(ctx, userID, deviceID)
}

// Validate checks an access token's signature and time claims and returns
// the decoded claims. Used by the internal validate endpoint.
func (s *TokenService) Validate(_ context.Context, accessToken string) (*jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(accessToken)
	if err != nil {
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	return claims, nil
}

func (s *TokenService) signAccess(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		user.ID, user.Username,
		user.Roles, user.Permissions,
		s.AccessTTL, s.Issuer, now,
	)
	return s.Signer.Sign(claims)
}
