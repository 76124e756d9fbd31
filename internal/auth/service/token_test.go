package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	claims, err := f.Tokens.Validate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, []string{"CHAT:SEND"}, claims.Permissions)
}

func TestTokenRefreshRotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	next, err := f.Tokens.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The old token was revoked by the rotation; replaying it fails and
	// nukes the user's remaining tokens.
	_, err = f.Tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenRevoked)

	// The replay detection also revoked the rotated token.
	_, err = f.Tokens.Refresh(ctx, next.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestTokenRefreshExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	f.advance(8 * 24 * time.Hour) // past the 7 day refresh TTL

	_, err = f.Tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenExpired)
}

func TestTokenRefreshUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.Tokens.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestTokenRefreshDisabledUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	user.Enabled = false
	f.Dir.addUser(user)

	_, err = f.Tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestTokenIssuePerDeviceExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	first, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	// Second login from the same device revokes the first refresh token.
	_, err = f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	_, err = f.Tokens.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestTokenRevokeIsPermanentAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)

	require.NoError(t, f.Tokens.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, f.Tokens.Revoke(ctx, pair.RefreshToken)) // the row survives revocation

	_, err = f.Tokens.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrTokenRevoked)
}

func TestTokenRevokeUnknown(t *testing.T) {
	f := newFixture(t)

	err := f.Tokens.Revoke(context.Background(), "never-issued")
	require.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestTokenRevokeAllForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	a, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)
	b, err := f.Tokens.Issue(ctx, user, "dev-b")
	require.NoError(t, err)

	require.NoError(t, f.Tokens.RevokeAllForUser(ctx, user.ID))

	for _, raw := range []string{a.RefreshToken, b.RefreshToken} {
		_, err := f.Tokens.Refresh(ctx, raw)
		require.ErrorIs(t, err, service.ErrTokenRevoked)
	}
}

func TestTokenValidateExpiredAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	// Sign with an issue time far enough back that the 8h TTL has lapsed.
	f.advance(-10 * time.Hour)
	pair, err := f.Tokens.Issue(ctx, user, "dev-a")
	require.NoError(t, err)
	f.advance(10 * time.Hour)

	_, err = f.Tokens.Validate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrTokenExpired)
}
