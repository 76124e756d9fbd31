package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/service"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// rfc6238Secret is the ASCII seed "12345678901234567890" from RFC 6238
// Appendix B, base32 encoded.
const rfc6238Secret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func seedConfirmedSecret(t *testing.T, f *fixture, userID int64, secret string) {
	t.Helper()

	now := f.now
	require.NoError(t, f.MFA.Store.MFASecrets().Upsert(context.Background(), domain.MFASecret{
		UserID:      userID,
		Secret:      secret,
		Enabled:     true,
		CreatedAt:   now,
		ConfirmedAt: &now,
	}))
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestMFAVerifyRFC6238Vector(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")
	seedConfirmedSecret(t, f, user.ID, rfc6238Secret)

	// RFC 6238 Appendix B: T=59s with SHA-1 yields 94287082; the 6-digit
	// truncation is 287082.
	f.now = time.Unix(59, 0).UTC()
	require.Equal(t, "287082", codeAt(t, rfc6238Secret, f.now))

	err := f.MFA.VerifyCode(context.Background(), user.ID, "287082")
	require.NoError(t, err)
}

func TestMFAVerifyDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")
	seedConfirmedSecret(t, f, user.ID, rfc6238Secret)

	t.Run("one period behind is accepted", func(t *testing.T) {
		code := codeAt(t, rfc6238Secret, f.now.Add(-30*time.Second))
		require.NoError(t, f.MFA.VerifyCode(ctx, user.ID, code))
	})

	t.Run("one period ahead is accepted", func(t *testing.T) {
		code := codeAt(t, rfc6238Secret, f.now.Add(30*time.Second))
		require.NoError(t, f.MFA.VerifyCode(ctx, user.ID, code))
	})

	t.Run("two periods behind is rejected", func(t *testing.T) {
		code := codeAt(t, rfc6238Secret, f.now.Add(-60*time.Second))
		require.ErrorIs(t, f.MFA.VerifyCode(ctx, user.ID, code), service.ErrInvalidTOTPCode)
	})

	t.Run("two periods ahead is rejected", func(t *testing.T) {
		code := codeAt(t, rfc6238Secret, f.now.Add(60*time.Second))
		require.ErrorIs(t, f.MFA.VerifyCode(ctx, user.ID, code), service.ErrInvalidTOTPCode)
	})
}

func TestMFASetupConfirmFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	setup, err := f.MFA.Setup(ctx, user.ID, user.Username)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OtpauthURL, "otpauth://totp/")
	require.Contains(t, setup.OtpauthURL, "gatekeep")

	// Unconfirmed enrollment doesn't gate logins yet.
	enabled, err := f.MFA.Enabled(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, enabled)

	t.Run("confirm with wrong code fails", func(t *testing.T) {
		err := f.MFA.Confirm(ctx, user.ID, "12345") // wrong length is never valid
		require.ErrorIs(t, err, service.ErrInvalidTOTPCode)
	})

	t.Run("confirm with valid code enables", func(t *testing.T) {
		require.NoError(t, f.MFA.Confirm(ctx, user.ID, codeAt(t, setup.Secret, f.now)))

		status, err := f.MFA.Status(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, status.Configured)
		require.True(t, status.Enabled)
	})

	t.Run("second setup while enabled is rejected", func(t *testing.T) {
		_, err := f.MFA.Setup(ctx, user.ID, user.Username)
		require.ErrorIs(t, err, service.ErrMFAAlreadyEnabled)
	})
}

func TestMFADisableRequiresValidCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")
	seedConfirmedSecret(t, f, user.ID, rfc6238Secret)

	require.ErrorIs(t, f.MFA.Disable(ctx, user.ID, "12345"), service.ErrInvalidTOTPCode)

	require.NoError(t, f.MFA.Disable(ctx, user.ID, codeAt(t, rfc6238Secret, f.now)))

	enabled, err := f.MFA.Enabled(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestMFADisableKeepsSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")
	seedConfirmedSecret(t, f, user.ID, rfc6238Secret)

	require.NoError(t, f.MFA.Disable(ctx, user.ID, codeAt(t, rfc6238Secret, f.now)))

	// The enrollment survives: the flag and stamp are cleared but the
	// secret stays so the user can re-confirm without a fresh setup.
	status, err := f.MFA.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, status.Configured)
	require.False(t, status.Enabled)
	require.False(t, status.Verified)
	require.Nil(t, status.LastVerifiedAt)

	require.NoError(t, f.MFA.Confirm(ctx, user.ID, codeAt(t, rfc6238Secret, f.now)))

	enabled, err := f.MFA.Enabled(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestMFAVerifyBumpsLastVerified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")
	seedConfirmedSecret(t, f, user.ID, rfc6238Secret)

	f.advance(5 * time.Minute)
	require.NoError(t, f.MFA.VerifyCode(ctx, user.ID, codeAt(t, rfc6238Secret, f.now)))

	status, err := f.MFA.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, status.Verified)
	require.NotNil(t, status.LastVerifiedAt)
	require.WithinDuration(t, f.now, *status.LastVerifiedAt, time.Second)
}

func TestMFAVerifyNotConfigured(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "alice", "alice@example.com", "hunter2hunter2")

	err := f.MFA.VerifyCode(context.Background(), user.ID, "123456")
	require.ErrorIs(t, err, service.ErrMFANotConfigured)
}
