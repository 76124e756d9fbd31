package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-shared-secret-0123456789")

func TestHS256SignVerify(t *testing.T) {
	signer := NewHS256Signer(testSecret)
	verifier := NewHS256Verifier(testSecret, "gatekeep", time.Minute)

	claims := NewAccessClaims(
		42, "alice",
		[]string{"ROLE_USER"},
		[]string{"CHAT:SEND", "USER:READ"},
		time.Hour, "gatekeep", time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, "alice", got.Subject)
	require.Equal(t, []string{"ROLE_USER"}, got.Roles)
	require.True(t, got.HasPermission("CHAT:SEND"))
	require.False(t, got.HasPermission("USER:DELETE"))
}

func TestHS256VerifyWrongSecret(t *testing.T) {
	signer := NewHS256Signer(testSecret)
	verifier := NewHS256Verifier([]byte("a-different-secret-entirely!!"), "", 0)

	token, err := signer.Sign(NewAccessClaims(1, "bob", nil, nil, time.Hour, "gatekeep", time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrSignature)
}

func TestHS256VerifyExpired(t *testing.T) {
	signer := NewHS256Signer(testSecret)
	verifier := NewHS256Verifier(testSecret, "", 0)

	// Issued two hours ago with a one hour TTL.
	claims := NewAccessClaims(1, "bob", nil, nil, time.Hour, "gatekeep", time.Now().Add(-2*time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestHS256VerifyIssuerMismatch(t *testing.T) {
	signer := NewHS256Signer(testSecret)
	verifier := NewHS256Verifier(testSecret, "gatekeep", 0)

	token, err := signer.Sign(NewAccessClaims(1, "bob", nil, nil, time.Hour, "someone-else", time.Now()))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestHS256VerifyRejectsForeignAlgorithm(t *testing.T) {
	verifier := NewHS256Verifier(testSecret, "", 0)

	// Same shared secret, wrong algorithm: the header is not trusted.
	tok := jwt.NewWithClaims(jwt.SigningMethodHS384,
		NewAccessClaims(1, "bob", nil, nil, time.Hour, "gatekeep", time.Now()))
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	require.ErrorIs(t, err, ErrAlgorithm)
}

func TestHS256VerifyMalformed(t *testing.T) {
	verifier := NewHS256Verifier(testSecret, "", 0)

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := verifier.Verify(tok)
		require.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func TestClaimsValidateExpiry(t *testing.T) {
	c := NewAccessClaims(1, "bob", nil, nil, time.Hour, "gatekeep", time.Now())
	require.NoError(t, c.ValidateExpiry())

	c = NewAccessClaims(1, "bob", nil, nil, time.Hour, "gatekeep", time.Now().Add(-2*time.Hour))
	require.ErrorIs(t, c.ValidateExpiry(), ErrExpired)
}
