package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Run("produces distinct url-safe tokens", func(t *testing.T) {
		a, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)
		b, err := cryptox.GenerateToken(cryptox.TokenSize256)
		require.NoError(t, err)

		require.NotEqual(t, a, b)
		require.Len(t, a, 43) // 32 bytes base64url, no padding
		require.NotContains(t, a, "=")
		require.NotContains(t, a, "+")
		require.NotContains(t, a, "/")
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := cryptox.GenerateToken(0)
		require.Error(t, err)
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		require.Equal(t,
			cryptox.FingerprintToken("some-token"),
			cryptox.FingerprintToken("some-token"),
		)
	})

	t.Run("differs per input", func(t *testing.T) {
		require.NotEqual(t,
			cryptox.FingerprintToken("token-a"),
			cryptox.FingerprintToken("token-b"),
		)
	})
}

func TestGenerateNumericCode(t *testing.T) {
	t.Run("always the requested width", func(t *testing.T) {
		for range 100 {
			code, err := cryptox.GenerateNumericCode(6)
			require.NoError(t, err)
			require.Len(t, code, 6)
			require.Regexp(t, `^\d{6}$`, code)
		}
	})

	t.Run("rejects out of range widths", func(t *testing.T) {
		_, err := cryptox.GenerateNumericCode(0)
		require.Error(t, err)
		_, err = cryptox.GenerateNumericCode(19)
		require.Error(t, err)
	})
}
