package cryptox_test

import (
	"testing"

	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		hash, err := cryptox.HashPassword("Sup3rSecret!")
		require.NoError(t, err)
		require.Contains(t, hash, "$argon2id$v=19$")

		require.NoError(t, cryptox.VerifyPassword("Sup3rSecret!", hash))
	})

	t.Run("salts are unique", func(t *testing.T) {
		a, err := cryptox.HashPassword("same-password")
		require.NoError(t, err)
		b, err := cryptox.HashPassword("same-password")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := cryptox.HashPassword("correct-horse")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		require.ErrorIs(t, cryptox.VerifyPassword("battery-staple", hash), cryptox.ErrPasswordMismatch)
	})

	t.Run("malformed hash", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("whatever", "$bcrypt$nope"))
	})
}
