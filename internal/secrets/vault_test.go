package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVault(t *testing.T) {
	t.Parallel()

	t.Run("rejects_short_key", func(t *testing.T) {
		t.Parallel()
		_, err := NewVault([]byte("too short"))
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("accepts_derived_key", func(t *testing.T) {
		t.Parallel()
		v, err := NewVault(DeriveKey("any length works here"))
		require.NoError(t, err)
		assert.NotNil(t, v)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	t.Parallel()

	v, err := NewVault(DeriveKey("vault-test-key"))
	require.NoError(t, err)

	t.Run("round_trip", func(t *testing.T) {
		t.Parallel()

		sealed, err := v.Encrypt("sk_live_abc123")
		require.NoError(t, err)
		assert.NotEqual(t, "sk_live_abc123", sealed)

		opened, err := v.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, "sk_live_abc123", opened)
	})

	t.Run("nonce_makes_ciphertexts_differ", func(t *testing.T) {
		t.Parallel()

		a, err := v.Encrypt("whsec_xyz")
		require.NoError(t, err)
		b, err := v.Encrypt("whsec_xyz")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong_key_fails", func(t *testing.T) {
		t.Parallel()

		sealed, err := v.Encrypt("sk_live_abc123")
		require.NoError(t, err)

		other, err := NewVault(DeriveKey("a different key"))
		require.NoError(t, err)

		_, err = other.Decrypt(sealed)
		assert.Error(t, err)
	})

	t.Run("garbage_input_fails", func(t *testing.T) {
		t.Parallel()

		_, err := v.Decrypt("not base64 at all!!!")
		assert.Error(t, err)

		_, err = v.Decrypt("c2hvcnQ=") // valid base64, shorter than a nonce
		assert.Error(t, err)
	})
}
