package pii

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	encrypted, err := codec.Encrypt("8001015009087")
	require.NoError(t, err)

	decrypted, err := codec.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "8001015009087", decrypted)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	codec := NewCodec("test-secret")

	first, err := codec.Encrypt("8001015009087")
	require.NoError(t, err)
	second, err := codec.Encrypt("8001015009087")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both ciphertexts still recover the original plaintext.
	for _, encrypted := range []string{first, second} {
		decrypted, err := codec.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "8001015009087", decrypted)
	}
}

func TestDecryptRejectsNonCodecOutput(t *testing.T) {
	codec := NewCodec("test-secret")

	cases := map[string]string{
		"plaintext":            "8001015009087",
		"random base64":        base64.StdEncoding.EncodeToString([]byte("definitely not ciphertext")),
		"base64 with colon":    base64.StdEncoding.EncodeToString([]byte("abcd:efgh")),
		"empty string":         "",
		"truncated ciphertext": base64.StdEncoding.EncodeToString([]byte("0102030405060708090a0b0c:ff")),
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decrypt(value)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecryption)
		})
	}
}

func TestDecryptRejectsForeignKey(t *testing.T) {
	encrypted, err := NewCodec("secret-one").Encrypt("8001015009087")
	require.NoError(t, err)

	_, err = NewCodec("secret-two").Decrypt(encrypted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestIsEncrypted(t *testing.T) {
	codec := NewCodec("test-secret")

	encrypted, err := codec.Encrypt("8001015009087")
	require.NoError(t, err)

	assert.True(t, codec.IsEncrypted(encrypted))
	assert.False(t, codec.IsEncrypted("8001015009087"))
}
