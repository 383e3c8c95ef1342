package secure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "0000000000000000000000000000000000000000000000000000000000000000"

func TestNew_RejectsBadKeys(t *testing.T) {
	_, err := New("not-hex")
	require.Error(t, err)

	// valid hex, wrong size
	_, err = New("abcdef")
	require.Error(t, err)

	_, err = New(testKey)
	require.NoError(t, err)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	enc, err := New(testKey)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("12345678901")
	require.NoError(t, err)

	parts := strings.Split(ciphertext, ":")
	require.Len(t, parts, 3)

	plain, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, "12345678901", plain)
}

func TestEncrypt_UniqueIVs(t *testing.T) {
	enc, err := New(testKey)
	require.NoError(t, err)

	first, err := enc.Encrypt("same value")
	require.NoError(t, err)
	second, err := enc.Encrypt("same value")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestDecrypt_TamperDetection(t *testing.T) {
	enc, err := New(testKey)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("12345678901")
	require.NoError(t, err)

	parts := strings.Split(ciphertext, ":")

	// flip a character in the ciphertext segment
	flipped := []byte(parts[2])
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	tampered := parts[0] + ":" + parts[1] + ":" + string(flipped)

	_, err = enc.Decrypt(tampered)
	require.Error(t, err)
}

func TestDecrypt_MalformedValues(t *testing.T) {
	enc, err := New(testKey)
	require.NoError(t, err)

	for _, value := range []string{"", "plaintext", "a:b", "x:y:z:w", "zz:zz:zz"} {
		_, err := enc.Decrypt(value)
		require.ErrorIs(t, err, ErrInvalidCiphertext, "value %q", value)
	}
}

func TestIsEncrypted(t *testing.T) {
	enc, err := New(testKey)
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("12345678901")
	require.NoError(t, err)

	require.True(t, IsEncrypted(ciphertext))
	require.False(t, IsEncrypted("12345678901"))
	require.False(t, IsEncrypted("a:b"))
	require.False(t, IsEncrypted("::"))
	require.False(t, IsEncrypted("not hex at all : zz : !!"))
}
