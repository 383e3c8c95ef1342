// Document numbers are personal data and are encrypted at rest. Values
// are stored in the form iv:authTag:ciphertext (hex-encoded parts) so
// that encrypted and legacy plaintext values can be told apart by
// shape alone.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const gcmTagSize = 16

var ErrInvalidCiphertext = errors.New("secure: invalid ciphertext format")

type Encryptor struct {
	key []byte
}

// New expects a 64-character hex string, i.e. a 256-bit key.
func New(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secure: decoding key: %w", err)
	}

	if len(key) != 32 {
		return nil, fmt.Errorf("secure: key must be 32 bytes, got %d", len(key))
	}

	return &Encryptor{key: key}, nil
}

func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)

	// Seal appends the auth tag to the ciphertext; we store it as its
	// own segment to keep the stored format self-describing.
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	authTag := sealed[len(sealed)-gcmTagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(authTag) + ":" + hex.EncodeToString(ciphertext), nil
}

func (e *Encryptor) Decrypt(value string) (string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return "", ErrInvalidCiphertext
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	authTag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(iv) != gcm.NonceSize() || len(authTag) != gcmTagSize {
		return "", ErrInvalidCiphertext
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, authTag...), nil)
	if err != nil {
		return "", fmt.Errorf("secure: decrypting value: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted reports whether a stored value carries the three-part
// encrypted format. Legacy records hold plain document numbers which
// never contain the separator.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		if _, err := hex.DecodeString(part); err != nil {
			return false
		}
	}

	return true
}
