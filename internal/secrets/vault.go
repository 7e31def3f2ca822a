// Package secrets encrypts per-org payment processor credentials at
// rest. A leaked database dump must not hand out live Stripe secret
// keys, so the settings write path seals them with AES-256-GCM and the
// billing read path unseals on demand.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

//nolint:gochecknoglobals // sentinel error
var ErrInvalidKey = errors.New("secrets: invalid encryption key")

// Vault seals and unseals credential strings with AES-256-GCM.
type Vault struct {
	aead cipher.AEAD
}

// DeriveKey stretches an arbitrary secret into a 32-byte vault key.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// NewVault creates a Vault with the given 32-byte encryption key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns base64-encoded ciphertext.
// The output format is base64(nonce || ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets.Encrypt: generate nonce: %w", err)
	}

	// Seal appends the encrypted data to nonce, producing nonce || ciphertext.
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts base64-encoded ciphertext and returns plaintext.
// Expects the format base64(nonce || ciphertext).
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("secrets.Decrypt: base64 decode: %w", err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("secrets.Decrypt: ciphertext too short")
	}

	nonce := data[:nonceSize]
	encrypted := data[nonceSize:]

	plaintext, err := v.aead.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return "", fmt.Errorf("secrets.Decrypt: %w", err)
	}

	return string(plaintext), nil
}
