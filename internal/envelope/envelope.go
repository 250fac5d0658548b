// Package envelope seals private key material for storage at rest using
// AES-256-GCM. A sealed blob is nonce || ciphertext || tag, one opaque byte
// slice, so the custody store never tracks cipher parameters.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	dErrors "custodia/pkg/domain-errors"
)

// KeyLen is the required secret length in bytes (AES-256).
const KeyLen = 32

// Cipher performs authenticated encryption under one process-wide secret.
// The secret length is checked once at construction; Seal and Open never
// re-validate it.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher. A secret of the wrong length is a configuration
// error: the process must refuse to start rather than mint unsealable
// custody records.
func New(secret []byte) (*Cipher, error) {
	if len(secret) != KeyLen {
		return nil, dErrors.Newf(dErrors.CodeConfiguration,
			"envelope secret must be %d bytes, got %d", KeyLen, len(secret))
	}
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "build AES cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "build GCM mode")
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh random nonce. The nonce is generated
// per call and never reused for this key.
func (c *Cipher) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open decrypts a sealed blob. A failed tag check means tampering or a key
// mismatch and surfaces as an integrity error; it is never swallowed.
func (c *Cipher) Open(blob []byte) (string, error) {
	if len(blob) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", dErrors.New(dErrors.CodeIntegrity, "sealed blob is truncated")
	}
	nonce, ciphertext := blob[:c.aead.NonceSize()], blob[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeIntegrity, "authentication tag verification failed")
	}
	return string(plaintext), nil
}
