package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Box seals short secrets (portal passwords) for at-rest storage in the
// session cache. The key is derived from a process-level secret; rotating
// that secret invalidates all outstanding sessions, which is acceptable
// given their short TTL.
type Box struct {
	key [chacha20poly1305.KeySize]byte
}

// NewBox derives a sealing key from the configured secret.
func NewBox(processSecret string) (*Box, error) {
	if processSecret == "" {
		return nil, errors.New("credential key must not be empty")
	}
	b := &Box{key: sha256.Sum256([]byte(processSecret))}
	return b, nil
}

// Seal encrypts the plaintext with a random nonce prepended to the output.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts output previously produced by Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed value too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("sealed value corrupt or key mismatch")
	}
	return plaintext, nil
}
