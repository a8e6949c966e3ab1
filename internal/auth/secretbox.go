package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCiphertext is returned when a stored secret cannot be decrypted,
// either because it is corrupt or was encrypted under a different key.
var ErrInvalidCiphertext = errors.New("invalid encrypted token")

// SecretBox encrypts short secrets (GitHub access tokens) for storage using
// AES-256-GCM. The key is derived from an arbitrary-length passphrase by
// zero-padding or truncating to 32 bytes, so operators can configure a plain
// secret string.
type SecretBox struct {
	key []byte
}

// NewSecretBox derives a SecretBox key from the passphrase.
func NewSecretBox(passphrase string) *SecretBox {
	key := make([]byte, 32)
	copy(key, passphrase)
	return &SecretBox{key: key}
}

// Encrypt seals the plaintext and returns a URL-safe base64 string carrying
// the nonce and ciphertext.
func (s *SecretBox) Encrypt(plain string) (string, error) {
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (s *SecretBox) Decrypt(encoded string) (string, error) {
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	sealed, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(sealed) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

func (s *SecretBox) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
