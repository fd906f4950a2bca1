// Package crypto provides authenticated encryption for stored OAuth tokens.
// Ciphertexts are AES-256-GCM sealed and base64url-encoded so they can live
// in a TEXT column and round-trip through JSON.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// devFallbackKey is substituted when no key file exists. Development only;
// set DIRECTVAULT_REQUIRE_KEY=true in production to refuse startup instead.
var devFallbackKey = []byte("development_key_32_bytes_long!!!")

// Sentinel errors returned by Decrypt. A malformed ciphertext could not be
// parsed at all; an authentication failure means the ciphertext was produced
// under a different key or was tampered with.
var (
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	ErrCiphertextAuth      = errors.New("ciphertext failed authentication")
)

// Cipher encrypts and decrypts UTF-8 strings with a single process-wide key.
// It is constructed once at startup and injected into consumers; it holds no
// mutable state and is safe for concurrent use.
type Cipher struct {
	aead        cipher.AEAD
	devFallback bool
}

// LoadKey reads key material from path. A file holding exactly 32 raw bytes
// is used as-is; anything else must be base64url of 32 bytes. A missing file
// logs a warning and yields the built-in development key with devFallback
// set; any other read error is fatal to the caller.
func LoadKey(path string) (key []byte, devFallback bool, err error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("encryption key not found, using development fallback key", "path", path)
		return devFallbackKey, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read encryption key %s: %w", path, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == KeySize {
		return raw, false, nil
	}

	decoded, decErr := base64.URLEncoding.DecodeString(string(raw))
	if decErr != nil || len(decoded) != KeySize {
		return nil, false, fmt.Errorf("encryption key %s: expected %d raw bytes or base64url of %d bytes", path, KeySize, KeySize)
	}
	return decoded, false, nil
}

// New creates a Cipher from a 32-byte key. devFallback records that the key
// came from the development fallback so deployment checks can flag it.
func New(key []byte, devFallback bool) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Cipher{aead: aead, devFallback: devFallback}, nil
}

// DevFallback reports whether the cipher runs on the built-in development key.
func (c *Cipher) DevFallback() bool {
	return c.devFallback
}

// Encrypt seals plaintext and returns base64url(nonce || ciphertext || tag).
// A fresh random nonce makes the output different on every call.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It never partially succeeds: the result is the
// exact original plaintext or an error.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrMalformedCiphertext, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: shorter than nonce", ErrMalformedCiphertext)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertextAuth, err)
	}

	return string(plaintext), nil
}
