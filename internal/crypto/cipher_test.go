package crypto

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	key := []byte(strings.Repeat("k", KeySize))
	c, err := New(key, false)
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{
		"",
		"tok-123",
		"y0_AgAAAAB-long-oauth-token",
		"юникод и пробелы",
	} {
		encrypted, err := c.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := c.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCipher_EncryptNonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt("same input")
	require.NoError(t, err)
	second, err := c.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "fresh nonce must yield distinct ciphertexts")
}

func TestCipher_DecryptWithDifferentKey(t *testing.T) {
	c1 := newTestCipher(t)
	c2, err := New([]byte(strings.Repeat("x", KeySize)), false)
	require.NoError(t, err)

	encrypted, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(encrypted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCiphertextAuth)
}

func TestCipher_DecryptMalformed(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt("not base64url!!!")
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	// Valid base64 but shorter than a GCM nonce.
	_, err = c.Decrypt(base64.URLEncoding.EncodeToString([]byte("tiny")))
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestCipher_DecryptTampered(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.Encrypt("secret")
	require.NoError(t, err)

	data, err := base64.URLEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff

	_, err = c.Decrypt(base64.URLEncoding.EncodeToString(data))
	assert.ErrorIs(t, err, ErrCiphertextAuth)
}

func TestNew_RejectsBadKeyLength(t *testing.T) {
	_, err := New([]byte("short"), false)
	require.Error(t, err)
}

func TestLoadKey_RawBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	raw := []byte(strings.Repeat("r", KeySize))
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	key, devFallback, err := LoadKey(path)
	require.NoError(t, err)
	assert.False(t, devFallback)
	assert.Equal(t, raw, key)
}

func TestLoadKey_Base64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	raw := []byte(strings.Repeat("b", KeySize))
	encoded := base64.URLEncoding.EncodeToString(raw) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o600))

	key, devFallback, err := LoadKey(path)
	require.NoError(t, err)
	assert.False(t, devFallback)
	assert.Equal(t, raw, key)
}

func TestLoadKey_MissingFileFallsBack(t *testing.T) {
	key, devFallback, err := LoadKey(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.True(t, devFallback)
	assert.Len(t, key, KeySize)

	c, err := New(key, devFallback)
	require.NoError(t, err)
	assert.True(t, c.DevFallback())
}

func TestLoadKey_InvalidMaterial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("way too short"), 0o600))

	_, _, err := LoadKey(path)
	require.Error(t, err)
}

func TestLoadKey_UnreadableIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed for root")
	}

	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("r", KeySize)), 0o000))

	_, _, err := LoadKey(path)
	require.Error(t, err)
}
