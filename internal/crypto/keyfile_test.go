package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKeyFile("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	key, err := DecryptKeyFile(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, key)
}

func TestDecryptWrongPasswordFails(t *testing.T) {
	blob, err := EncryptKeyFile(testKeyHex, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKeyFile(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	_, err := EncryptKeyFile("not-hex", "hunter2")
	assert.Error(t, err)

	_, err = EncryptKeyFile("abcd", "hunter2")
	assert.Error(t, err, "short key must be rejected")

	_, err = EncryptKeyFile(testKeyHex, "")
	assert.Error(t, err, "empty password must be rejected")
}

func TestResolveKeyPrefersRawKey(t *testing.T) {
	key, err := ResolveKey(KeySource{RawKey: "0x" + testKeyHex, KeyFilePath: "/nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, key)
}

func TestResolveKeyFromFile(t *testing.T) {
	blob, err := EncryptKeyFile(testKeyHex, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	key, err := ResolveKey(KeySource{KeyFilePath: path, Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, key)
}

func TestResolveKeyWithoutSourceFails(t *testing.T) {
	_, err := ResolveKey(KeySource{})
	assert.Error(t, err)
}
