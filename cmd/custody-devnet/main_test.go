package main

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/custody-bridge/pkg/app"
)

func TestLoadAdmin(t *testing.T) {
	admin, err := loadAdmin(app.Config{})
	require.NoError(t, err)
	assert.Len(t, admin, ed25519.PrivateKeySize)

	_, expected, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	values := make([]int, len(expected))
	for i, b := range expected {
		values[i] = int(b)
	}
	encoded, err := json.Marshal(values)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "admin.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	actual, err := loadAdmin(app.Config{adminKeypairConfigKey: path})
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	for name, contents := range map[string]string{
		"short.json":    "[1, 2, 3]",
		"invalid.json":  "not json",
		"overflow.json": string(mustMarshal(t, append(values[:63:63], 256))),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

		_, err := loadAdmin(app.Config{adminKeypairConfigKey: path})
		assert.Error(t, err, name)
	}

	_, err = loadAdmin(app.Config{adminKeypairConfigKey: filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
