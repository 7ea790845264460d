package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "id.json")

	key, err := Generate(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), loaded.PublicKey())
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")
	_, err := Generate(path)
	require.NoError(t, err)

	_, err = Generate(path)
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestLoadMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.json"))
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "keypair", verr.Field)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o600))
	_, err = Load(bad)
	require.ErrorAs(t, err, &verr)

	assert.False(t, Exists(filepath.Join(dir, "absent.json")))
	assert.True(t, Exists(bad))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "keys", "id.json"), ExpandHome("~/keys/id.json"))
	assert.Equal(t, "/abs/id.json", ExpandHome("/abs/id.json"))
}
