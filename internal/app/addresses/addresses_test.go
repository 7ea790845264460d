package addresses

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Deployment {
	return &Deployment{
		Network:          "devnet",
		Authority:        solana.NewWallet().PublicKey().String(),
		Credential:       solana.NewWallet().PublicKey().String(),
		CredentialName:   "agent-proof",
		Schema:           solana.NewWallet().PublicKey().String(),
		SchemaName:       "agent-identity",
		SchemaVersion:    1,
		SchemaCollection: solana.NewWallet().PublicKey().String(),
		Agent:            Agent{Name: "nix", Type: "claude", Platform: "openclaw", Capabilities: []string{"code"}},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)
	want := sample()

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	keys, err := got.Keys()
	require.NoError(t, err)
	assert.Equal(t, want.Schema, keys.Schema.String())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), DefaultFile))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestKeysRejectsBadAddress(t *testing.T) {
	d := sample()
	d.Credential = "not-base58!"

	_, err := d.Keys()
	var validation *apperrors.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "addresses.credential", validation.Field)
}
