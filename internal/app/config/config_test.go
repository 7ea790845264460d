package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvRPCURL, EnvKeypair, EnvNetwork, EnvAMQPURL, EnvAddresses, EnvExpiryDays, EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// .env is read from the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), false, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, Devnet, cfg.Network)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.RPCURL)
	assert.Equal(t, DefaultExpiryDays, cfg.ExpiryDays)
	assert.Equal(t, zerolog.WarnLevel, cfg.Logger.LogLevel)
	assert.False(t, cfg.Rabbitmq.Enabled())
}

func TestLoadRequiredFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), true, Overrides{})
	var validation *apperrors.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "config", validation.Field)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{
		"network": "localnet",
		"keypair": "/keys/file.json",
		"expiry_days": 30,
		"confirm_timeout_seconds": 90,
		"logger": {"log_level": "info"},
		"rabbitmq": {"url": "amqp://file"}
	}`)

	cfg, err := Load(path, true, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, Localnet, cfg.Network)
	assert.Equal(t, "http://127.0.0.1:8899", cfg.RPCURL)
	assert.Equal(t, "/keys/file.json", cfg.Keypair)
	assert.Equal(t, 30, cfg.ExpiryDays)
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, zerolog.InfoLevel, cfg.Logger.LogLevel)
	assert.Equal(t, "amqp://file", cfg.Rabbitmq.URL)

	t.Setenv(EnvKeypair, "/keys/env.json")
	t.Setenv(EnvAMQPURL, "amqp://env")
	cfg, err = Load(path, true, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "/keys/env.json", cfg.Keypair)
	assert.Equal(t, "amqp://env", cfg.Rabbitmq.URL)

	cfg, err = Load(path, true, Overrides{Keypair: "/keys/flag.json", ExpiryDays: 7, Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "/keys/flag.json", cfg.Keypair)
	assert.Equal(t, 7, cfg.ExpiryDays)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logger.LogLevel)
}

func TestNetworkSwitchDropsRPCURL(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"network": "devnet", "rpc_url": "https://devnet.example"}`)

	cfg, err := Load(path, true, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "https://devnet.example", cfg.RPCURL)

	cfg, err = Load(path, true, Overrides{Network: Mainnet})
	require.NoError(t, err)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)

	cfg, err = Load(path, true, Overrides{Network: Mainnet, RPCURL: "https://rpc.example"})
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", cfg.RPCURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, `{"network": "testnet"}`), true, Overrides{})
	var validation *apperrors.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "network", validation.Field)

	_, err = Load(writeConfig(t, `{"expiry_days": -1}`), true, Overrides{})
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "expiry", validation.Field)

	_, err = Load(writeConfig(t, `not json`), true, Overrides{})
	require.True(t, errors.As(err, &validation))

	t.Setenv(EnvExpiryDays, "soon")
	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), false, Overrides{})
	require.True(t, errors.As(err, &validation))
}

func TestParseNetwork(t *testing.T) {
	n, err := ParseNetwork("Mainnet-Beta")
	require.NoError(t, err)
	assert.Equal(t, Mainnet, n)
	assert.False(t, n.HasFaucet())
	assert.True(t, Devnet.HasFaucet())

	_, err = ParseNetwork("")
	assert.Error(t, err)
}
