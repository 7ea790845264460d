// Package config resolves the CLI configuration. Later sources win:
// built-in defaults, the JSON config file, .env and the environment,
// then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/amilzbot/agent-proof-cli/internal/app/addresses"
	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/keys"
	"github.com/amilzbot/agent-proof-cli/pkg/logger"
	"github.com/amilzbot/agent-proof-cli/pkg/rabbitmq"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	DefaultExpiryDays = 365

	EnvRPCURL     = "AGENT_PROOF_RPC_URL"
	EnvKeypair    = "AGENT_PROOF_KEYPAIR"
	EnvNetwork    = "AGENT_PROOF_NETWORK"
	EnvAMQPURL    = "AGENT_PROOF_AMQP_URL"
	EnvAddresses  = "AGENT_PROOF_ADDRESSES"
	EnvExpiryDays = "AGENT_PROOF_EXPIRY_DAYS"
	EnvLogLevel   = "AGENT_PROOF_LOG_LEVEL"
)

type ConfigJson struct {
	Network               string                      `json:"network"`
	RPCURL                string                      `json:"rpc_url"`
	Keypair               string                      `json:"keypair"`
	Addresses             string                      `json:"addresses"`
	ProgramID             string                      `json:"program_id"`
	ExpiryDays            int                         `json:"expiry_days"`
	ConfirmTimeoutSeconds int                         `json:"confirm_timeout_seconds"`
	Logger                logger.LoggerConfigJson     `json:"logger"`
	Rabbitmq              rabbitmq.RabbitmqConfigJson `json:"rabbitmq"`
}

type Config struct {
	Network   Network
	RPCURL    string
	Keypair   string
	Addresses string
	// ProgramID overrides the attestation-service program, for localnet
	// deployments. Empty means the canonical program.
	ProgramID      string
	ExpiryDays     int
	ConfirmTimeout time.Duration
	Logger         logger.LoggerConfig
	Rabbitmq       rabbitmq.RabbitmqConfig
}

func (cj ConfigJson) ConvertToDomain() Config {
	return Config{
		Network:        Network(cj.Network),
		RPCURL:         cj.RPCURL,
		Keypair:        cj.Keypair,
		Addresses:      cj.Addresses,
		ProgramID:      cj.ProgramID,
		ExpiryDays:     cj.ExpiryDays,
		ConfirmTimeout: time.Duration(cj.ConfirmTimeoutSeconds) * time.Second,
		Logger:         cj.Logger.ConvertToDomain(),
		Rabbitmq:       cj.Rabbitmq.ConvertToDomain(),
	}
}

func Default() Config {
	return Config{
		Network:    Devnet,
		Keypair:    keys.DefaultPath(),
		Addresses:  addresses.DefaultFile,
		ExpiryDays: DefaultExpiryDays,
		Logger:     logger.LoggerConfig{LogLevel: zerolog.WarnLevel},
		Rabbitmq:   rabbitmq.RabbitmqConfigJson{}.ConvertToDomain(),
	}
}

// DefaultPath is $HOME/.config/agent-proof/config.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "agent-proof", "config.json")
	}
	return filepath.Join(home, ".config", "agent-proof", "config.json")
}

// Overrides are the values given on the command line. Zero values
// leave the configured value in place.
type Overrides struct {
	Network    Network
	RPCURL     string
	Keypair    string
	Addresses  string
	ExpiryDays int
	Verbose    bool
}

// Load resolves the configuration. The file at path is optional unless
// required is set, as it is when the operator names one explicitly.
func Load(path string, required bool, overrides Overrides) (Config, error) {
	cfg := Default()

	fileCfg, err := utilities.ReadConfig[ConfigJson, Config](path)
	switch {
	case err == nil:
		cfg = merge(cfg, fileCfg)
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return Config{}, apperrors.Invalid("config", "readable JSON file", fmt.Sprintf("%s: %v", path, err))
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	envCfg, err := fromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	cfg = merge(cfg, envCfg)

	cfg = merge(cfg, Config{
		Network:    overrides.Network,
		RPCURL:     overrides.RPCURL,
		Keypair:    overrides.Keypair,
		Addresses:  overrides.Addresses,
		ExpiryDays: overrides.ExpiryDays,
		Logger:     logger.LoggerConfig{LogLevel: zerolog.NoLevel},
	})
	if overrides.Verbose {
		cfg.Logger.LogLevel = zerolog.DebugLevel
	}

	return cfg.resolve()
}

func fromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{Logger: logger.LoggerConfig{LogLevel: zerolog.NoLevel}}
	if v, ok := lookup(EnvNetwork); ok {
		cfg.Network = Network(v)
	}
	if v, ok := lookup(EnvRPCURL); ok {
		cfg.RPCURL = v
	}
	if v, ok := lookup(EnvKeypair); ok {
		cfg.Keypair = v
	}
	if v, ok := lookup(EnvAddresses); ok {
		cfg.Addresses = v
	}
	if v, ok := lookup(EnvAMQPURL); ok {
		cfg.Rabbitmq.URL = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logger = logger.LoggerConfigJson{LogLevel: v}.ConvertToDomain()
	}
	if v, ok := lookup(EnvExpiryDays); ok {
		days, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, apperrors.Invalid(EnvExpiryDays, "whole number of days", err.Error())
		}
		cfg.ExpiryDays = days
	}
	return cfg, nil
}

// merge lays over on base. Choosing a network without an RPC URL drops
// the URL configured for the previous network.
func merge(base, over Config) Config {
	if over.Network != "" {
		if over.Network != base.Network && over.RPCURL == "" {
			base.RPCURL = ""
		}
		base.Network = over.Network
	}
	base.RPCURL = utilities.Ternary(over.RPCURL != "", over.RPCURL, base.RPCURL)
	base.Keypair = utilities.Ternary(over.Keypair != "", over.Keypair, base.Keypair)
	base.Addresses = utilities.Ternary(over.Addresses != "", over.Addresses, base.Addresses)
	base.ProgramID = utilities.Ternary(over.ProgramID != "", over.ProgramID, base.ProgramID)
	if over.ExpiryDays != 0 {
		base.ExpiryDays = over.ExpiryDays
	}
	if over.ConfirmTimeout != 0 {
		base.ConfirmTimeout = over.ConfirmTimeout
	}
	if over.Logger.LogLevel != zerolog.NoLevel {
		base.Logger.LogLevel = over.Logger.LogLevel
	}
	base.Logger.Console = base.Logger.Console || over.Logger.Console
	if over.Rabbitmq.URL != "" {
		base.Rabbitmq.URL = over.Rabbitmq.URL
	}
	if over.Rabbitmq.Exchange != "" {
		base.Rabbitmq.Exchange = over.Rabbitmq.Exchange
	}
	if over.Rabbitmq.MaxRetries != 0 {
		base.Rabbitmq.MaxRetries = over.Rabbitmq.MaxRetries
	}
	return base
}

func (c Config) resolve() (Config, error) {
	network, err := ParseNetwork(string(c.Network))
	if err != nil {
		return Config{}, err
	}
	c.Network = network
	if c.RPCURL == "" {
		c.RPCURL = network.RPCURL()
	}
	if c.ExpiryDays <= 0 {
		return Config{}, apperrors.Invalid("expiry", "at least 1 day", fmt.Sprintf("%d days", c.ExpiryDays))
	}
	c.Keypair = keys.ExpandHome(c.Keypair)
	c.Addresses = keys.ExpandHome(c.Addresses)
	return c, nil
}
