package cli

import (
	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/config"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/keys"
	"github.com/amilzbot/agent-proof-cli/internal/app/lifecycle"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/pkg/logger"

	"github.com/gagliardetto/solana-go"
)

// Application is everything one command needs, built once per
// invocation and passed explicitly.
type Application struct {
	Config  config.Config
	Logger  *logger.Logger
	Chain   chain.Chain
	Program sas.Program
	// Signer is nil for read-only commands run without a keypair.
	Signer  solana.PrivateKey
	Manager *lifecycle.Manager

	closers []func()
}

func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type appBuilder struct {
	runner *Runner
	flags  *globalFlags
	app    *Application
	err    error
}

func (r *Runner) newApp(g *globalFlags) *appBuilder {
	return &appBuilder{runner: r, flags: g, app: &Application{}}
}

func (a *appBuilder) LoadConfig() *appBuilder {
	if a.err != nil {
		return a
	}
	a.app.Config, a.err = a.flags.config()
	return a
}

func (a *appBuilder) InitLogger() *appBuilder {
	if a.err != nil {
		return a
	}
	logger.InitDefaultLogger(logger.GlobalLoggerConfig{
		Config: a.app.Config.Logger,
		Args: []logger.LoggerArg{
			{Key: "application", Value: "agent-proof"},
			{Key: "version", Value: Version},
		},
	})
	a.app.Logger = logger.NewFromConfig(a.app.Config.Logger).
		WithOutput(a.runner.Stderr).
		WithField("network", string(a.app.Config.Network))
	a.app.Logger.Debugf("Using RPC endpoint %s", a.app.Config.RPCURL)
	return a
}

// LoadSigner reads the keypair. Without required, a missing keypair
// file leaves the application without a signer; an unreadable one is
// still an error.
func (a *appBuilder) LoadSigner(required bool) *appBuilder {
	if a.err != nil {
		return a
	}
	if !required && !keys.Exists(a.app.Config.Keypair) {
		a.app.Logger.Debugf("Continuing without signer: no keypair at %s", a.app.Config.Keypair)
		return a
	}
	signer, err := keys.Load(a.app.Config.Keypair)
	a.app.Signer, a.err = signer, err
	if err == nil {
		a.app.Logger.Debugf("Signer %s", signer.PublicKey())
	}
	return a
}

func (a *appBuilder) InitChain() *appBuilder {
	if a.err != nil {
		return a
	}
	a.app.Program = sas.Default
	if id := a.app.Config.ProgramID; id != "" {
		key, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			a.err = apperrors.Invalid("program_id", "base58 address", err.Error())
			return a
		}
		a.app.Program = sas.NewProgram(key)
	}
	a.app.Chain = a.runner.NewChain(a.app.Config)
	return a
}

// InitManager wires the lifecycle manager and its event notifier.
func (a *appBuilder) InitManager() *appBuilder {
	if a.err != nil || a.app.Chain == nil {
		return a
	}

	notifier := a.runner.Notifier
	if notifier == nil {
		var closer func()
		notifier, closer = events.Connect(a.app.Config.Rabbitmq, a.app.Logger)
		a.app.closers = append(a.app.closers, closer)
	}

	m := lifecycle.NewManager(a.app.Chain, a.app.Signer)
	m.Program = a.app.Program
	m.Logger = a.app.Logger
	m.Notifier = notifier
	if a.runner.Clock != nil {
		m.Clock = a.runner.Clock
	}
	a.app.Manager = m
	return a
}

func (a *appBuilder) Build() (*Application, error) {
	if a.err != nil {
		a.app.Close()
		return nil, a.err
	}
	return a.app, nil
}
