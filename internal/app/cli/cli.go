// Package cli is the agent-proof command line: subcommand dispatch,
// flag parsing and wiring of configuration, keys, network client and
// lifecycle manager for each invocation.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/config"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/presenter"
	"github.com/amilzbot/agent-proof-cli/pkg/reasoncodes"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/spf13/pflag"
)

const Version = "0.1.0"

const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitNotFound   = 3
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// NewChain builds the network client, once per invocation.
	NewChain func(cfg config.Config) chain.Chain
	Clock    timeutil.Clock
	// Notifier replaces the one built from the configured broker.
	Notifier events.Notifier
}

func NewRunner(stdout, stderr io.Writer) *Runner {
	return &Runner{
		Stdout:   stdout,
		Stderr:   stderr,
		NewChain: newSolanaChain,
		Clock:    timeutil.System(),
	}
}

func newSolanaChain(cfg config.Config) chain.Chain {
	return chain.NewSolanaClient(chain.Config{
		RPCURL:         cfg.RPCURL,
		ConfirmTimeout: cfg.ConfirmTimeout,
	})
}

// Run executes one command line (without the program name) and
// returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return NewRunner(stdout, stderr).Run(args)
}

func (r *Runner) Run(args []string) int {
	p := presenter.New(r.Stdout, r.Stderr, hasFlag(args, "json"), hasFlag(args, "no-color"))

	err := r.dispatch(p, args)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		p.Error(err)
		return ExitCode(err)
	}
	return ExitOK
}

func (r *Runner) dispatch(p *presenter.Presenter, args []string) error {
	if len(args) == 0 {
		r.printUsage()
		return apperrors.Invalid("command", "one of the listed subcommands", "none given")
	}

	rest := args[1:]
	switch args[0] {
	case "init":
		return r.runInit(p, rest)
	case "attest":
		return r.runAttest(p, rest)
	case "verify":
		return r.runVerify(p, rest)
	case "list":
		return r.runList(p, rest)
	case "status":
		return r.runStatus(p, rest)
	case "revoke":
		return r.runRevoke(p, rest)
	case "keygen":
		return r.runKeygen(p, rest)
	case "airdrop":
		return r.runAirdrop(p, rest)
	case "version", "--version":
		fmt.Fprintf(r.Stdout, "agent-proof %s\n", Version)
		return nil
	case "-h", "--help", "help":
		r.printUsage()
		return nil
	default:
		r.printUsage()
		return apperrors.Invalid("command", "one of the listed subcommands", fmt.Sprintf("unknown command %q", args[0]))
	}
}

func (r *Runner) printUsage() {
	fmt.Fprintf(r.Stderr, `Usage: agent-proof <command> [flags]

Commands:
  init       Create the credential, agent-identity schema and its collection
  attest     Issue an identity attestation and its proof token
  verify     Verify the attestation at an address
  list       List attestations issued for an agent identity
  status     Show the authority balance and deployment state
  revoke     Close an attestation and burn its proof token
  keygen     Create a keypair file if none exists
  airdrop    Request devnet or localnet SOL for the keypair
  version    Print version information

Global flags:
  --keypair <path>   keypair file (default ~/.config/solana/id.json)
  --rpc <url>        RPC endpoint, overrides the network default
  --devnet | --mainnet | --localnet
  --json             machine-readable output
  --expiry <days>    attestation lifetime (default 365)
  --addresses <path> deployment summary (default addresses.json)
  --config <path>    config file (default ~/.config/agent-proof/config.json)
  --verbose          debug logging to stderr

Run 'agent-proof <command> --help' for command flags.
`)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch apperrors.CodeOf(err) {
	case reasoncodes.ErrValidation:
		return ExitValidation
	case reasoncodes.ErrNotFound:
		return ExitNotFound
	}
	return ExitFailure
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--"+name || arg == "--"+name+"=true" {
			return true
		}
	}
	return false
}

type globalFlags struct {
	configPath string
	keypair    string
	rpc        string
	addresses  string
	expiry     int
	devnet     bool
	mainnet    bool
	localnet   bool
	json       bool
	verbose    bool
	noColor    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "config file")
	fs.StringVar(&g.keypair, "keypair", "", "keypair file")
	fs.StringVar(&g.rpc, "rpc", "", "RPC endpoint URL")
	fs.StringVar(&g.addresses, "addresses", "", "deployment summary file")
	fs.IntVar(&g.expiry, "expiry", 0, "attestation lifetime in days (default 365)")
	fs.BoolVar(&g.devnet, "devnet", false, "use devnet")
	fs.BoolVar(&g.mainnet, "mainnet", false, "use mainnet")
	fs.BoolVar(&g.localnet, "localnet", false, "use a local validator")
	fs.BoolVar(&g.json, "json", false, "machine-readable output")
	fs.BoolVar(&g.verbose, "verbose", false, "debug logging")
	fs.BoolVar(&g.noColor, "no-color", false, "plain text output")
}

func (g *globalFlags) overrides() (config.Overrides, error) {
	var selected []config.Network
	if g.devnet {
		selected = append(selected, config.Devnet)
	}
	if g.mainnet {
		selected = append(selected, config.Mainnet)
	}
	if g.localnet {
		selected = append(selected, config.Localnet)
	}
	if len(selected) > 1 {
		return config.Overrides{}, apperrors.Invalid("network", "one of --devnet, --mainnet, --localnet", "several given")
	}
	if g.expiry < 0 {
		return config.Overrides{}, apperrors.Invalid("expiry", "at least 1 day", fmt.Sprintf("%d days", g.expiry))
	}

	o := config.Overrides{
		RPCURL:     g.rpc,
		Keypair:    g.keypair,
		Addresses:  g.addresses,
		ExpiryDays: g.expiry,
		Verbose:    g.verbose,
	}
	if len(selected) == 1 {
		o.Network = selected[0]
	}
	return o, nil
}

func (g *globalFlags) config() (config.Config, error) {
	o, err := g.overrides()
	if err != nil {
		return config.Config{}, err
	}
	path, required := g.configPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	return config.Load(path, required, o)
}

// parse registers the global flags on fs and parses args.
func (r *Runner) parse(fs *pflag.FlagSet, g *globalFlags, args []string) error {
	g.register(fs)
	fs.SetOutput(r.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return apperrors.Invalid("flags", "see --help", err.Error())
	}
	return nil
}

func (r *Runner) newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(r.Stderr, "Usage: agent-proof %s\n\nFlags:\n%s", usage, fs.FlagUsages())
	}
	return fs
}
