package cli

import (
	"context"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/addresses"
	"github.com/amilzbot/agent-proof-cli/internal/app/agent"
	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/keys"
	"github.com/amilzbot/agent-proof-cli/internal/app/lifecycle"
	"github.com/amilzbot/agent-proof-cli/internal/app/presenter"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"

	"github.com/gagliardetto/solana-go"
)

func agentSchema() lifecycle.SchemaDefinition {
	return lifecycle.SchemaDefinition{
		Name:        agent.SchemaName,
		Description: agent.SchemaDescription,
		Version:     agent.SchemaVersion,
		Layout:      agent.Layout(),
	}
}

func (r *Runner) runInit(p *presenter.Presenter, args []string) error {
	var g globalFlags
	var name, agentType, platform string
	var capabilities []string
	var collectionSize uint64

	fs := r.newFlagSet("init", "init --name <agent> [--type <type>] [--platform <platform>] [--capabilities a,b] [--collection-size n]")
	fs.StringVar(&name, "name", "", "agent name (required, max 32 bytes)")
	fs.StringVar(&agentType, "type", "", "agent type, e.g. claude")
	fs.StringVar(&platform, "platform", "", "platform the agent runs on")
	fs.StringSliceVar(&capabilities, "capabilities", nil, "agent capabilities, comma separated")
	fs.Uint64Var(&collectionSize, "collection-size", sas.DefaultCollectionSize, "max proof tokens in the schema collection")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(true).InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	identity := agent.Identity{
		Name:         name,
		Type:         agentType,
		Platform:     platform,
		Capabilities: capabilities,
		Owner:        app.Signer.PublicKey(),
	}
	if err := identity.Validate(); err != nil {
		return err
	}

	app.Manager.CollectionSize = collectionSize

	ctx := context.Background()
	if err := chain.ValidateProgramExecutable(ctx, app.Chain, app.Program.ID); err != nil {
		return err
	}

	p.Heading(fmt.Sprintf("Initializing agent-proof on %s", app.Config.Network))
	deployment, err := app.Manager.Initialize(ctx, agent.CredentialName, agentSchema())
	if err != nil {
		return err
	}
	printStep(p, "credential", deployment.Credential)
	printStep(p, "schema", deployment.Schema)
	printStep(p, "schema collection", deployment.SchemaToken)

	summary := &addresses.Deployment{
		Network:          string(app.Config.Network),
		Authority:        deployment.Authority.String(),
		Credential:       deployment.Credential.Address.String(),
		CredentialName:   deployment.CredentialName,
		Schema:           deployment.Schema.Address.String(),
		SchemaName:       deployment.SchemaName,
		SchemaVersion:    deployment.SchemaVersion,
		SchemaCollection: deployment.SchemaToken.Address.String(),
		Agent: addresses.Agent{
			Name:         identity.Name,
			Type:         identity.Type,
			Platform:     identity.Platform,
			Capabilities: identity.Capabilities,
		},
	}
	if err := addresses.Save(app.Config.Addresses, summary); err != nil {
		return err
	}
	p.Row("authority", summary.Authority)
	p.Row("saved", app.Config.Addresses)

	return p.Result(deploymentView{
		Network:          summary.Network,
		Authority:        summary.Authority,
		Credential:       newStepView(deployment.Credential),
		Schema:           newStepView(deployment.Schema),
		SchemaCollection: newStepView(deployment.SchemaToken),
		SchemaName:       summary.SchemaName,
		SchemaVersion:    summary.SchemaVersion,
		AddressesFile:    app.Config.Addresses,
	})
}

func printStep(p *presenter.Presenter, what string, step lifecycle.Step) {
	if step.Skipped {
		p.Skipped("%s exists: %s", what, step.Address)
		return
	}
	p.Success("%s created: %s", what, step.Address)
}

// deploymentKeys returns the credential and schema the signer issues
// under: from the summary file when present, else derived from the
// canonical names.
func deploymentKeys(app *Application) (credential, schemaAddress solana.PublicKey, err error) {
	summary, err := addresses.Load(app.Config.Addresses)
	if err == nil {
		k, err := summary.Keys()
		return k.Credential, k.Schema, err
	}
	if !apperrors.IsNotFound(err) {
		return credential, schemaAddress, err
	}

	if credential, err = app.Program.CredentialAddress(app.Signer.PublicKey(), agent.CredentialName); err != nil {
		return credential, schemaAddress, err
	}
	schemaAddress, err = app.Program.SchemaAddress(credential, agent.SchemaName, agent.SchemaVersion)
	return credential, schemaAddress, err
}

func (r *Runner) runStatus(p *presenter.Presenter, args []string) error {
	var g globalFlags
	fs := r.newFlagSet("status", "status")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(true).InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	credential, schemaAddress, err := deploymentKeys(app)
	if err != nil {
		return err
	}
	status, err := app.Manager.Status(context.Background(), credential, schemaAddress)
	if err != nil {
		return err
	}

	p.Heading(fmt.Sprintf("agent-proof status (%s)", app.Config.Network))
	p.Row("rpc", app.Config.RPCURL)
	p.Row("authority", status.Authority)
	p.Row("balance", fmt.Sprintf("%.9f SOL", lamportsToSOL(status.Balance)))
	for _, item := range []struct {
		name     string
		presence lifecycle.Presence
	}{
		{"credential", status.Credential},
		{"schema", status.Schema},
		{"schema collection", status.SchemaToken},
	} {
		if item.presence.Exists {
			p.Success("%s: %s", item.name, item.presence.Address)
		} else {
			p.Failure("%s missing: %s (run init)", item.name, item.presence.Address)
		}
	}

	return p.Result(statusView{
		Network:          string(app.Config.Network),
		RPCURL:           app.Config.RPCURL,
		Authority:        status.Authority.String(),
		BalanceLamports:  status.Balance,
		BalanceSOL:       lamportsToSOL(status.Balance),
		Credential:       presenceView{status.Credential.Address.String(), status.Credential.Exists},
		Schema:           presenceView{status.Schema.Address.String(), status.Schema.Exists},
		SchemaCollection: presenceView{status.SchemaToken.Address.String(), status.SchemaToken.Exists},
	})
}

func (r *Runner) runKeygen(p *presenter.Presenter, args []string) error {
	var g globalFlags
	fs := r.newFlagSet("keygen", "keygen [--keypair <path>]")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	path := app.Config.Keypair
	created := true
	key, err := keys.Generate(path)
	if apperrors.IsAlreadyExists(err) {
		created = false
		key, err = keys.Load(path)
	}
	if err != nil {
		return err
	}

	if created {
		p.Success("keypair written to %s", path)
	} else {
		p.Skipped("keypair exists at %s", path)
	}
	p.Row("public key", key.PublicKey())

	return p.Result(map[string]any{
		"path":       path,
		"public_key": key.PublicKey().String(),
		"created":    created,
	})
}

func (r *Runner) runAirdrop(p *presenter.Presenter, args []string) error {
	var g globalFlags
	var amount float64
	fs := r.newFlagSet("airdrop", "airdrop [--amount <SOL>]")
	fs.Float64Var(&amount, "amount", 1, "SOL to request")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}
	if amount <= 0 || amount > 5 {
		return apperrors.Invalid("amount", "0 < SOL <= 5", fmt.Sprintf("%g", amount))
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(true).InitChain().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Config.Network.HasFaucet() {
		return apperrors.Invalid("network", "devnet or localnet", fmt.Sprintf("%s has no faucet", app.Config.Network))
	}

	ctx := context.Background()
	address := app.Signer.PublicKey()
	lamports := uint64(amount * float64(solana.LAMPORTS_PER_SOL))
	signature, err := app.Chain.Airdrop(ctx, address, lamports)
	if err != nil {
		return err
	}
	balance, err := app.Chain.Balance(ctx, address)
	if err != nil {
		return err
	}

	p.Success("airdropped %g SOL to %s", amount, address)
	p.Row("signature", signature)
	p.Row("balance", fmt.Sprintf("%.9f SOL", lamportsToSOL(balance)))

	return p.Result(map[string]any{
		"address":          address.String(),
		"signature":        signatureString(signature),
		"balance_lamports": balance,
	})
}
