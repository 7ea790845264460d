package cli

import (
	"context"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/addresses"
	"github.com/amilzbot/agent-proof-cli/internal/app/agent"
	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/lifecycle"
	"github.com/amilzbot/agent-proof-cli/internal/app/presenter"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities"

	"github.com/gagliardetto/solana-go"
)

const proofTokenSymbol = "AGENT"

func parseKey(field, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, apperrors.Invalid(field, "base58 address", fmt.Sprintf("%q: %v", value, err))
	}
	return key, nil
}

// addressArg parses the single positional address of verify and revoke.
func addressArg(args []string) (solana.PublicKey, error) {
	if len(args) != 1 {
		return solana.PublicKey{}, apperrors.Invalid("address", "exactly one attestation address",
			fmt.Sprintf("%d arguments given", len(args)))
	}
	return parseKey("address", args[0])
}

func (r *Runner) runAttest(p *presenter.Presenter, args []string) error {
	var g globalFlags
	var name, agentType, platform, agentKey, nonceKey, tokenURI string
	var capabilities []string

	fs := r.newFlagSet("attest", "attest [--name <agent>] [--agent <pubkey>] [--nonce <pubkey>]")
	fs.StringVar(&name, "name", "", "agent name (default from the deployment summary)")
	fs.StringVar(&agentType, "type", "", "agent type (default from the deployment summary)")
	fs.StringVar(&platform, "platform", "", "platform (default from the deployment summary)")
	fs.StringSliceVar(&capabilities, "capabilities", nil, "capabilities (default from the deployment summary)")
	fs.StringVar(&agentKey, "agent", "", "agent identity key, receives the proof token (default the signer)")
	fs.StringVar(&nonceKey, "nonce", "", "attestation nonce (default the agent identity key)")
	fs.StringVar(&tokenURI, "token-uri", "", "metadata URI of the proof token")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(true).InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	summary, err := addresses.Load(app.Config.Addresses)
	if err != nil {
		return err
	}
	deployment, err := summary.Keys()
	if err != nil {
		return err
	}
	if !deployment.Authority.Equals(app.Signer.PublicKey()) {
		return &apperrors.UnauthorizedError{
			Action:   "attest",
			Signer:   app.Signer.PublicKey().String(),
			Required: deployment.Authority.String(),
		}
	}

	subject := app.Signer.PublicKey()
	if agentKey != "" {
		if subject, err = parseKey("agent", agentKey); err != nil {
			return err
		}
	}
	nonce := subject
	if nonceKey != "" {
		if nonce, err = parseKey("nonce", nonceKey); err != nil {
			return err
		}
	}

	now := app.Manager.Clock.Now()
	identity := agent.Identity{
		Name:         utilities.Ternary(name != "", name, summary.Agent.Name),
		Type:         utilities.Ternary(agentType != "", agentType, summary.Agent.Type),
		Platform:     utilities.Ternary(platform != "", platform, summary.Agent.Platform),
		Capabilities: utilities.Ternary(capabilities != nil, capabilities, summary.Agent.Capabilities),
		Owner:        app.Signer.PublicKey(),
		CreatedAt:    now.T,
	}
	if err := identity.Validate(); err != nil {
		return err
	}

	issued, err := app.Manager.CreateAttestation(context.Background(), lifecycle.AttestationRequest{
		Credential: deployment.Credential,
		Schema:     deployment.Schema,
		Nonce:      nonce,
		Recipient:  subject,
		Values:     identity.Values(),
		Expiry:     now.AddDays(app.Config.ExpiryDays),
		Token:      sas.TokenMetadata{Name: identity.Name, Symbol: proofTokenSymbol, URI: tokenURI},
	})
	if err != nil {
		return err
	}

	p.Success("attestation issued for %s", identity.Name)
	p.Row("attestation", issued.Address)
	p.Row("proof token", issued.Addresses.AttestationMint)
	p.Row("token account", issued.Addresses.TokenAccount)
	p.Row("nonce", nonce)
	p.Row("expires", issued.Expiry)
	p.Row("signature", issued.Signature)

	return p.Result(attestationView{
		Address:         issued.Address.String(),
		AttestationMint: issued.Addresses.AttestationMint.String(),
		TokenAccount:    issued.Addresses.TokenAccount.String(),
		Nonce:           nonce.String(),
		Recipient:       subject.String(),
		Signature:       signatureString(issued.Signature),
		Expiry:          issued.Expiry.String(),
		ExpiryUnix:      issued.Expiry.T,
	})
}

func printReport(p *presenter.Presenter, report *lifecycle.Report) {
	p.Heading(fmt.Sprintf("Proof %s", report.Address))
	for _, v := range report.Record {
		value := v.Value
		if v.Name == agent.FieldCreatedAt {
			if at, ok := value.(int64); ok {
				value = fmt.Sprintf("%d (%s)", at, timeString(at))
			}
		}
		p.Row(v.Name, value)
	}
	p.Row("schema", fmt.Sprintf("%s v%d (%s)", report.SchemaName, report.SchemaVersion, report.Schema))
	p.Row("credential", report.Credential)
	p.Row("signer", report.Signer)
	p.Row("expires", report.Expiry)

	switch {
	case report.SchemaPaused:
		p.Failure("schema is paused")
	case report.Expired:
		p.Failure("expired")
	case !report.TokenPresent:
		p.Failure("proof token missing from %s", report.TokenAccount)
	default:
		p.Success("valid, proof token held in %s", report.TokenAccount)
	}
}

func (r *Runner) runVerify(p *presenter.Presenter, args []string) error {
	var g globalFlags
	fs := r.newFlagSet("verify", "verify <attestation-address>")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}
	address, err := addressArg(fs.Args())
	if err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(false).InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.Manager.Verify(context.Background(), address)
	if err != nil {
		return err
	}
	printReport(p, report)
	return p.Result(newReportView(report))
}

func (r *Runner) runList(p *presenter.Presenter, args []string) error {
	var g globalFlags
	var agentKey string
	var allSchemas bool
	fs := r.newFlagSet("list", "list [--agent <pubkey>] [--all-schemas]")
	fs.StringVar(&agentKey, "agent", "", "agent identity key (default the signer)")
	fs.BoolVar(&allSchemas, "all-schemas", false, "include attestations under any schema")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(agentKey == "").InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	var query lifecycle.ListQuery
	if agentKey != "" {
		if query.Nonce, err = parseKey("agent", agentKey); err != nil {
			return err
		}
	} else {
		query.Nonce = app.Signer.PublicKey()
	}
	if !allSchemas {
		if summary, err := addresses.Load(app.Config.Addresses); err == nil {
			if query.Schema, err = parseKey("addresses.schema", summary.Schema); err != nil {
				return err
			}
		}
	}

	reports, err := app.Manager.List(context.Background(), query)
	if err != nil {
		return err
	}

	p.Heading(fmt.Sprintf("%d attestation(s) for %s", len(reports), query.Nonce))
	for _, report := range reports {
		printReport(p, report)
	}
	return p.Result(utilities.Map(reports, newReportView))
}

func (r *Runner) runRevoke(p *presenter.Presenter, args []string) error {
	var g globalFlags
	fs := r.newFlagSet("revoke", "revoke <attestation-address>")
	if err := r.parse(fs, &g, args); err != nil {
		return err
	}
	address, err := addressArg(fs.Args())
	if err != nil {
		return err
	}

	app, err := r.newApp(&g).LoadConfig().InitLogger().LoadSigner(true).InitChain().InitManager().Build()
	if err != nil {
		return err
	}
	defer app.Close()

	step, err := app.Manager.Revoke(context.Background(), address)
	if err != nil {
		return err
	}
	p.Success("revoked %s", address)
	p.Row("signature", step.Signature)
	return p.Result(newStepView(step))
}
