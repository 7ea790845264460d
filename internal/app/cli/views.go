package cli

import (
	"github.com/amilzbot/agent-proof-cli/internal/app/agent"
	"github.com/amilzbot/agent-proof-cli/internal/app/lifecycle"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
)

// JSON shapes of command results.

type stepView struct {
	Address   string `json:"address"`
	Signature string `json:"signature,omitempty"`
	Skipped   bool   `json:"skipped"`
}

func newStepView(s lifecycle.Step) stepView {
	return stepView{Address: s.Address.String(), Signature: signatureString(s.Signature), Skipped: s.Skipped}
}

type deploymentView struct {
	Network          string   `json:"network"`
	Authority        string   `json:"authority"`
	Credential       stepView `json:"credential"`
	Schema           stepView `json:"schema"`
	SchemaCollection stepView `json:"schema_collection"`
	SchemaName       string   `json:"schema_name"`
	SchemaVersion    int      `json:"schema_version"`
	AddressesFile    string   `json:"addresses_file"`
}

type attestationView struct {
	Address         string `json:"address"`
	AttestationMint string `json:"attestation_mint"`
	TokenAccount    string `json:"token_account"`
	Nonce           string `json:"nonce"`
	Recipient       string `json:"recipient"`
	Signature       string `json:"signature"`
	Expiry          string `json:"expiry"`
	ExpiryUnix      int64  `json:"expiry_unix"`
}

type reportView struct {
	Address       string         `json:"address"`
	Valid         bool           `json:"valid"`
	Credential    string         `json:"credential"`
	Schema        string         `json:"schema"`
	SchemaName    string         `json:"schema_name"`
	SchemaVersion uint8          `json:"schema_version"`
	SchemaPaused  bool           `json:"schema_paused"`
	Nonce         string         `json:"nonce"`
	Signer        string         `json:"signer"`
	Expiry        string         `json:"expiry"`
	ExpiryUnix    int64          `json:"expiry_unix"`
	Expired       bool           `json:"expired"`
	TokenAccount  string         `json:"token_account"`
	TokenPresent  bool           `json:"token_present"`
	Data          map[string]any `json:"data"`
	// Agent is set for attestations under the agent-identity schema.
	Agent *agent.Claim `json:"agent,omitempty"`
}

// valid is the verdict verify prints: live schema, unexpired, token held.
func valid(r *lifecycle.Report) bool {
	return !r.SchemaPaused && !r.Expired && r.TokenPresent
}

func newReportView(r *lifecycle.Report) reportView {
	view := reportView{
		Address:       r.Address.String(),
		Valid:         valid(r),
		Credential:    r.Credential.String(),
		Schema:        r.Schema.String(),
		SchemaName:    r.SchemaName,
		SchemaVersion: r.SchemaVersion,
		SchemaPaused:  r.SchemaPaused,
		Nonce:         r.Nonce.String(),
		Signer:        r.Signer.String(),
		Expiry:        r.Expiry.String(),
		ExpiryUnix:    r.Expiry.T,
		Expired:       r.Expired,
		TokenAccount:  r.TokenAccount.String(),
		TokenPresent:  r.TokenPresent,
		Data:          r.Record.Map(),
	}
	if r.SchemaName == agent.SchemaName {
		claim := agent.ClaimFromRecord(r.Record)
		view.Agent = &claim
	}
	return view
}

type presenceView struct {
	Address string `json:"address"`
	Exists  bool   `json:"exists"`
}

type statusView struct {
	Network          string       `json:"network"`
	RPCURL           string       `json:"rpc_url"`
	Authority        string       `json:"authority"`
	BalanceLamports  uint64       `json:"balance_lamports"`
	BalanceSOL       float64      `json:"balance_sol"`
	Credential       presenceView `json:"credential"`
	Schema           presenceView `json:"schema"`
	SchemaCollection presenceView `json:"schema_collection"`
}

func signatureString(sig solana.Signature) string {
	if sig == (solana.Signature{}) {
		return ""
	}
	return sig.String()
}

func lamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}

func timeString(unix int64) string {
	return timeutil.TimeUTC{T: unix}.String()
}
