package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/amilzbot/agent-proof-cli/internal/app/addresses"
	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain/chaintest"
	"github.com/amilzbot/agent-proof-cli/internal/app/config"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/presenter"
	"github.com/amilzbot/agent-proof-cli/pkg/reasoncodes"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t         *testing.T
	chain     *chaintest.Chain
	clock     *timeutil.Fixed
	keypair   string
	addresses string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	for _, key := range []string{config.EnvRPCURL, config.EnvKeypair, config.EnvNetwork, config.EnvAMQPURL,
		config.EnvAddresses, config.EnvExpiryDays, config.EnvLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return &harness{
		t:         t,
		chain:     chaintest.New(),
		clock:     &timeutil.Fixed{At: timeutil.TimeUTC{T: 1_750_000_000}},
		keypair:   filepath.Join(dir, "id.json"),
		addresses: filepath.Join(dir, "addresses.json"),
	}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (h *harness) run(args ...string) result {
	var stdout, stderr bytes.Buffer
	r := &Runner{
		Stdout:   &stdout,
		Stderr:   &stderr,
		NewChain: func(config.Config) chain.Chain { return h.chain },
		Clock:    h.clock,
		Notifier: events.Nop{},
	}
	args = append(args, "--keypair", h.keypair, "--addresses", h.addresses, "--no-color")
	code := r.Run(args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

type envelope struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Error   *presenter.ErrorBody `json:"error"`
}

func decode[T any](t *testing.T, res result) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &env), res.stdout)
	require.True(t, env.Success, res.stdout)
	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func decodeError(t *testing.T, res result) *presenter.ErrorBody {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &env), res.stdout)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error
}

// funded creates the keypair and tops it up.
func (h *harness) funded() {
	h.t.Helper()
	require.Equal(h.t, ExitOK, h.run("keygen").code)
	require.Equal(h.t, ExitOK, h.run("airdrop", "--amount", "2").code)
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.funded()

	res := h.run("init", "--name", "nix", "--type", "claude", "--platform", "openclaw", "--json")
	require.Equal(t, ExitOK, res.code, res.stdout+res.stderr)
	deployment := decode[deploymentView](t, res)
	assert.False(t, deployment.Credential.Skipped)
	assert.Equal(t, "agent-identity", deployment.SchemaName)

	summary, err := addresses.Load(h.addresses)
	require.NoError(t, err)
	assert.Equal(t, "nix", summary.Agent.Name)
	assert.Equal(t, deployment.Schema.Address, summary.Schema)

	res = h.run("attest", "--name", "nix", "--json")
	require.Equal(t, ExitOK, res.code, res.stdout+res.stderr)
	issued := decode[attestationView](t, res)
	assert.Equal(t, h.clock.At.AddDays(config.DefaultExpiryDays).T, issued.ExpiryUnix)

	res = h.run("verify", issued.Address, "--json")
	require.Equal(t, ExitOK, res.code, res.stdout+res.stderr)
	report := decode[reportView](t, res)
	assert.Equal(t, "nix", report.Data["agent_name"])
	assert.Equal(t, "claude", report.Data["agent_type"])
	assert.Equal(t, "openclaw", report.Data["platform"])
	require.NotNil(t, report.Agent)
	assert.Equal(t, "nix", report.Agent.AgentName)
	assert.Equal(t, summary.Authority, report.Agent.OwnerPubkey)
	assert.False(t, report.Expired)
	assert.True(t, report.TokenPresent)
	assert.True(t, report.Valid)
}

func TestVerifyTextOutput(t *testing.T) {
	h := newHarness(t)
	h.funded()
	require.Equal(t, ExitOK, h.run("init", "--name", "nix").code)

	res := h.run("attest", "--json")
	require.Equal(t, ExitOK, res.code, res.stdout+res.stderr)
	issued := decode[attestationView](t, res)

	res = h.run("verify", issued.Address)
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "agent_name: nix")
	assert.Contains(t, res.stdout, "✓ valid")
}

func TestVerifyMissingIsNotFound(t *testing.T) {
	h := newHarness(t)
	missing := solana.NewWallet().PublicKey().String()

	res := h.run("verify", missing, "--json")
	assert.Equal(t, ExitNotFound, res.code)
	body := decodeError(t, res)
	assert.Equal(t, reasoncodes.ErrNotFound, body.Code)
	assert.Contains(t, body.Message, "no proof found")

	res = h.run("verify", missing)
	assert.Equal(t, ExitNotFound, res.code)
	assert.Contains(t, res.stderr, "no proof found")
}

func TestVerifySurfacesCorruptKeypair(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.keypair, []byte("not a keypair"), 0o600))

	res := h.run("verify", solana.NewWallet().PublicKey().String(), "--json")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, decodeError(t, res).Message, "keypair")
}

func TestRerunsAreIdempotent(t *testing.T) {
	h := newHarness(t)
	h.funded()
	require.Equal(t, ExitOK, h.run("init", "--name", "nix").code)

	res := h.run("init", "--name", "nix", "--json")
	require.Equal(t, ExitOK, res.code)
	deployment := decode[deploymentView](t, res)
	assert.True(t, deployment.Credential.Skipped)
	assert.True(t, deployment.Schema.Skipped)
	assert.True(t, deployment.SchemaCollection.Skipped)

	require.Equal(t, ExitOK, h.run("attest").code)
	res = h.run("attest", "--json")
	assert.Equal(t, ExitFailure, res.code)
	assert.Equal(t, reasoncodes.ErrAlreadyExists, decodeError(t, res).Code)

	res = h.run("attest", "--nonce", solana.NewWallet().PublicKey().String())
	assert.Equal(t, ExitOK, res.code, res.stderr)
}

func TestRevokeThenVerify(t *testing.T) {
	h := newHarness(t)
	h.funded()
	require.Equal(t, ExitOK, h.run("init", "--name", "nix").code)
	issued := decode[attestationView](t, h.run("attest", "--json"))

	res := h.run("revoke", issued.Address)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "revoked")

	assert.Equal(t, ExitNotFound, h.run("verify", issued.Address).code)
}

func TestListAndStatus(t *testing.T) {
	h := newHarness(t)
	h.funded()

	res := h.run("status", "--json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	status := decode[statusView](t, res)
	assert.False(t, status.Credential.Exists)
	assert.Equal(t, 2.0, status.BalanceSOL)

	require.Equal(t, ExitOK, h.run("init", "--name", "nix").code)
	issued := decode[attestationView](t, h.run("attest", "--json"))

	status = decode[statusView](t, h.run("status", "--json"))
	assert.True(t, status.Credential.Exists)
	assert.True(t, status.Schema.Exists)
	assert.True(t, status.SchemaCollection.Exists)

	reports := decode[[]reportView](t, h.run("list", "--json"))
	require.Len(t, reports, 1)
	assert.Equal(t, issued.Address, reports[0].Address)

	reports = decode[[]reportView](t, h.run("list", "--agent", solana.NewWallet().PublicKey().String(), "--json"))
	assert.Empty(t, reports)
}

func TestValidationFailures(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no command", nil, ExitValidation},
		{"unknown command", []string{"create"}, ExitValidation},
		{"unknown flag", []string{"status", "--bogus"}, ExitValidation},
		{"bad address", []string{"verify", "not-an-address"}, ExitValidation},
		{"verify without address", []string{"verify"}, ExitValidation},
		{"missing keypair", []string{"init", "--name", "nix"}, ExitValidation},
		{"conflicting networks", []string{"status", "--devnet", "--mainnet"}, ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run(tt.args...)
			assert.Equal(t, tt.code, res.code, res.stderr)
		})
	}
}

func TestInitValidatesBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	h.funded()

	res := h.run("init", "--name", "an-agent-name-longer-than-the-limit-of-32")
	assert.Equal(t, ExitValidation, res.code)
	assert.Empty(t, h.chain.Submitted())
}

func TestInitRejectsEmptyCollection(t *testing.T) {
	h := newHarness(t)
	h.funded()

	res := h.run("init", "--name", "nix", "--collection-size", "0")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "collection size")
}

func TestAttestRequiresInit(t *testing.T) {
	h := newHarness(t)
	h.funded()

	res := h.run("attest", "--name", "nix")
	assert.Equal(t, ExitNotFound, res.code)
	assert.Contains(t, res.stderr, "run init")
}

func TestAirdropRefusesMainnet(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitOK, h.run("keygen").code)

	res := h.run("airdrop", "--mainnet")
	assert.Equal(t, ExitValidation, res.code)
}

func TestKeygenKeepsExistingKey(t *testing.T) {
	h := newHarness(t)

	first := decode[map[string]any](t, h.run("keygen", "--json"))
	second := decode[map[string]any](t, h.run("keygen", "--json"))

	assert.Equal(t, true, first["created"])
	assert.Equal(t, false, second["created"])
	assert.Equal(t, first["public_key"], second["public_key"])
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitValidation, ExitCode(apperrors.Invalid("name", "", "required")))
	assert.Equal(t, ExitNotFound, ExitCode(&apperrors.NotFoundError{Kind: "proof"}))
	assert.Equal(t, ExitFailure, ExitCode(&apperrors.AlreadyExistsError{Kind: "attestation"}))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
}

func TestHasFlag(t *testing.T) {
	assert.True(t, hasFlag([]string{"verify", "x", "--json"}, "json"))
	assert.True(t, hasFlag([]string{"--json=true"}, "json"))
	assert.False(t, hasFlag([]string{"--", "--json"}, "json"))
	assert.False(t, hasFlag([]string{"--jsonish"}, "json"))
}
