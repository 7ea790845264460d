// Package lifecycle drives an agent identity through the attestation
// service: credential, schema, schema collection, attestation, then
// verify or revoke. Every step derives its addresses first and checks
// what already exists on chain, so any step can be re-run safely.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/internal/app/chain"
	"github.com/amilzbot/agent-proof-cli/internal/app/events"
	"github.com/amilzbot/agent-proof-cli/internal/app/sas"
	"github.com/amilzbot/agent-proof-cli/pkg/logger"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
)

// DefaultMinBalance is 0.005 SOL, enough for the rent and fees of the
// largest step.
const DefaultMinBalance uint64 = 5_000_000

type Manager struct {
	Chain   chain.Chain
	Program sas.Program
	// Signer pays for and authorizes every transaction.
	Signer     solana.PrivateKey
	Clock      timeutil.Clock
	Logger     *logger.Logger
	Notifier   events.Notifier
	MinBalance uint64
	// CollectionSize caps how many proof tokens a schema collection holds.
	CollectionSize uint64
}

func NewManager(c chain.Chain, signer solana.PrivateKey) *Manager {
	return &Manager{
		Chain:          c,
		Program:        sas.Default,
		Signer:         signer,
		Clock:          timeutil.System(),
		Logger:         logger.Default(),
		Notifier:       events.Nop{},
		MinBalance:     DefaultMinBalance,
		CollectionSize: sas.DefaultCollectionSize,
	}
}

// Step is the outcome of one state-advancing operation. Skipped means
// the account already existed and nothing was submitted.
type Step struct {
	Address   solana.PublicKey
	Signature solana.Signature
	Skipped   bool
}

func (m *Manager) Authority() solana.PublicKey {
	return m.Signer.PublicKey()
}

func (m *Manager) now() timeutil.TimeUTC {
	if m.Clock == nil {
		return timeutil.NowUTC()
	}
	return m.Clock.Now()
}

func (m *Manager) log() *logger.Logger {
	if m.Logger == nil {
		return logger.Default()
	}
	return m.Logger
}

func (m *Manager) exists(ctx context.Context, address solana.PublicKey) (bool, error) {
	m.log().Debugf("Checking for account at %s", address)
	return chain.Exists(ctx, m.Chain, address)
}

func (m *Manager) checkBalance(ctx context.Context) error {
	balance, err := m.Chain.Balance(ctx, m.Authority())
	if err != nil {
		return err
	}
	if balance < m.MinBalance {
		return &apperrors.InsufficientFundsError{
			Account:  m.Authority().String(),
			Balance:  balance,
			Required: m.MinBalance,
		}
	}
	return nil
}

// submit sends instructions signed by the manager's signer after the
// balance precondition, and notifies on success.
func (m *Manager) submit(ctx context.Context, event events.Type, address solana.PublicKey, instructions ...solana.Instruction) (Step, error) {
	if err := m.checkBalance(ctx); err != nil {
		return Step{}, err
	}

	signature, err := m.Chain.Submit(ctx, instructions, m.Signer)
	if err != nil {
		return Step{}, fmt.Errorf("submit transaction for %s: %w", address, err)
	}
	m.log().Infof("%s %s in %s", event, address, signature)

	if m.Notifier != nil {
		m.Notifier.Notify(ctx, events.New(event, address, signature, m.now()))
	}
	return Step{Address: address, Signature: signature}, nil
}
