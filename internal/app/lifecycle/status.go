package lifecycle

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

type Presence struct {
	Address solana.PublicKey
	Exists  bool
}

type Status struct {
	Authority   solana.PublicKey
	Balance     uint64
	Credential  Presence
	Schema      Presence
	SchemaToken Presence
}

// Status reports the signer's balance and which parts of a deployment
// exist on chain.
func (m *Manager) Status(ctx context.Context, credential, schemaAddress solana.PublicKey) (*Status, error) {
	balance, err := m.Chain.Balance(ctx, m.Authority())
	if err != nil {
		return nil, err
	}

	mint, err := m.Program.SchemaMintAddress(schemaAddress)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Authority:   m.Authority(),
		Balance:     balance,
		Credential:  Presence{Address: credential},
		Schema:      Presence{Address: schemaAddress},
		SchemaToken: Presence{Address: mint},
	}
	for _, p := range []*Presence{&status.Credential, &status.Schema, &status.SchemaToken} {
		if p.Exists, err = m.exists(ctx, p.Address); err != nil {
			return nil, err
		}
	}
	return status, nil
}
