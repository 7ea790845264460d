// Package chain is the boundary to the Solana network: account reads,
// and building, signing, sending and confirming transactions.
package chain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Account is an on-chain account snapshot.
type Account struct {
	Address    solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Filter matches accounts whose data holds Bytes at Offset.
type Filter struct {
	Offset uint64
	Bytes  []byte
}

type Chain interface {
	// Account returns nil, nil when no account exists at address.
	Account(ctx context.Context, address solana.PublicKey) (*Account, error)
	Balance(ctx context.Context, address solana.PublicKey) (uint64, error)
	ProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]*Account, error)
	// Submit sends instructions as one transaction and returns once it
	// is confirmed. The first signer pays the fee.
	Submit(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error)
	Airdrop(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error)
}

// Exists reports whether an account is present at address.
func Exists(ctx context.Context, c Chain, address solana.PublicKey) (bool, error) {
	account, err := c.Account(ctx, address)
	if err != nil {
		return false, err
	}
	return account != nil, nil
}
