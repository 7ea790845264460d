package tokenext

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

// AssociatedTokenAddress is owner's token account for a Token-2022 mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), Token2022ProgramID.Bytes(), mint.Bytes()},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return address, nil
}

const tokenAccountHeaderLen = 72

// TokenAccount is the fixed prefix of an SPL token account.
type TokenAccount struct {
	Mint   [32]byte
	Owner  [32]byte
	Amount uint64
}

func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < tokenAccountHeaderLen {
		return nil, fmt.Errorf("token account data is %d bytes, need %d", len(data), tokenAccountHeaderLen)
	}
	var account TokenAccount
	if err := borsh.Deserialize(&account, data[:tokenAccountHeaderLen]); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &account, nil
}

func (ta *TokenAccount) OwnerKey() solana.PublicKey { return solana.PublicKeyFromBytes(ta.Owner[:]) }
func (ta *TokenAccount) MintKey() solana.PublicKey  { return solana.PublicKeyFromBytes(ta.Mint[:]) }
