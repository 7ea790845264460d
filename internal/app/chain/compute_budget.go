package chain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
)

var ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

const (
	MaxComputeUnits     uint32 = 1_400_000
	DefaultComputeUnits uint32 = 200_000

	setComputeUnitLimit uint8 = 2
)

type computeUnitLimitArgs struct {
	Discriminator uint8
	Units         uint32
}

func SetComputeUnitLimit(units uint32) (solana.Instruction, error) {
	data, err := borsh.Serialize(computeUnitLimitArgs{Discriminator: setComputeUnitLimit, Units: units})
	if err != nil {
		return nil, fmt.Errorf("encode compute unit limit: %w", err)
	}
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data), nil
}

// UnitsWithMargin pads a simulated unit count by a fifth, within the
// per-transaction maximum.
func UnitsWithMargin(consumed uint64) uint32 {
	if consumed == 0 {
		return DefaultComputeUnits
	}
	padded := consumed + consumed/5
	if padded > uint64(MaxComputeUnits) {
		return MaxComputeUnits
	}
	return uint32(padded)
}
