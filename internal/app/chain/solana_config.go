package chain

import (
	"context"
	"time"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type Config struct {
	RPCURL         string
	Commitment     rpc.CommitmentType
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.Commitment == "" {
		c.Commitment = rpc.CommitmentConfirmed
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// ValidateProgramExecutable checks that program is deployed on the
// network c talks to.
func ValidateProgramExecutable(ctx context.Context, c Chain, program solana.PublicKey) error {
	account, err := c.Account(ctx, program)
	if err != nil {
		return err
	}
	if account == nil || !account.Executable {
		return &apperrors.NotFoundError{Kind: "deployed program", Address: program.String()}
	}
	return nil
}
