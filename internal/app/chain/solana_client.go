package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient implements Chain over JSON-RPC. One client is built per
// process and handed to whatever needs the network.
type SolanaClient struct {
	RpcClient *rpc.Client
	Config    Config
}

func NewSolanaClient(cfg Config) *SolanaClient {
	cfg = cfg.withDefaults()
	return &SolanaClient{
		RpcClient: rpc.New(cfg.RPCURL),
		Config:    cfg,
	}
}

func (sc *SolanaClient) Account(ctx context.Context, address solana.PublicKey) (*Account, error) {
	solanaLogger := logger.Default()
	solanaLogger.Debugf("Fetching account %s", address)

	res, err := sc.RpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: sc.Config.Commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		solanaLogger.Debugf("Account %s does not exist", address)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Network("get account info", err)
	}
	if res == nil || res.Value == nil {
		return nil, nil
	}

	return &Account{
		Address:    address,
		Owner:      res.Value.Owner,
		Lamports:   res.Value.Lamports,
		Data:       res.Value.Data.GetBinary(),
		Executable: res.Value.Executable,
	}, nil
}

func (sc *SolanaClient) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	res, err := sc.RpcClient.GetBalance(ctx, address, sc.Config.Commitment)
	if err != nil {
		return 0, apperrors.Network("get balance", err)
	}
	logger.Default().Debugf("Balance of %s: %d lamports", address, res.Value)
	return res.Value, nil
}

func (sc *SolanaClient) ProgramAccounts(ctx context.Context, program solana.PublicKey, filters ...Filter) ([]*Account, error) {
	opts := &rpc.GetProgramAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: sc.Config.Commitment,
	}
	for _, f := range filters {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{Offset: f.Offset, Bytes: solana.Base58(f.Bytes)},
		})
	}

	res, err := sc.RpcClient.GetProgramAccountsWithOpts(ctx, program, opts)
	if err != nil {
		return nil, apperrors.Network("get program accounts", err)
	}

	accounts := make([]*Account, 0, len(res))
	for _, keyed := range res {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		accounts = append(accounts, &Account{
			Address:    keyed.Pubkey,
			Owner:      keyed.Account.Owner,
			Lamports:   keyed.Account.Lamports,
			Data:       keyed.Account.Data.GetBinary(),
			Executable: keyed.Account.Executable,
		})
	}
	logger.Default().Debugf("Program %s: %d matching accounts", program, len(accounts))
	return accounts, nil
}

func (sc *SolanaClient) Submit(ctx context.Context, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	if len(signers) == 0 {
		return solana.Signature{}, fmt.Errorf("submit: no fee payer")
	}
	solanaLogger := logger.Default()
	payer := signers[0]

	latest, err := sc.RpcClient.GetLatestBlockhash(ctx, sc.Config.Commitment)
	if err != nil {
		return solana.Signature{}, apperrors.Network("get latest blockhash", err)
	}

	units, err := sc.estimateUnits(ctx, instructions, latest.Value.Blockhash, signers)
	if err != nil {
		return solana.Signature{}, err
	}
	solanaLogger.Debugf("Compute unit limit: %d", units)

	tx, err := buildSigned(instructions, units, latest.Value.Blockhash, signers)
	if err != nil {
		return solana.Signature{}, err
	}

	signature, err := sc.RpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: sc.Config.Commitment,
	})
	if err != nil {
		solanaLogger.Errorf(err, "Failed to send transaction from %s", payer.PublicKey())
		return solana.Signature{}, apperrors.Network("send transaction", err)
	}
	solanaLogger.Infof("Sent transaction %s", signature)

	if err := sc.confirm(ctx, signature); err != nil {
		return signature, err
	}
	solanaLogger.Infof("Confirmed transaction %s", signature)
	return signature, nil
}

func (sc *SolanaClient) Airdrop(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	signature, err := sc.RpcClient.RequestAirdrop(ctx, address, lamports, sc.Config.Commitment)
	if err != nil {
		return solana.Signature{}, apperrors.Network("request airdrop", err)
	}
	if err := sc.confirm(ctx, signature); err != nil {
		return signature, err
	}
	return signature, nil
}

func buildSigned(instructions []solana.Instruction, units uint32, blockhash solana.Hash, signers []solana.PrivateKey) (*solana.Transaction, error) {
	limit, err := SetComputeUnitLimit(units)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		append([]solana.Instruction{limit}, instructions...),
		blockhash,
		solana.TransactionPayer(signers[0].PublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(pk) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// estimateUnits simulates the transaction at the maximum limit. A
// simulation that reports a program error fails the submission, since
// the real transaction would fail the same way.
func (sc *SolanaClient) estimateUnits(ctx context.Context, instructions []solana.Instruction, blockhash solana.Hash, signers []solana.PrivateKey) (uint32, error) {
	solanaLogger := logger.Default()

	tx, err := buildSigned(instructions, MaxComputeUnits, blockhash, signers)
	if err != nil {
		return 0, err
	}

	res, err := sc.RpcClient.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		Commitment:             sc.Config.Commitment,
		ReplaceRecentBlockhash: true,
	})
	if err != nil || res == nil || res.Value == nil {
		solanaLogger.Warnf("Simulation unavailable, using %d compute units: %v", DefaultComputeUnits, err)
		return DefaultComputeUnits, nil
	}
	if res.Value.Err != nil {
		return 0, apperrors.Network("simulate transaction",
			fmt.Errorf("%v\n%s", res.Value.Err, strings.Join(res.Value.Logs, "\n")))
	}

	var consumed uint64
	if res.Value.UnitsConsumed != nil {
		consumed = *res.Value.UnitsConsumed
	}
	return UnitsWithMargin(consumed), nil
}

func (sc *SolanaClient) confirm(ctx context.Context, signature solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, sc.Config.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(sc.Config.PollInterval)
	defer ticker.Stop()

	for {
		res, err := sc.RpcClient.GetSignatureStatuses(ctx, false, signature)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return apperrors.Network("confirm transaction",
					fmt.Errorf("transaction %s failed: %v", signature, status.Err))
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		} else if err != nil {
			logger.Default().Debugf("Signature status for %s unavailable: %v", signature, err)
		}

		select {
		case <-ctx.Done():
			return apperrors.Network("confirm transaction",
				fmt.Errorf("%s not confirmed within %s", signature, sc.Config.ConfirmTimeout))
		case <-ticker.C:
		}
	}
}
