package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/santiagomed/launchpad/logger"
)

// RPC is a Client backed by a Solana JSON-RPC endpoint.
type RPC struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	logger     logger.Logger
}

// NewRPC creates a ledger client for endpoint. An empty commitment means confirmed.
func NewRPC(endpoint string, commitment string, l logger.Logger) *RPC {
	if l == nil {
		l = logger.NewNullLogger()
	}
	c := rpc.CommitmentType(commitment)
	if commitment == "" {
		c = rpc.CommitmentConfirmed
	}
	return &RPC{
		rpc:        rpc.New(endpoint),
		commitment: c,
		logger:     l.WithField("component", "ledger"),
	}
}

func (r *RPC) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := r.rpc.GetLatestBlockhash(ctx, r.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: empty response")
	}
	return out.Value.Blockhash, nil
}

func (r *RPC) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	sig, err := r.rpc.SendRawTransaction(ctx, raw)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	r.logger.Debug(fmt.Sprintf("Submitted transaction %s", sig))
	return sig, nil
}

func (r *RPC) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (SimulationResult, error) {
	out, err := r.rpc.SimulateTransaction(ctx, tx)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("simulate transaction: %w", err)
	}
	if out == nil || out.Value == nil {
		return SimulationResult{}, fmt.Errorf("simulate transaction: empty response")
	}
	res := SimulationResult{Logs: out.Value.Logs}
	if out.Value.Err != nil {
		res.Err = fmt.Sprintf("%v", out.Value.Err)
	}
	return res, nil
}

func (r *RPC) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	filter := mint
	out, err := r.rpc.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{Mint: &filter},
		&rpc.GetTokenAccountsOpts{Commitment: r.commitment, Encoding: solana.EncodingBase64},
	)
	if err != nil {
		return nil, fmt.Errorf("get token accounts for %s: %w", owner, err)
	}
	accounts := make([]solana.PublicKey, 0, len(out.Value))
	for _, acc := range out.Value {
		accounts = append(accounts, acc.Pubkey)
	}
	return accounts, nil
}

func (r *RPC) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := r.rpc.GetMinimumBalanceForRentExemption(ctx, size, r.commitment)
	if err != nil {
		return 0, fmt.Errorf("get rent exemption for %d bytes: %w", size, err)
	}
	return lamports, nil
}

func (r *RPC) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := r.rpc.GetBalance(ctx, account, r.commitment)
	if err != nil {
		return 0, fmt.Errorf("get balance of %s: %w", account, err)
	}
	return out.Value, nil
}

func (r *RPC) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := r.rpc.GetTokenAccountBalance(ctx, account, r.commitment)
	if err != nil {
		return 0, fmt.Errorf("get token balance of %s: %w", account, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}
