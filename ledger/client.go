// Package ledger is the narrow view of a Solana cluster used by the remote
// operation adapter.
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrAccountNotFound = errors.New("account not found")

// SimulationResult is the outcome of a preflight simulation. Err is empty when
// the transaction would succeed.
type SimulationResult struct {
	Err  string
	Logs []string
}

// Client is the ledger surface the adapter depends on.
type Client interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (SimulationResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}
