package remote

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/santiagomed/launchpad/wallet"
)

// submit sends each instruction group as its own transaction, strictly in
// order. Every transaction gets a fresh blockhash, the extra signers it needs,
// the wallet signature and a preflight simulation. The first failure aborts
// the batch; signatures of transactions already sent are not reported as a
// success.
func (s *Solana) submit(ctx context.Context, op OperationKind, owner solana.PublicKey, groups [][]solana.Instruction, signers []solana.PrivateKey) ([]string, error) {
	if len(groups) == 0 {
		return nil, newError(op, KindMalformed, "no transactions to submit", nil)
	}

	sigs := make([]string, 0, len(groups))
	for i, ixs := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := fmt.Sprintf("transaction %d/%d", i+1, len(groups))
		if len(ixs) == 0 {
			return nil, newError(op, KindMalformed, step+" has no instructions", nil)
		}

		blockhash, err := s.ledger.GetLatestBlockhash(ctx)
		if err != nil {
			return nil, err
		}
		tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(owner))
		if err != nil {
			return nil, newError(op, KindMalformed, "build "+step, err)
		}

		for _, key := range signers {
			if !wallet.IsSigner(tx, key.PublicKey()) {
				continue
			}
			if err := wallet.Sign(tx, key); err != nil {
				return nil, newError(op, KindMalformed, "co-sign "+step, err)
			}
		}
		if err := s.wallet.SignTransaction(ctx, tx); err != nil {
			return nil, err
		}

		sim, err := s.ledger.SimulateTransaction(ctx, tx)
		if err != nil {
			return nil, err
		}
		if sim.Err != "" {
			s.logger.WithField("logs", sim.Logs).Warn(fmt.Sprintf("%s %s failed simulation: %s", op, step, sim.Err))
			kind := KindSimulation
			if isInsufficientFunds(sim.Err) {
				kind = KindInsufficientFunds
			}
			return nil, newError(op, kind, step+" rejected in simulation: "+sim.Err, nil)
		}

		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, newError(op, KindMalformed, "encode "+step, err)
		}
		sig, err := s.ledger.SendRawTransaction(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("%s after %d sent: %w", step, len(sigs), err)
		}
		s.logger.Info(fmt.Sprintf("%s %s sent: %s", op, step, sig))
		sigs = append(sigs, sig.String())
	}
	return sigs, nil
}
