package ledger

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// rentPerByte approximates the cluster's rent exemption formula closely
// enough for dry runs.
const rentPerByte = 6960

// Memory is an in-process ledger used for dry runs and tests. It verifies
// signatures on every submitted transaction but does not execute
// instructions.
type Memory struct {
	mu        sync.Mutex
	slot      uint64
	balances  map[solana.PublicKey]uint64
	tokens    map[solana.PublicKey]uint64
	owners    map[solana.PublicKey][]solana.PublicKey
	sent      []*solana.Transaction
	failSend  []error
	simErrors []string
}

func NewMemory() *Memory {
	return &Memory{
		balances: make(map[solana.PublicKey]uint64),
		tokens:   make(map[solana.PublicKey]uint64),
		owners:   make(map[solana.PublicKey][]solana.PublicKey),
	}
}

// Airdrop credits lamports to account.
func (m *Memory) Airdrop(account solana.PublicKey, lamports uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += lamports
}

// CreditTokens credits amount base units of mint to owner's associated token
// account, creating it when needed.
func (m *Memory) CreditTokens(owner, mint solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[ata]; !ok {
		m.owners[owner] = append(m.owners[owner], ata)
	}
	m.tokens[ata] += amount
	return ata, nil
}

// FailNextSend makes the next SendRawTransaction return err.
func (m *Memory) FailNextSend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSend = append(m.failSend, err)
}

// FailNextSimulation makes the next simulation report msg as its error.
func (m *Memory) FailNextSimulation(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.simErrors = append(m.simErrors, msg)
}

// Sent returns the transactions accepted so far, in submission order.
func (m *Memory) Sent() []*solana.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*solana.Transaction, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *Memory) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := ctx.Err(); err != nil {
		return solana.Hash{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot++
	return solana.Hash(sha256.Sum256([]byte(fmt.Sprintf("slot-%d", m.slot)))), nil
}

func (m *Memory) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("decode transaction: %w", err)
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("verify signatures: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failSend) > 0 {
		err := m.failSend[0]
		m.failSend = m.failSend[1:]
		return solana.Signature{}, err
	}
	m.sent = append(m.sent, tx)
	return tx.Signatures[0], nil
}

func (m *Memory) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (SimulationResult, error) {
	if err := ctx.Err(); err != nil {
		return SimulationResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.simErrors) > 0 {
		msg := m.simErrors[0]
		m.simErrors = m.simErrors[1:]
		return SimulationResult{Err: msg, Logs: []string{"Program log: " + msg}}, nil
	}
	return SimulationResult{Logs: []string{fmt.Sprintf("simulated %d instructions", len(tx.Message.Instructions))}}, nil
}

func (m *Memory) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.owners[owner] {
		if acc.Equals(ata) {
			return []solana.PublicKey{ata}, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return (size + 128) * rentPerByte, nil
}

func (m *Memory) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

func (m *Memory) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount, ok := m.tokens[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return amount, nil
}
