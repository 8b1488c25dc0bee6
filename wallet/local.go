package wallet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/afero"
)

// Approver is consulted before every signature. Returning an error rejects
// the signature request.
type Approver func(ctx context.Context, tx *solana.Transaction) error

// Local signs with a keypair held in memory. A Local without a key behaves
// as a disconnected wallet.
type Local struct {
	key     *solana.PrivateKey
	approve Approver
}

// NewLocal returns a wallet connected with key.
func NewLocal(key solana.PrivateKey, approve Approver) *Local {
	return &Local{key: &key, approve: approve}
}

// Disconnected returns a wallet that has no key.
func Disconnected() *Local {
	return &Local{}
}

// Ephemeral returns a wallet connected with a freshly generated key.
func Ephemeral() (*Local, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return NewLocal(key, nil), nil
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(fs afero.Fs, path string) (*Local, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", path, err)
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("parse keypair %s: %w", path, err)
	}
	if len(ints) != 64 {
		return nil, fmt.Errorf("parse keypair %s: expected 64 bytes, got %d", path, len(ints))
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("parse keypair %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}
	return NewLocal(solana.PrivateKey(raw), nil), nil
}

func (w *Local) PublicKey() (solana.PublicKey, bool) {
	if w == nil || w.key == nil {
		return solana.PublicKey{}, false
	}
	return w.key.PublicKey(), true
}

func (w *Local) Connected() bool {
	_, ok := w.PublicKey()
	return ok
}

func (w *Local) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	if w.approve != nil {
		if err := w.approve(ctx, tx); err != nil {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	return Sign(tx, *w.key)
}
