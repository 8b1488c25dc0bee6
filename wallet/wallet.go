// Package wallet provides the wallet connector the wizard signs with.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrRejected     = errors.New("signature rejected")
	ErrNotSigner    = errors.New("key is not a required signer")
)

// Wallet is a connected (or disconnected) signer. PublicKey reports false
// while no wallet is connected.
type Wallet interface {
	PublicKey() (solana.PublicKey, bool)
	Connected() bool
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// IsSigner reports whether pub is one of the message's required signers.
func IsSigner(tx *solana.Transaction, pub solana.PublicKey) bool {
	return signerIndex(tx, pub) >= 0
}

func signerIndex(tx *solana.Transaction, pub solana.PublicKey) int {
	n := int(tx.Message.Header.NumRequiredSignatures)
	for i := 0; i < n && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(pub) {
			return i
		}
	}
	return -1
}

// Sign adds key's signature to tx in the slot the message reserves for it.
// Other signatures are left untouched.
func Sign(tx *solana.Transaction, key solana.PrivateKey) error {
	pub := key.PublicKey()
	idx := signerIndex(tx, pub)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotSigner, pub)
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}

	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < n {
		sigs := make([]solana.Signature, n)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	tx.Signatures[idx] = sig
	return nil
}
