package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/santiagomed/launchpad/ledger"
	"github.com/santiagomed/launchpad/wallet"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotConnected
	KindRejected
	KindInsufficientFunds
	KindNetwork
	KindTimeout
	KindSimulation
	KindMalformed
	KindUnsupported
)

var errorKindNames = [...]string{
	KindUnknown:           "unknown",
	KindNotConnected:      "not_connected",
	KindRejected:          "rejected",
	KindInsufficientFunds: "insufficient_funds",
	KindNetwork:           "network",
	KindTimeout:           "timeout",
	KindSimulation:        "simulation",
	KindMalformed:         "malformed",
	KindUnsupported:       "unsupported",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// OperationError is the normalized failure of a remote operation.
type OperationError struct {
	Kind    ErrorKind
	Op      OperationKind
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (%s): %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Message)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func newError(op OperationKind, kind ErrorKind, msg string, err error) *OperationError {
	return &OperationError{Kind: kind, Op: op, Message: msg, Err: err}
}

// normalize converts any failure into an *OperationError for op.
func normalize(op OperationKind, err error) *OperationError {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Op == op {
			return opErr
		}
		relabeled := *opErr
		relabeled.Op = op
		return &relabeled
	}

	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return newError(op, KindNotConnected, "wallet not connected", err)
	case errors.Is(err, wallet.ErrRejected):
		return newError(op, KindRejected, "signature request rejected", err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(op, KindTimeout, "operation timed out", err)
	case errors.Is(err, context.Canceled):
		return newError(op, KindTimeout, "operation cancelled", err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		return newError(op, KindMalformed, "expected account does not exist", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return newError(op, KindTimeout, "ledger request timed out", err)
		}
		return newError(op, KindNetwork, "ledger unreachable", err)
	}

	if isInsufficientFunds(err.Error()) {
		return newError(op, KindInsufficientFunds, "insufficient balance", err)
	}
	return newError(op, KindNetwork, "remote call failed", err)
}

func isInsufficientFunds(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "insufficient lamports") ||
		strings.Contains(msg, "insufficient funds") ||
		strings.Contains(msg, "insufficientfunds")
}
