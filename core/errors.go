package core

import (
	"errors"
	"fmt"

	"github.com/santiagomed/launchpad/remote"
)

type ErrorKind int

const (
	ValidationError ErrorKind = iota
	WalletError
	RemoteOperationError
	StateError
)

func (k ErrorKind) String() string {
	switch k {
	case ValidationError:
		return "validation"
	case WalletError:
		return "wallet"
	case RemoteOperationError:
		return "remote operation"
	case StateError:
		return "state"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is on an *Error of the matching kind.
var (
	ErrValidation      = errors.New("validation error")
	ErrWallet          = errors.New("wallet error")
	ErrRemoteOperation = errors.New("remote operation error")
	ErrState           = errors.New("state error")
)

var kindSentinels = map[ErrorKind]error{
	ValidationError:      ErrValidation,
	WalletError:          ErrWallet,
	RemoteOperationError: ErrRemoteOperation,
	StateError:           ErrState,
}

// Error is a step failure as seen by the wizard.
type Error struct {
	Kind    ErrorKind
	Step    StepType
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Step, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind ErrorKind, step StepType, format string, args ...any) *Error {
	return &Error{Kind: kind, Step: step, Message: fmt.Sprintf(format, args...)}
}

// fromRemote classifies an adapter failure.
func fromRemote(step StepType, err error) *Error {
	var opErr *remote.OperationError
	if !errors.As(err, &opErr) {
		return &Error{Kind: RemoteOperationError, Step: step, Message: err.Error(), Err: err}
	}
	kind := RemoteOperationError
	if opErr.Kind == remote.KindNotConnected || opErr.Kind == remote.KindRejected {
		kind = WalletError
	}
	msg := opErr.Message
	if opErr.Err != nil {
		msg = fmt.Sprintf("%s: %v", opErr.Message, opErr.Err)
	}
	return &Error{Kind: kind, Step: step, Message: msg, Err: opErr}
}
