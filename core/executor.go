package core

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/remote"
)

// Connection reports whether a wallet is available to sign.
type Connection interface {
	Connected() bool
}

type StepStatus int

const (
	StepSucceeded StepStatus = iota
	StepFailed
)

func (s StepStatus) String() string {
	if s == StepSucceeded {
		return "success"
	}
	return "failed"
}

// StepOutcome is the settled result of one step.
type StepOutcome struct {
	Step     StepType
	Status   StepStatus
	Artifact remote.Artifact
	// Reused is set when the step's effect was already captured and no
	// remote call was made.
	Reused    bool
	Warnings  []string
	Err       *Error
	Completed bool
}

func (o StepOutcome) Succeeded() bool {
	return o.Status == StepSucceeded
}

type ExecutorOptions struct {
	Adapter remote.Adapter
	Wallet  Connection
	// FallbackMint substitutes for a missing mint when creating a market.
	// Empty disables the fallback.
	FallbackMint Address
	Market       remote.MarketParams
	// StepTimeout bounds each remote call. Zero means no limit.
	StepTimeout time.Duration
	Logger      logger.Logger
}

// Executor runs one pipeline step against the remote adapter.
type Executor struct {
	adapter      remote.Adapter
	wallet       Connection
	fallbackMint Address
	market       remote.MarketParams
	timeout      time.Duration
	logger       logger.Logger
}

func NewExecutor(opts ExecutorOptions) *Executor {
	l := opts.Logger
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Executor{
		adapter:      opts.Adapter,
		wallet:       opts.Wallet,
		fallbackMint: opts.FallbackMint,
		market:       opts.Market,
		timeout:      opts.StepTimeout,
		logger:       l,
	}
}

// Check validates the preconditions of step without side effects.
func (e *Executor) Check(state *State, step StepType) *Error {
	_, _, err := e.prepare(state, step)
	return err
}

// RunStep validates step, calls the adapter and writes the artifact into
// state. A step whose effect is already captured is validated the same way
// and then reused without a remote call. On failure no artifact field is touched. Busy is always false when
// RunStep returns.
func (e *Executor) RunStep(ctx context.Context, state *State, step StepType) StepOutcome {
	defer func() { state.Busy = false }()

	args, warnings, verr := e.prepare(state, step)
	if verr != nil {
		e.logger.Warn(fmt.Sprintf("Step %v rejected: %s", step, verr.Message))
		return StepOutcome{Step: step, Status: StepFailed, Err: verr}
	}
	if state.Done(step) {
		e.logger.Info(fmt.Sprintf("Step %v already done, reusing %q", step, state.Artifact(step)))
		return StepOutcome{
			Step:     step,
			Status:   StepSucceeded,
			Artifact: remote.Artifact{Address: state.Artifact(step).String(), Signatures: state.Signatures[step]},
			Reused:   true,
		}
	}
	for _, w := range warnings {
		e.logger.Warn(w)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	startTime := time.Now()
	art, err := e.adapter.Execute(ctx, step.Operation(), args)
	if err != nil {
		e.logger.Error(fmt.Sprintf("Step %v failed after %v: %v", step, time.Since(startTime), err))
		return StepOutcome{Step: step, Status: StepFailed, Warnings: warnings, Err: fromRemote(step, err)}
	}

	if err := apply(state, step, art); err != nil {
		e.logger.Error(fmt.Sprintf("Step %v returned an unusable result: %s", step, err.Message))
		return StepOutcome{Step: step, Status: StepFailed, Warnings: warnings, Err: err}
	}
	e.logger.Info(fmt.Sprintf("Step %v completed in %v", step, time.Since(startTime)))
	return StepOutcome{Step: step, Status: StepSucceeded, Artifact: art, Warnings: warnings}
}

func (e *Executor) prepare(state *State, step StepType) (remote.Args, []string, *Error) {
	if !step.Valid() {
		return remote.Args{}, nil, newError(StateError, step, "unknown step")
	}

	form := state.Form
	args := remote.Args{
		Name:         form.Name,
		Symbol:       form.Symbol,
		Description:  form.Description,
		Logo:         form.Logo,
		LogoName:     form.LogoPath,
		Decimals:     form.Decimals,
		Quantity:     form.Quantity,
		Mint:         state.MintAddress.String(),
		Market:       state.MarketID.String(),
		LPMint:       state.LPMintAddress.String(),
		MarketParams: e.market,
	}
	var warnings []string

	switch step {
	case CollectTokenInfo:
		if err := form.Validate(); err != nil {
			return args, nil, newError(ValidationError, step, "%s", err.Error())
		}
	case RevokeMint, RevokeFreeze:
		if !state.MintAddress.IsSet() {
			return args, nil, newError(ValidationError, step, "token mint address is missing")
		}
	case CreateMarket:
		if !state.MintAddress.IsSet() && !state.MarketID.IsSet() {
			if !e.fallbackMint.IsSet() {
				return args, nil, newError(ValidationError, step, "token mint address is missing")
			}
			args.Mint = e.fallbackMint.String()
			warnings = append(warnings, fmt.Sprintf("No token mint recorded, creating the market for fallback mint %s", e.fallbackMint))
		}
	case AddLiquidity:
		if !state.MarketID.IsSet() {
			return args, nil, newError(ValidationError, step, "market id is missing")
		}
		if !state.MintAddress.IsSet() {
			return args, nil, newError(ValidationError, step, "token mint address is missing")
		}
		sol, err := ParseSolAmount(form.SolAmount)
		if err != nil {
			return args, nil, newError(ValidationError, step, "%s", err.Error())
		}
		lamports, err := Lamports(sol)
		if err != nil {
			return args, nil, newError(ValidationError, step, "%s", err.Error())
		}
		args.QuoteLamports = lamports
		args.BaseAmount = form.Quantity
	case BurnLp:
		if !state.LPMintAddress.IsSet() {
			return args, nil, newError(ValidationError, step, "LP mint address is missing")
		}
	}

	if !e.connected() {
		return args, nil, newError(WalletError, step, "wallet not connected")
	}
	return args, warnings, nil
}

func (e *Executor) connected() bool {
	return e.wallet != nil && e.wallet.Connected()
}

// apply writes art into state. Artifacts are only written when unset.
func apply(state *State, step StepType, art remote.Artifact) *Error {
	addr := Address(art.Address)
	switch step {
	case CollectTokenInfo, CreateMarket, AddLiquidity:
		if !addr.IsSet() {
			return &Error{
				Kind:    RemoteOperationError,
				Step:    step,
				Message: "operation returned no identifier",
				Err:     &remote.OperationError{Kind: remote.KindMalformed, Op: step.Operation(), Message: "empty artifact"},
			}
		}
	}

	switch step {
	case CollectTokenInfo:
		if !state.MintAddress.IsSet() {
			state.MintAddress = addr
			state.MetadataURI = art.MetadataURI
		}
	case RevokeMint:
		state.MintRevoked = true
	case RevokeFreeze:
		state.FreezeRevoked = true
	case CreateMarket:
		if !state.MarketID.IsSet() {
			state.MarketID = addr
		}
	case AddLiquidity:
		if !state.LPMintAddress.IsSet() {
			state.LPMintAddress = addr
		}
	case BurnLp:
		state.LPBurned = true
	}
	if state.Signatures == nil {
		state.Signatures = make(map[StepType][]string)
	}
	state.Signatures[step] = append([]string(nil), art.Signatures...)
	state.UpdatedAt = time.Now().UTC()
	return nil
}
