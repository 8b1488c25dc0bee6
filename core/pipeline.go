package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/santiagomed/launchpad/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

type EventKind int

const (
	StepSucceededEvent EventKind = iota
	StepFailedEvent
	StepCancelledEvent
)

func (k EventKind) String() string {
	switch k {
	case StepSucceededEvent:
		return "succeeded"
	case StepFailedEvent:
		return "failed"
	case StepCancelledEvent:
		return "cancelled"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// StepEvent describes a settled step or a cancel.
type StepEvent struct {
	Step    StepType
	Kind    EventKind
	Current StepType
	Err     error
	At      time.Time
}

type StepPublisher interface {
	PublishStep(event StepEvent)
	Notify(message string, severity Severity)
	Complete(state State)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(event StepEvent) {}

func (p *DefaultStepPublisher) Notify(message string, severity Severity) {}

func (p *DefaultStepPublisher) Complete(state State) {}

// Recorder persists session snapshots.
type Recorder interface {
	Record(ctx context.Context, state State, event StepEvent) error
}

var stepMessages = map[StepType][3]string{
	CollectTokenInfo: {"Creating token...", "Token created successfully!", "Failed to create token"},
	RevokeMint:       {"Revoking mint authority...", "Mint authority revoked successfully!", "Failed to revoke mint authority"},
	RevokeFreeze:     {"Revoking freeze authority...", "Freeze authority revoked successfully!", "Failed to revoke freeze authority"},
	CreateMarket:     {"Creating market...", "Market created successfully!", "Failed to create market"},
	AddLiquidity:     {"Adding liquidity...", "Liquidity added successfully!", "Failed to add liquidity"},
	BurnLp:           {"Burning tokens...", "Tokens burned successfully!", "Failed to burn tokens"},
}

// Pipeline drives one wizard session through the launch steps. At most one
// step runs at a time; a second Advance while busy is rejected.
type Pipeline struct {
	mu        sync.Mutex
	state     *State
	executor  *Executor
	publisher StepPublisher
	recorder  Recorder
	logger    logger.Logger
}

// NewPipeline takes ownership of state. pub and rec may be nil.
func NewPipeline(state *State, executor *Executor, pub StepPublisher, rec Recorder, l logger.Logger) *Pipeline {
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	if state.Signatures == nil {
		state.Signatures = make(map[StepType][]string)
	}
	// A journaled session may have been interrupted mid-step.
	state.Busy = false
	return &Pipeline{
		state:     state,
		executor:  executor,
		publisher: pub,
		recorder:  rec,
		logger:    l.WithField("session", state.SessionID),
	}
}

// Snapshot returns a copy of the current state.
func (p *Pipeline) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.state.Clone()
}

// Advance runs step, which must be the current step and satisfy its
// preconditions. The returned outcome carries the failure, if any.
func (p *Pipeline) Advance(ctx context.Context, step StepType) StepOutcome {
	p.mu.Lock()
	if p.state.Busy {
		p.mu.Unlock()
		err := newError(StateError, step, "another step is in progress")
		p.logger.Warn(err.Error())
		p.publisher.Notify(err.Message, SeverityError)
		return StepOutcome{Step: step, Status: StepFailed, Err: err}
	}
	if err := p.admit(step); err != nil {
		p.state.LastError = err.Error()
		p.state.UpdatedAt = time.Now().UTC()
		current := p.state.CurrentStep
		p.mu.Unlock()
		p.reject(step, current, err)
		return StepOutcome{Step: step, Status: StepFailed, Err: err}
	}
	p.state.Busy = true
	work := p.state.Clone()
	p.mu.Unlock()

	p.logger.Info(fmt.Sprintf("Advancing step %v", step))
	p.publisher.Notify(stepMessages[step][0], SeverityInfo)

	outcome := p.executor.RunStep(ctx, work, step)

	p.mu.Lock()
	if outcome.Succeeded() {
		work.Busy = false
		work.LastError = ""
		if step == BurnLp {
			work.Completed = true
			outcome.Completed = true
		} else {
			work.CurrentStep = step.Next()
		}
		work.UpdatedAt = time.Now().UTC()
		p.state = work
	} else {
		p.state.Busy = false
		p.state.LastError = outcome.Err.Error()
		p.state.UpdatedAt = time.Now().UTC()
	}
	snapshot := *p.state.Clone()
	p.mu.Unlock()

	event := StepEvent{Step: step, Current: snapshot.CurrentStep, At: snapshot.UpdatedAt}
	if outcome.Succeeded() {
		event.Kind = StepSucceededEvent
	} else {
		event.Kind = StepFailedEvent
		event.Err = outcome.Err
	}
	p.record(ctx, snapshot, event)
	p.publisher.PublishStep(event)

	for _, w := range outcome.Warnings {
		p.publisher.Notify(w, SeverityWarning)
	}
	if !outcome.Succeeded() {
		p.publisher.Notify(fmt.Sprintf("%s: %s", stepMessages[step][2], outcome.Err.Message), SeverityError)
		return outcome
	}
	p.publisher.Notify(stepMessages[step][1], SeveritySuccess)
	if outcome.Completed {
		p.logger.Info("Launch pipeline completed")
		p.publisher.Complete(snapshot)
	}
	return outcome
}

// Retry re-runs the current step with the current inputs.
func (p *Pipeline) Retry(ctx context.Context) StepOutcome {
	p.mu.Lock()
	step := p.state.CurrentStep
	p.mu.Unlock()
	return p.Advance(ctx, step)
}

// Cancel moves the wizard back one step. Captured artifacts are kept so the
// earlier step can be confirmed again without a remote call.
func (p *Pipeline) Cancel(ctx context.Context) (StepType, error) {
	p.mu.Lock()
	from := p.state.CurrentStep
	var err *Error
	switch {
	case p.state.Busy:
		err = newError(StateError, from, "cannot go back while a step is in progress")
	case p.state.Completed:
		err = newError(StateError, from, "session already completed")
	case !from.Cancellable():
		err = newError(StateError, from, "cannot go back from %s", from.Title())
	}
	if err != nil {
		p.mu.Unlock()
		p.reject(from, from, err)
		return from, err
	}
	p.state.CurrentStep = from.Prev()
	p.state.LastError = ""
	p.state.UpdatedAt = time.Now().UTC()
	snapshot := *p.state.Clone()
	p.mu.Unlock()

	p.logger.Info(fmt.Sprintf("Cancelled %v, back to %v", from, snapshot.CurrentStep))
	event := StepEvent{Step: from, Kind: StepCancelledEvent, Current: snapshot.CurrentStep, At: snapshot.UpdatedAt}
	p.record(ctx, snapshot, event)
	p.publisher.PublishStep(event)
	return snapshot.CurrentStep, nil
}

// UpdateForm replaces the form inputs. It is rejected while a step runs, and
// once the mint exists the fields it was created from are fixed.
func (p *Pipeline) UpdateForm(form FormInputs) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Busy {
		return newError(StateError, p.state.CurrentStep, "cannot edit inputs while a step is in progress")
	}
	if p.state.MintAddress.IsSet() {
		if field := p.state.Form.mintedFieldChanged(form); field != "" {
			return newError(ValidationError, p.state.CurrentStep, "token %s cannot change after the mint %s was created", field, p.state.MintAddress)
		}
	}
	p.state.Form = form
	p.state.UpdatedAt = time.Now().UTC()
	return nil
}

// admit checks preconditions before ordering so that a missing artifact is
// reported as such. Caller holds p.mu.
func (p *Pipeline) admit(step StepType) *Error {
	if p.state.Completed {
		return newError(StateError, step, "session already completed")
	}
	if err := p.executor.Check(p.state, step); err != nil {
		return err
	}
	if step != p.state.CurrentStep {
		return newError(StateError, step, "current step is %v", p.state.CurrentStep)
	}
	return nil
}

func (p *Pipeline) reject(step, current StepType, err *Error) {
	p.logger.Warn(err.Error())
	p.publisher.PublishStep(StepEvent{Step: step, Kind: StepFailedEvent, Current: current, Err: err, At: time.Now().UTC()})
	p.publisher.Notify(err.Message, SeverityError)
}

func (p *Pipeline) record(ctx context.Context, state State, event StepEvent) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, state, event); err != nil {
		p.logger.WithField("error", err.Error()).Warn("Failed to record session")
	}
}
