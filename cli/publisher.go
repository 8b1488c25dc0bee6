package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/logger"
)

type notice struct {
	message  string
	severity core.Severity
}

// CliStepPublisher buffers pipeline notifications for the wizard. Sends
// never block the pipeline; when a buffer is full the message is dropped.
type CliStepPublisher struct {
	stepChan   chan core.StepEvent
	noticeChan chan notice
	doneChan   chan core.State
	logger     logger.Logger
}

func NewCliStepPublisher(logger logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		stepChan:   make(chan core.StepEvent, 100),
		noticeChan: make(chan notice, 100),
		doneChan:   make(chan core.State, 1),
		logger:     logger,
	}
}

func (p *CliStepPublisher) PublishStep(event core.StepEvent) {
	select {
	case p.stepChan <- event:
		p.logger.Debug(fmt.Sprintf("Successfully published step: %v (%v)", event.Step, event.Kind))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %v. Channel full.", event.Step))
	}
}

func (p *CliStepPublisher) Notify(message string, severity core.Severity) {
	select {
	case p.noticeChan <- notice{message: message, severity: severity}:
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish notice %q. Channel full.", message))
	}
}

func (p *CliStepPublisher) Complete(state core.State) {
	select {
	case p.doneChan <- state:
		p.logger.Debug("Successfully published completion")
	default:
		p.logger.Warn("Failed to publish completion. Channel full.")
	}
}

type stepMsg core.StepEvent

type noticeMsg notice

type completeMsg core.State

// listen waits for the next buffered message. The wizard re-arms it after
// every message it receives.
func (p *CliStepPublisher) listen() tea.Msg {
	select {
	case event := <-p.stepChan:
		return stepMsg(event)
	case n := <-p.noticeChan:
		return noticeMsg(n)
	case state := <-p.doneChan:
		return completeMsg(state)
	}
}
