package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/price"
)

type phase int

const (
	// Editing collects the inputs of the form and liquidity steps.
	Editing phase = iota
	Confirming
	Running
	Failed
	Finished
)

const (
	fieldName = iota
	fieldSymbol
	fieldLogo
	fieldDecimals
	fieldQuantity
	fieldDescription
)

var formFields = []struct {
	label       string
	placeholder string
	limit       int
}{
	fieldName:        {"Name", "My Token", 32},
	fieldSymbol:      {"Symbol", "MTK", 10},
	fieldLogo:        {"Logo", "./logo.png", 256},
	fieldDecimals:    {"Decimals", "9", 1},
	fieldQuantity:    {"Quantity", "1000000000", 24},
	fieldDescription: {"Description", "optional", 200},
}

type outcomeMsg core.StepOutcome

type priceMsg price.Quote

type wizardModel struct {
	ctx       context.Context
	pipeline  *core.Pipeline
	publisher *CliStepPublisher
	fs        *fs.FileSystem
	logger    logger.Logger

	inputs   []textinput.Model
	focus    int
	solInput textinput.Model
	spinner  spinner.Model
	progress progress.Model

	phase  phase
	state  core.State
	notice notice
	err    string
	quote  price.Quote
	dryRun bool
}

type wizardOptions struct {
	pipeline  *core.Pipeline
	publisher *CliStepPublisher
	fs        *fs.FileSystem
	quote     price.Quote
	dryRun    bool
	logger    logger.Logger
}

func newWizardModel(ctx context.Context, opts wizardOptions) wizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	m := wizardModel{
		ctx:       ctx,
		pipeline:  opts.pipeline,
		publisher: opts.publisher,
		fs:        opts.fs,
		logger:    opts.logger,
		spinner:   s,
		progress:  progress.New(progress.WithGradient("#FFBA08", "#F48C06")),
		state:     opts.pipeline.Snapshot(),
		quote:     opts.quote,
		dryRun:    opts.dryRun,
	}

	m.inputs = make([]textinput.Model, len(formFields))
	for i, f := range formFields {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		ti.Width = 48
		ti.Prompt = ""
		m.inputs[i] = ti
	}
	form := m.state.Form
	m.inputs[fieldName].SetValue(form.Name)
	m.inputs[fieldSymbol].SetValue(form.Symbol)
	m.inputs[fieldLogo].SetValue(form.LogoPath)
	m.inputs[fieldDecimals].SetValue(strconv.Itoa(int(form.Decimals)))
	if form.Quantity > 0 {
		m.inputs[fieldQuantity].SetValue(strconv.FormatUint(form.Quantity, 10))
	}
	m.inputs[fieldDescription].SetValue(form.Description)

	m.solInput = textinput.New()
	m.solInput.Placeholder = "10"
	m.solInput.CharLimit = 20
	m.solInput.Width = 20
	m.solInput.SetValue(form.SolAmount)

	m.phase = m.phaseFor()
	m.focusCurrent()
	return m
}

func (m wizardModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.progress.SetPercent(m.percent()), m.publisher.listen)
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.progress.Width = min(msg.Width-padding*2-4, maxWidth)
	case outcomeMsg:
		cmd = m.handleOutcome(core.StepOutcome(msg))
	case stepMsg:
		m.logger.Debug(fmt.Sprintf("Received step event: %v %v", msg.Step, msg.Kind))
		cmd = m.publisher.listen
	case noticeMsg:
		m.notice = notice(msg)
		cmd = m.publisher.listen
	case completeMsg:
		cmd = m.handleComplete(core.State(msg))
	case priceMsg:
		m.quote = price.Quote(msg)
	case spinner.TickMsg:
		if m.phase == Running {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case progress.FrameMsg:
		progressModel, progressCmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmd = progressCmd
	default:
		cmd = m.updateInput(msg)
	}
	return m, cmd
}

// handleKeyPress dispatches a key press on the current phase.
func (m *wizardModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		return m.handleQuit()
	}
	switch m.phase {
	case Editing:
		return m.handleEditingState(msg)
	case Confirming:
		return m.handleConfirmingState(msg)
	case Failed:
		return m.handleFailedState(msg)
	case Finished:
		return tea.Quit
	}
	return nil
}

func (m *wizardModel) handleEditingState(msg tea.KeyMsg) tea.Cmd {
	onForm := m.state.CurrentStep == core.CollectTokenInfo
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		if onForm {
			return m.moveFocus(1)
		}
	case tea.KeyShiftTab, tea.KeyUp:
		if onForm {
			return m.moveFocus(-1)
		}
	case tea.KeyEnter:
		if !onForm {
			return m.submitSolAmount()
		}
		if m.focus < len(m.inputs)-1 {
			return m.moveFocus(1)
		}
		return m.submitForm()
	default:
		return m.updateInput(msg)
	}
	return nil
}

func (m *wizardModel) handleConfirmingState(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.run(m.state.CurrentStep)
	case "b":
		return m.cancel()
	}
	return nil
}

func (m *wizardModel) handleFailedState(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r", "enter":
		return m.retry()
	case "b":
		return m.cancel()
	}
	return nil
}

func (m *wizardModel) handleQuit() tea.Cmd {
	if m.phase == Running {
		m.logger.Warn(fmt.Sprintf("User exited while %v was running", m.state.CurrentStep))
	} else {
		m.logger.Debug("User exited the application")
	}
	message := faintStyle.Render("Interrupted. Exiting launchpad...")
	return tea.Sequence(tea.Printf("%s", message), tea.Quit)
}

func (m *wizardModel) handleOutcome(o core.StepOutcome) tea.Cmd {
	m.state = m.pipeline.Snapshot()
	if !o.Succeeded() {
		m.phase = Failed
		if hasInputs(m.state.CurrentStep) {
			m.phase = Editing
		}
		return m.focusCurrent()
	}

	m.err = ""
	m.phase = m.phaseFor()
	if o.Completed {
		// The summary is printed once the publisher reports completion.
		m.phase = Finished
	}
	return tea.Batch(
		tea.Printf("%s", renderOutcome(o)),
		m.progress.SetPercent(m.percent()),
		m.focusCurrent(),
	)
}

func (m *wizardModel) handleComplete(state core.State) tea.Cmd {
	m.logger.Info(fmt.Sprintf("Session %s completed", state.SessionID))
	m.state = state
	m.phase = Finished
	return tea.Sequence(tea.Printf("%s", renderSummary(state)), tea.Quit)
}

func (m *wizardModel) run(step core.StepType) tea.Cmd {
	m.phase = Running
	m.err = ""
	pipeline, ctx := m.pipeline, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return outcomeMsg(pipeline.Advance(ctx, step))
	})
}

func (m *wizardModel) retry() tea.Cmd {
	m.phase = Running
	m.err = ""
	pipeline, ctx := m.pipeline, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return outcomeMsg(pipeline.Retry(ctx))
	})
}

// cancel moves back one step. Rejections reach the user as notices.
func (m *wizardModel) cancel() tea.Cmd {
	step, err := m.pipeline.Cancel(m.ctx)
	if err != nil {
		m.logger.Debug(fmt.Sprintf("Cancel rejected at %v: %v", step, err))
		return nil
	}
	m.state = m.pipeline.Snapshot()
	m.err = ""
	m.phase = m.phaseFor()
	return tea.Batch(m.progress.SetPercent(m.percent()), m.focusCurrent())
}

func (m *wizardModel) submitForm() tea.Cmd {
	form, err := m.readForm()
	if err != nil {
		m.err = err.Error()
		return nil
	}
	if err := m.pipeline.UpdateForm(form); err != nil {
		m.err = err.Error()
		return nil
	}
	return m.run(core.CollectTokenInfo)
}

func (m *wizardModel) submitSolAmount() tea.Cmd {
	form := m.state.Form
	form.SolAmount = strings.TrimSpace(m.solInput.Value())
	if err := m.pipeline.UpdateForm(form); err != nil {
		m.err = err.Error()
		return nil
	}
	return m.run(core.AddLiquidity)
}

// readForm parses the text inputs. Field rules beyond parsing are left to the
// pipeline so that they are reported like every other step failure.
func (m *wizardModel) readForm() (core.FormInputs, error) {
	form := m.state.Form
	form.Name = strings.TrimSpace(m.inputs[fieldName].Value())
	form.Symbol = strings.TrimSpace(m.inputs[fieldSymbol].Value())
	form.LogoPath = strings.TrimSpace(m.inputs[fieldLogo].Value())
	form.Description = strings.TrimSpace(m.inputs[fieldDescription].Value())

	form.Decimals = core.MaxDecimals
	if v := strings.TrimSpace(m.inputs[fieldDecimals].Value()); v != "" {
		decimals, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return form, fmt.Errorf("decimals must be a whole number between 0 and %d", core.MaxDecimals)
		}
		form.Decimals = uint8(decimals)
	}

	quantity, err := parseQuantity(m.inputs[fieldQuantity].Value())
	if err != nil {
		return form, err
	}
	form.Quantity = quantity

	form.Logo = nil
	if form.LogoPath != "" {
		if err := loadLogo(m.fs, &form); err != nil {
			return form, err
		}
	}
	return form, nil
}

// parseQuantity accepts whole numbers with optional , or _ separators.
func parseQuantity(s string) (uint64, error) {
	clean := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return 0, nil
	}
	q, err := strconv.ParseUint(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	return q, nil
}

func (m *wizardModel) moveFocus(delta int) tea.Cmd {
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.focusCurrent()
}

// focusCurrent focuses the input of the current step and blurs the rest.
func (m *wizardModel) focusCurrent() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.solInput.Blur()
	if m.phase != Editing {
		return nil
	}
	if m.state.CurrentStep == core.AddLiquidity {
		return m.solInput.Focus()
	}
	return m.inputs[m.focus].Focus()
}

func (m *wizardModel) updateInput(msg tea.Msg) tea.Cmd {
	if m.phase != Editing {
		return nil
	}
	var cmd tea.Cmd
	if m.state.CurrentStep == core.AddLiquidity {
		m.solInput, cmd = m.solInput.Update(msg)
		return cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *wizardModel) phaseFor() phase {
	switch {
	case m.state.Completed:
		return Finished
	case hasInputs(m.state.CurrentStep):
		return Editing
	}
	return Confirming
}

func (m *wizardModel) percent() float64 {
	if m.state.Completed {
		return 1
	}
	return float64(m.state.CurrentStep) / float64(len(core.Steps()))
}

func hasInputs(step core.StepType) bool {
	return step == core.CollectTokenInfo || step == core.AddLiquidity
}
