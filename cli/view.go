package cli

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/dustin/go-humanize"

	"github.com/santiagomed/launchpad/core"
)

const (
	padding  = 2
	maxWidth = 80
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("202"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	checkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	artifactStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Width(13)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#F48C06")).Padding(0, 1)

	severityStyles = map[core.Severity]lipgloss.Style{
		core.SeverityInfo:    faintStyle,
		core.SeveritySuccess: checkStyle,
		core.SeverityWarning: errorStyle,
		core.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

var stepPrompts = map[core.StepType]string{
	core.RevokeMint:   "Revoke the mint authority of %s so the supply can never grow.",
	core.RevokeFreeze: "Revoke the freeze authority of %s so holder accounts can never be frozen.",
	core.CreateMarket: "Create an order book market for %s quoted in SOL.",
	core.BurnLp:       "Burn the LP tokens of %s so the liquidity can never be withdrawn.",
}

func (m wizardModel) View() string {
	pad := strings.Repeat(" ", padding)
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")
	b.WriteString(m.stepList())
	b.WriteString("\n\n")
	b.WriteString(pad + m.progress.View() + "\n\n")

	step := m.state.CurrentStep
	switch m.phase {
	case Editing:
		if step == core.AddLiquidity {
			b.WriteString(m.liquidityView())
		} else {
			b.WriteString(m.formView())
		}
	case Confirming:
		b.WriteString(fmt.Sprintf(stepPrompts[step], m.symbol()))
		b.WriteString("\n\n")
		b.WriteString(faintStyle.Render(m.help("enter to confirm")))
	case Running:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.notice.message))
	case Failed:
		b.WriteString(fmt.Sprintf("%s did not complete.", step.Title()))
		b.WriteString("\n\n")
		b.WriteString(faintStyle.Render(m.help("r to retry")))
	case Finished:
		b.WriteString(checkStyle.Render("Launch complete."))
	}

	if m.err != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.err))
	} else if m.notice.message != "" && m.phase != Running {
		b.WriteString("\n\n" + severityStyles[m.notice.severity].Render(m.notice.message))
	}
	return b.String() + "\n"
}

func (m wizardModel) header() string {
	title := titleStyle.Render("Launchpad")
	if m.dryRun {
		title += " " + badgeStyle.Render("dry run")
	}
	return title + faintStyle.Render(" session "+m.state.SessionID)
}

func (m wizardModel) stepList() string {
	steps := core.Steps()
	enumerator := func(items list.Items, i int) string {
		step := steps[i]
		switch {
		case m.state.Completed || step < m.state.CurrentStep:
			return checkStyle.Render("✓")
		case step == m.state.CurrentStep && m.phase == Running:
			return m.spinner.View()
		case step == m.state.CurrentStep:
			return "›"
		}
		return " "
	}

	l := list.New().Enumerator(enumerator)
	for _, step := range steps {
		item := step.Title()
		if a := m.state.Artifact(step); a.IsSet() {
			item += " " + artifactStyle.Render(a.String())
		}
		l.Item(item)
	}
	return fmt.Sprint(l)
}

func (m wizardModel) formView() string {
	var b strings.Builder
	b.WriteString("Describe your token:\n\n")
	for i, in := range m.inputs {
		label := formFields[i].label
		if i == m.focus {
			label = titleStyle.Render(label)
		}
		b.WriteString(labelStyle.Render(label) + in.View() + "\n")
	}
	b.WriteString("\n" + faintStyle.Render("(tab to move, enter on the last field to create the token, esc to quit)"))
	return b.String()
}

func (m wizardModel) liquidityView() string {
	quantity := humanize.BigComma(new(big.Int).SetUint64(m.state.Form.Quantity))
	return fmt.Sprintf(
		"How much SOL do you want to pair with %s %s?\n\n%s SOL\n\n%s\n\n%s",
		quantity, m.symbol(),
		m.solInput.View(),
		faintStyle.Render(m.estimate()),
		faintStyle.Render("(press enter to add liquidity or esc to quit)"),
	)
}

// estimate renders the USD value of the SOL amount being typed.
func (m wizardModel) estimate() string {
	source := "fallback price"
	if m.quote.Live {
		source = "updated " + humanize.Time(m.quote.UpdatedAt)
	}
	rate := fmt.Sprintf("SOL at $%s, %s", humanize.CommafWithDigits(m.quote.USD, 2), source)

	sol, err := core.ParseSolAmount(m.solInput.Value())
	if err != nil {
		return rate
	}
	return fmt.Sprintf("≈ $%s (%s)", humanize.CommafWithDigits(sol*m.quote.USD, 2), rate)
}

func (m wizardModel) help(primary string) string {
	parts := []string{primary}
	if m.state.CurrentStep.Cancellable() {
		parts = append(parts, "b to go back")
	}
	parts = append(parts, "esc to quit")
	return "(" + strings.Join(parts, ", ") + ")"
}

func (m wizardModel) symbol() string {
	if m.state.Form.Symbol == "" {
		return "the token"
	}
	return m.state.Form.Symbol
}

func renderOutcome(o core.StepOutcome) string {
	line := fmt.Sprintf("%s %s", checkStyle.Render("✓"), o.Step.Title())
	if o.Artifact.Address != "" {
		line += " " + artifactStyle.Render(o.Artifact.Address)
	}
	if o.Reused {
		line += faintStyle.Render(" (already done)")
	}
	for _, w := range o.Warnings {
		line += "\n  " + errorStyle.Render(w)
	}
	return line
}

func renderSummary(state core.State) string {
	rows := []struct {
		label string
		value string
	}{
		{"Mint", state.MintAddress.String()},
		{"Metadata", state.MetadataURI},
		{"Market", state.MarketID.String()},
		{"LP mint", state.LPMintAddress.String()},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s launched!", state.Form.Symbol)) + "\n")
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		b.WriteString("  " + labelStyle.Render(r.label) + artifactStyle.Render(r.value) + "\n")
	}
	return b.String()
}
