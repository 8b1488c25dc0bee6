package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/santiagomed/launchpad/config"
	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
	"github.com/santiagomed/launchpad/journal"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect journaled wizard sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return listSessions(cmd.Context(), store, cmd.OutOrStdout())
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session and its step history as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal(cmd)
		if err != nil {
			return err
		}
		defer store.Close()
		return showSession(cmd.Context(), store, args[0], cmd.OutOrStdout())
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
}

// openJournal opens the configured journal even when recording is disabled,
// so that earlier sessions stay readable.
func openJournal(cmd *cobra.Command) (*journal.Store, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return journal.Open(fs.ExpandHome(cfg.Journal.Path))
}

func listSessions(ctx context.Context, store *journal.Store, w io.Writer) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TOKEN", "STEP", "UPDATED")
	for _, s := range sessions {
		step := s.CurrentStep.Title()
		if s.Completed {
			step = "completed"
		}
		t.Row(s.ID, fmt.Sprintf("%s (%s)", s.Name, s.Symbol), step, humanize.Time(s.UpdatedAt))
	}
	_, err = fmt.Fprintln(w, t.String())
	return err
}

type sessionReport struct {
	Session core.State     `yaml:"session"`
	Events  []sessionEvent `yaml:"events"`
}

type sessionEvent struct {
	Step    core.StepType `yaml:"step"`
	Kind    string        `yaml:"kind"`
	Current core.StepType `yaml:"current"`
	Error   string        `yaml:"error,omitempty"`
	At      string        `yaml:"at"`
}

func showSession(ctx context.Context, store *journal.Store, id string, w io.Writer) error {
	state, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	events, err := store.Events(ctx, id)
	if err != nil {
		return err
	}

	report := sessionReport{Session: *state, Events: make([]sessionEvent, 0, len(events))}
	for _, ev := range events {
		report.Events = append(report.Events, sessionEvent{
			Step:    ev.Step,
			Kind:    ev.Kind,
			Current: ev.Current,
			Error:   ev.Error,
			At:      ev.At.Format("2006-01-02 15:04:05 MST"),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("error encoding session %s: %w", id, err)
	}
	return enc.Close()
}
