package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/santiagomed/launchpad/config"
	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/price"
)

var rootCmd = &cobra.Command{
	Use:   "launchpad",
	Short: "Launchpad is a terminal wizard for launching Solana tokens",
	Long: `Launchpad takes a token from an idea to a locked liquidity pool in six steps:
create the mint, revoke its authorities, open a market, add liquidity and burn the LP tokens.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		logger.InitLogger(level)
	},
}

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Run the launch wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseWizardFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		return runWizard(cmd.Context(), flags)
	},
}

type wizardFlags struct {
	config string
	token  string
	resume string
	dryRun bool
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to custom configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level written to ~/.launchpad/launchpad.log")

	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(priceCmd)

	wizardCmd.Flags().StringP("token", "t", "", "Token definition file written by 'launchpad token init'")
	wizardCmd.Flags().String("resume", "", "Resume a journaled session by id")
	wizardCmd.Flags().Bool("dry-run", false, "Run against an in-memory ledger with a throwaway wallet")
}

func parseWizardFlags(cmd *cobra.Command) (wizardFlags, error) {
	cfg, err := cmd.Flags().GetString("config")
	if err != nil {
		return wizardFlags{}, err
	}
	token, err := cmd.Flags().GetString("token")
	if err != nil {
		return wizardFlags{}, err
	}
	resume, err := cmd.Flags().GetString("resume")
	if err != nil {
		return wizardFlags{}, err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return wizardFlags{}, err
	}
	if token != "" && resume != "" {
		return wizardFlags{}, errors.New("--token and --resume cannot be combined")
	}
	return wizardFlags{config: cfg, token: token, resume: resume, dryRun: dryRun}, nil
}

func runWizard(ctx context.Context, f wizardFlags) error {
	cfg, err := config.LoadConfig(f.config)
	if err != nil {
		return err
	}
	if f.dryRun {
		cfg.Network.Mode = config.ModeDryRun
	}
	l := logger.GetLogger().WithField("mode", cfg.Network.Mode)
	l.Debug("Initializing launchpad wizard")
	fsys := fs.NewOsFileSystem()

	form := core.DefaultFormInputs()
	if f.token != "" {
		if form, err = readTokenFile(fsys, f.token); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := newRuntime(ctx, cfg, fsys, l)
	if err != nil {
		return err
	}
	defer rt.Close()

	state, err := rt.session(ctx, f.resume, form)
	if err != nil {
		return err
	}

	publisher := NewCliStepPublisher(l)
	pipeline := core.NewPipeline(state, rt.executor(), publisher, rt.recorder(), l)
	feed := price.NewFeed(cfg.Price, l)

	model := newWizardModel(ctx, wizardOptions{
		pipeline:  pipeline,
		publisher: publisher,
		fs:        fsys,
		quote:     feed.Current(),
		dryRun:    cfg.Network.Mode == config.ModeDryRun,
		logger:    l,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feed.Run(gctx, func(q price.Quote) {
			p.Send(priceMsg(q))
		})
	})
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	if err := g.Wait(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running wizard: %w", err)
	}

	snapshot := pipeline.Snapshot()
	if !snapshot.Completed && rt.journal != nil {
		fmt.Printf("Resume with: launchpad wizard --resume %s\n", snapshot.SessionID)
	}
	return nil
}

// readTokenFile loads a token definition. A relative logo path is resolved
// against the directory of the file.
func readTokenFile(fsys *fs.FileSystem, path string) (core.FormInputs, error) {
	path = fs.ExpandHome(path)
	data, err := fsys.ReadFile(path)
	if err != nil {
		return core.FormInputs{}, err
	}
	form := core.DefaultFormInputs()
	if err := yaml.Unmarshal(data, &form); err != nil {
		return core.FormInputs{}, fmt.Errorf("error parsing token file %s: %w", path, err)
	}
	if form.LogoPath != "" && !filepath.IsAbs(form.LogoPath) && !strings.HasPrefix(form.LogoPath, "~") {
		form.LogoPath = filepath.Join(filepath.Dir(path), form.LogoPath)
	}
	return form, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
