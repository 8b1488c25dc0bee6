package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/santiagomed/launchpad/config"
	"github.com/santiagomed/launchpad/core"
	"github.com/santiagomed/launchpad/fs"
	"github.com/santiagomed/launchpad/journal"
	"github.com/santiagomed/launchpad/ledger"
	"github.com/santiagomed/launchpad/llm"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/metadata"
	"github.com/santiagomed/launchpad/remote"
	"github.com/santiagomed/launchpad/wallet"
)

// dryRunAirdrop funds the throwaway wallet of a dry run with 100 SOL.
const dryRunAirdrop = 100_000_000_000

// runtime holds everything a wizard session talks to.
type runtime struct {
	cfg     *config.Config
	fs      *fs.FileSystem
	wallet  wallet.Wallet
	adapter remote.Adapter
	journal *journal.Store
	logger  logger.Logger
}

func newRuntime(ctx context.Context, cfg *config.Config, fsys *fs.FileSystem, l logger.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, fs: fsys, logger: l}

	uploader, err := newUploader(ctx, cfg, fsys, l)
	if err != nil {
		return nil, err
	}

	opts := remote.SolanaOptions{Uploader: uploader, Logger: l}
	switch cfg.Network.Mode {
	case config.ModeDryRun:
		mem := ledger.NewMemory()
		w, err := wallet.Ephemeral()
		if err != nil {
			return nil, err
		}
		owner, _ := w.PublicKey()
		mem.Airdrop(owner, dryRunAirdrop)
		sim := remote.NewSimulated(mem)
		opts.Ledger, opts.Wallet = mem, w
		opts.Market, opts.Liquidity, opts.TokenMetadata = sim, sim, sim
		l.Info(fmt.Sprintf("Dry run with ephemeral wallet %s", owner))
	default:
		opts.Ledger = ledger.NewRPC(cfg.Network.RPCURL, cfg.Network.Commitment, l)
		opts.Wallet = loadWallet(cfg, l)
		bridge := remote.NewBridge(cfg.SDK.BridgeURL, cfg.SDK.Timeout, l)
		opts.Market, opts.Liquidity = bridge, bridge
		if cfg.SDK.TokenMetadata {
			opts.TokenMetadata = bridge
		}
	}

	adapter, err := remote.NewSolana(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating adapter: %w", err)
	}
	rt.adapter = adapter
	rt.wallet = opts.Wallet

	if cfg.Journal.Enabled {
		store, err := journal.Open(fs.ExpandHome(cfg.Journal.Path))
		if err != nil {
			return nil, err
		}
		rt.journal = store
	}
	return rt, nil
}

// loadWallet falls back to a disconnected wallet so that each step reports
// the missing signer instead of the wizard refusing to start.
func loadWallet(cfg *config.Config, l logger.Logger) wallet.Wallet {
	w, err := wallet.LoadKeypair(afero.NewOsFs(), fs.ExpandHome(cfg.Wallet.Keypair))
	if err != nil {
		l.Warn(fmt.Sprintf("Wallet not connected: %v", err))
		return wallet.Disconnected()
	}
	return w
}

func newUploader(ctx context.Context, cfg *config.Config, fsys *fs.FileSystem, l logger.Logger) (*metadata.Uploader, error) {
	var store metadata.Store
	switch cfg.Metadata.Store {
	case config.StoreS3:
		minioStore, err := metadata.NewMinioStore(cfg.Metadata.S3)
		if err != nil {
			return nil, err
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		store = minioStore
	default:
		store = metadata.NewLocalStore(fsys, fs.ExpandHome(cfg.Metadata.LocalDir))
	}

	var describer metadata.Describer
	if cfg.Metadata.Describe {
		client, err := llm.NewClient(&llm.LlmConfig{
			Provider:  cfg.Metadata.Provider,
			APIKey:    cfg.Metadata.APIKey,
			ModelName: cfg.Metadata.Model,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("error creating description generator: %w", err)
		}
		describer = llm.NewDescriber(client)
	}
	return metadata.NewUploader(store, describer, l), nil
}

func (rt *runtime) executor() *core.Executor {
	return core.NewExecutor(core.ExecutorOptions{
		Adapter:      rt.adapter,
		Wallet:       rt.wallet,
		FallbackMint: core.Address(rt.cfg.Market.FallbackMint),
		Market: remote.MarketParams{
			QuoteMint:     rt.cfg.Market.QuoteMint,
			QuoteDecimals: rt.cfg.Market.QuoteDecimals,
			OrderSize:     rt.cfg.Market.OrderSize,
			TickSize:      rt.cfg.Market.TickSize,
		},
		StepTimeout: rt.cfg.Wizard.StepTimeout,
		Logger:      rt.logger,
	})
}

// recorder returns the journal as a core.Recorder, or nil when disabled.
func (rt *runtime) recorder() core.Recorder {
	if rt.journal == nil {
		return nil
	}
	return rt.journal
}

// session starts a new session or resumes a journaled one.
func (rt *runtime) session(ctx context.Context, resume string, form core.FormInputs) (*core.State, error) {
	if resume == "" {
		return core.NewState(form), nil
	}
	if rt.journal == nil {
		return nil, fmt.Errorf("cannot resume %s: journal is disabled", resume)
	}
	state, err := rt.journal.Load(ctx, resume)
	if err != nil {
		return nil, err
	}
	if state.Form.LogoPath != "" {
		if err := loadLogo(rt.fs, &state.Form); err != nil {
			rt.logger.Warn(fmt.Sprintf("Could not reload logo: %v", err))
		}
	}
	return state, nil
}

func (rt *runtime) Close() error {
	return rt.journal.Close()
}

// loadLogo reads form.LogoPath into form.Logo.
func loadLogo(fsys *fs.FileSystem, form *core.FormInputs) error {
	logo, err := fsys.ReadLogo(form.LogoPath)
	if err != nil {
		return err
	}
	form.Logo = logo.Data
	return nil
}
