package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/santiagomed/launchpad/metadata"
	"github.com/santiagomed/launchpad/price"
)

const (
	ModeRPC    = "rpc"
	ModeDryRun = "dryrun"

	StoreLocal = "local"
	StoreS3    = "s3"

	// WrappedSOL is the default quote mint.
	WrappedSOL = "So11111111111111111111111111111111111111112"
)

// Config stores all configuration of the application.
type Config struct {
	Network  NetworkConfig  `mapstructure:"network"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	SDK      SDKConfig      `mapstructure:"sdk"`
	Market   MarketConfig   `mapstructure:"market"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Price    price.Config   `mapstructure:"price"`
	Wizard   WizardConfig   `mapstructure:"wizard"`
}

type NetworkConfig struct {
	Mode       string `mapstructure:"mode"`
	RPCURL     string `mapstructure:"rpc_url"`
	Commitment string `mapstructure:"commitment"`
}

type WalletConfig struct {
	Keypair string `mapstructure:"keypair"`
}

type SDKConfig struct {
	BridgeURL string        `mapstructure:"bridge_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// TokenMetadata attaches on-chain metadata through the bridge.
	TokenMetadata bool `mapstructure:"token_metadata"`
}

type MarketConfig struct {
	QuoteMint     string  `mapstructure:"quote_mint"`
	QuoteDecimals uint8   `mapstructure:"quote_decimals"`
	OrderSize     float64 `mapstructure:"order_size"`
	TickSize      float64 `mapstructure:"tick_size"`
	FallbackMint  string  `mapstructure:"fallback_mint"`
}

type MetadataConfig struct {
	Store    string            `mapstructure:"store"`
	LocalDir string            `mapstructure:"local_dir"`
	S3       metadata.S3Config `mapstructure:"s3"`
	Describe bool              `mapstructure:"describe"`
	Provider string            `mapstructure:"provider"`
	APIKey   string            `mapstructure:"api_key"`
	Model    string            `mapstructure:"model_name"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type WizardConfig struct {
	StepTimeout time.Duration `mapstructure:"step_timeout"`
}

var defaults = map[string]any{
	"network.mode":            ModeRPC,
	"network.rpc_url":         "https://api.devnet.solana.com",
	"network.commitment":      "confirmed",
	"wallet.keypair":          "~/.config/solana/id.json",
	"sdk.bridge_url":          "http://127.0.0.1:8787",
	"sdk.timeout":             30 * time.Second,
	"sdk.token_metadata":      true,
	"market.quote_mint":       WrappedSOL,
	"market.quote_decimals":   9,
	"market.order_size":       1.0,
	"market.tick_size":        0.01,
	"market.fallback_mint":    "",
	"metadata.store":          StoreLocal,
	"metadata.local_dir":      "~/.launchpad/metadata",
	"metadata.s3.endpoint":    "",
	"metadata.s3.access_key":  "",
	"metadata.s3.secret_key":  "",
	"metadata.s3.region":      "us-east-1",
	"metadata.s3.bucket":      "",
	"metadata.s3.use_ssl":     true,
	"metadata.s3.public_url":  "",
	"metadata.describe":       false,
	"metadata.provider":       "openai",
	"metadata.api_key":        "",
	"metadata.model_name":     "gpt-4o-mini",
	"journal.enabled":         false,
	"journal.path":            "~/.launchpad/journal.db",
	"price.url":               price.DefaultURL,
	"price.refresh":           price.DefaultRefresh,
	"price.fallback":          price.DefaultFallback,
	"wizard.step_timeout":     time.Duration(0),
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	cfg, err := load(newViper())
	if err != nil {
		panic(fmt.Sprintf("invalid default config: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from file or environment variables. An
// explicit configPath must exist; otherwise ./launchpad.yaml and
// ~/.launchpad/config.yaml are tried in order.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper()
	v.BindEnv("metadata.api_key", "LAUNCHPAD_METADATA_API_KEY", "OPENAI_API_KEY")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else if path := findConfig(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	cfg, err := load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// File returns the config file in use, if any.
func File(configPath string) string {
	if configPath != "" {
		return configPath
	}
	return findConfig()
}

func load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return cfg, nil
}

func findConfig() string {
	candidates := []string{"launchpad.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".launchpad", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Network.Mode {
	case ModeRPC:
		if c.Network.RPCURL == "" {
			errs = append(errs, errors.New("network.rpc_url is required in rpc mode"))
		}
		if c.Wallet.Keypair == "" {
			errs = append(errs, errors.New("wallet.keypair is required in rpc mode"))
		}
		if c.SDK.BridgeURL == "" {
			errs = append(errs, errors.New("sdk.bridge_url is required in rpc mode"))
		}
	case ModeDryRun:
	default:
		errs = append(errs, fmt.Errorf("network.mode must be %q or %q, got %q", ModeRPC, ModeDryRun, c.Network.Mode))
	}
	switch c.Network.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("network.commitment %q is not one of processed, confirmed, finalized", c.Network.Commitment))
	}

	if _, err := solana.PublicKeyFromBase58(c.Market.QuoteMint); err != nil {
		errs = append(errs, fmt.Errorf("market.quote_mint: %w", err))
	}
	if c.Market.FallbackMint != "" {
		if _, err := solana.PublicKeyFromBase58(c.Market.FallbackMint); err != nil {
			errs = append(errs, fmt.Errorf("market.fallback_mint: %w", err))
		}
	}
	if c.Market.QuoteDecimals > 18 {
		errs = append(errs, errors.New("market.quote_decimals must be at most 18"))
	}
	if c.Market.OrderSize <= 0 || c.Market.TickSize <= 0 {
		errs = append(errs, errors.New("market.order_size and market.tick_size must be positive"))
	}

	switch c.Metadata.Store {
	case StoreLocal:
		if c.Metadata.LocalDir == "" {
			errs = append(errs, errors.New("metadata.local_dir is required for the local store"))
		}
	case StoreS3:
		if err := c.Metadata.S3.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("metadata.s3: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("metadata.store must be %q or %q, got %q", StoreLocal, StoreS3, c.Metadata.Store))
	}
	if c.Metadata.Describe && c.Metadata.APIKey == "" {
		errs = append(errs, errors.New("metadata.api_key is required when metadata.describe is enabled"))
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path is required when the journal is enabled"))
	}
	if c.Price.Fallback <= 0 {
		errs = append(errs, errors.New("price.fallback must be positive"))
	}
	if c.Wizard.StepTimeout < 0 {
		errs = append(errs, errors.New("wizard.step_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
