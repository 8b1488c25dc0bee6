package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launchpad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ModeRPC, cfg.Network.Mode)
	assert.Equal(t, "confirmed", cfg.Network.Commitment)
	assert.Equal(t, "So11111111111111111111111111111111111111112", cfg.Market.QuoteMint)
	assert.Equal(t, uint8(9), cfg.Market.QuoteDecimals)
	assert.Equal(t, 1.0, cfg.Market.OrderSize)
	assert.Equal(t, 0.01, cfg.Market.TickSize)
	assert.Empty(t, cfg.Market.FallbackMint)
	assert.Equal(t, 57.5, cfg.Price.Fallback)
	assert.Equal(t, 5*time.Minute, cfg.Price.Refresh)
	assert.Zero(t, cfg.Wizard.StepTimeout)
	assert.False(t, cfg.Journal.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
network:
  mode: dryrun
  commitment: finalized
market:
  tick_size: 0.001
  fallback_mint: AXVANX9Exmoghok94dQkdLbQddpe9NjQkQ9heEcauDiF
metadata:
  store: s3
  s3:
    endpoint: localhost:9000
    access_key: a
    secret_key: b
    bucket: tokens
journal:
  enabled: true
wizard:
  step_timeout: 2m
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModeDryRun, cfg.Network.Mode)
	assert.Equal(t, "finalized", cfg.Network.Commitment)
	assert.Equal(t, 0.001, cfg.Market.TickSize)
	assert.Equal(t, 1.0, cfg.Market.OrderSize)
	assert.Equal(t, "AXVANX9Exmoghok94dQkdLbQddpe9NjQkQ9heEcauDiF", cfg.Market.FallbackMint)
	assert.Equal(t, "tokens", cfg.Metadata.S3.Bucket)
	assert.True(t, cfg.Metadata.S3.UseSSL)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Wizard.StepTimeout)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("LAUNCHPAD_NETWORK_MODE", "dryrun")
	t.Setenv("LAUNCHPAD_PRICE_FALLBACK", "42")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(writeConfig(t, "metadata:\n  describe: true\n"))
	require.NoError(t, err)
	assert.Equal(t, ModeDryRun, cfg.Network.Mode)
	assert.Equal(t, 42.0, cfg.Price.Fallback)
	assert.Equal(t, "sk-test", cfg.Metadata.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.Mode = "mainnet"
	cfg.Network.Commitment = "max"
	cfg.Market.FallbackMint = "not-a-key"
	cfg.Market.TickSize = 0
	cfg.Metadata.Store = StoreS3
	cfg.Metadata.S3.Endpoint = "http://localhost:9000"
	cfg.Metadata.Describe = true
	cfg.Metadata.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"network.mode", "network.commitment", "market.fallback_mint", "tick_size", "metadata.s3", "metadata.api_key"} {
		assert.ErrorContains(t, err, want)
	}
}
