// Package price keeps a SOL/USD quote for display next to liquidity amounts.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/santiagomed/launchpad/logger"
)

const (
	DefaultURL      = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	DefaultFallback = 57.5
	DefaultRefresh  = 5 * time.Minute
)

type Config struct {
	URL      string        `mapstructure:"url"`
	Refresh  time.Duration `mapstructure:"refresh"`
	Fallback float64       `mapstructure:"fallback"`
}

// Quote is the last known price. Live is false while the fallback is shown.
type Quote struct {
	USD       float64
	Live      bool
	UpdatedAt time.Time
}

type Feed struct {
	cfg    Config
	client *http.Client
	logger logger.Logger

	mu    sync.RWMutex
	quote Quote
}

func NewFeed(cfg Config, l logger.Logger) *Feed {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = DefaultRefresh
	}
	if cfg.Fallback <= 0 {
		cfg.Fallback = DefaultFallback
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Feed{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: l.WithField("component", "price"),
		quote:  Quote{USD: cfg.Fallback},
	}
}

// Current returns the last fetched quote, or the fallback.
func (f *Feed) Current() Quote {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.quote
}

// Close drops idle connections to the price API.
func (f *Feed) Close() {
	f.client.CloseIdleConnections()
}

// Refresh fetches a new quote. On failure the previous quote is kept.
func (f *Feed) Refresh(ctx context.Context) (Quote, error) {
	usd, err := f.fetch(ctx)
	if err != nil {
		f.logger.WithField("error", err.Error()).Warn("Failed to fetch SOL price, keeping last quote")
		return f.Current(), err
	}
	q := Quote{USD: usd, Live: true, UpdatedAt: time.Now()}
	f.mu.Lock()
	f.quote = q
	f.mu.Unlock()
	return q, nil
}

// Run refreshes immediately and then on every tick until ctx is done,
// passing each quote to onUpdate.
func (f *Feed) Run(ctx context.Context, onUpdate func(Quote)) error {
	ticker := time.NewTicker(f.cfg.Refresh)
	defer ticker.Stop()
	defer f.Close()

	for {
		q, _ := f.Refresh(ctx)
		if onUpdate != nil && ctx.Err() == nil {
			onUpdate(q)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (f *Feed) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("read price response: %w", err)
	}

	var data struct {
		Solana struct {
			USD *float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	if data.Solana.USD == nil || *data.Solana.USD <= 0 {
		return 0, errors.New("invalid price data received")
	}
	return *data.Solana.USD, nil
}
