package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"solana":{"usd":142.17}}`))
	}))
	defer server.Close()

	f := NewFeed(Config{URL: server.URL}, nil)
	defer f.Close()
	assert.Equal(t, Quote{USD: DefaultFallback}, f.Current())

	q, err := f.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142.17, q.USD)
	assert.True(t, q.Live)
	assert.Equal(t, q, f.Current())
}

func TestRefreshKeepsLastQuote(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			_, _ = w.Write([]byte(`{"solana":{"usd":100}}`))
		case 2:
			_, _ = w.Write([]byte(`{"solana":{}}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer server.Close()

	f := NewFeed(Config{URL: server.URL, Fallback: 10}, nil)
	defer f.Close()
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)

	_, err = f.Refresh(context.Background())
	assert.ErrorContains(t, err, "invalid price data")
	q, err := f.Refresh(context.Background())
	assert.ErrorContains(t, err, "429")
	assert.Equal(t, 100.0, q.USD)
}

func TestFallbackWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f := NewFeed(Config{URL: url}, nil)
	q, err := f.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultFallback, q.USD)
	assert.False(t, q.Live)
}

func TestRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"solana":{"usd":99.5}}`))
	}))
	defer server.Close()

	f := NewFeed(Config{URL: server.URL, Refresh: 5 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	updates := make(chan Quote, 16)
	done := make(chan error)
	go func() {
		done <- f.Run(ctx, func(q Quote) {
			select {
			case updates <- q:
			default:
			}
		})
	}()

	first := <-updates
	assert.Equal(t, 99.5, first.USD)
	<-updates
	cancel()
	assert.NoError(t, <-done)
}
