package data

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

type countingSentiment struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSentiment) Name() string { return "counting" }

func (c *countingSentiment) FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []types.SentimentPoint{{Date: d("2024-01-01"), Value: 42}}, nil
}

type countingPrices struct {
	calls int
}

func (c *countingPrices) Name() string { return "counting-prices" }

func (c *countingPrices) FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error) {
	c.calls++
	return []types.PricePoint{{Date: start, Price: 100}}, nil
}

// TestCachedSentimentProvider_Memoizes tests a single fetch shared by concurrent callers
func TestCachedSentimentProvider_Memoizes(t *testing.T) {
	inner := &countingSentiment{}
	p := NewCachedSentimentProvider(inner, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.FetchSentiment(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inner.calls)
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(9), stats.Hits)

	// callers get copies
	a, err := p.FetchSentiment(context.Background())
	require.NoError(t, err)
	a[0].Value = 99
	b, _ := p.FetchSentiment(context.Background())
	assert.Equal(t, 42.0, b[0].Value)
}

// TestCachedSentimentProvider_FailureNotCached tests that errors are surfaced and retried on next call
func TestCachedSentimentProvider_FailureNotCached(t *testing.T) {
	inner := &countingSentiment{err: errors.New("down")}
	p := NewCachedSentimentProvider(inner, nil)

	_, err := p.FetchSentiment(context.Background())
	assert.Error(t, err)

	inner.err = nil
	points, err := p.FetchSentiment(context.Background())
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, 2, inner.calls)
}

// TestCachedPriceProvider_KeyedByWindow tests that each window is fetched once
func TestCachedPriceProvider_KeyedByWindow(t *testing.T) {
	inner := &countingPrices{}
	p := NewCachedPriceProvider(inner, nil)
	ctx := context.Background()

	_, _ = p.FetchPrices(ctx, d("2024-01-01"), d("2024-02-01"))
	_, _ = p.FetchPrices(ctx, d("2024-01-01"), d("2024-02-01"))
	_, _ = p.FetchPrices(ctx, d("2023-01-01"), d("2024-02-01"))

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "Cached counting-prices", p.Name())
}

// TestMemoryCache_Clear tests size accounting and clearing
func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache()
	c.SetSentiment("a", []types.SentimentPoint{{}})
	c.SetPrices("b", []types.PricePoint{{}})
	assert.Equal(t, 2, c.Size())
	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.GetPrices("b")
	assert.False(t, ok)
}

// TestDataManager_LoadSeries tests data-unavailable wrapping and the observer
func TestDataManager_LoadSeries(t *testing.T) {
	var observed []string
	dm := NewDataManagerWithProviders(&countingSentiment{err: errors.New("down")}, &countingPrices{})
	dm.SetObserver(func(source string, err error) {
		observed = append(observed, source)
	})

	_, _, err := dm.LoadSeries(context.Background(), d("2024-01-01"), d("2024-02-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_UNAVAILABLE")
	assert.Equal(t, []string{"Cached counting"}, observed)

	dm = NewDataManagerWithProviders(&countingSentiment{}, &countingPrices{})
	sent, prices, err := dm.LoadSeries(context.Background(), d("2024-01-01"), d("2024-02-01"))
	require.NoError(t, err)
	assert.Len(t, sent, 1)
	assert.Len(t, prices, 1)
}

// TestNewPriceProvider_Sources tests provider selection from configuration
func TestNewPriceProvider_Sources(t *testing.T) {
	p, err := NewPriceProvider(SourceConfig{})
	require.NoError(t, err)
	assert.Equal(t, "yahoo:SPY,VOO", p.Name())

	p, err = NewPriceProvider(SourceConfig{PriceSource: "bybit", BybitSymbol: "BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, "bybit:spot:BTCUSDT", p.Name())

	_, err = NewPriceProvider(SourceConfig{PriceSource: "bybit"})
	assert.Error(t, err)

	_, err = NewPriceProvider(SourceConfig{PriceSource: "csv", DataRoot: t.TempDir()})
	assert.Error(t, err)

	_, err = NewSentimentProvider(SourceConfig{SentimentSource: "twitter"})
	assert.Error(t, err)

	s, err := NewSentimentProvider(SourceConfig{SentimentSource: "alternative"})
	require.NoError(t, err)
	assert.Equal(t, "alternative.me", s.Name())
}
