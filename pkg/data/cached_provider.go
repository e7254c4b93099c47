package data

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// MemoryCache implements SeriesCache using in-memory storage
type MemoryCache struct {
	sentiment map[string][]types.SentimentPoint
	prices    map[string][]types.PricePoint
	mutex     sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sentiment: make(map[string][]types.SentimentPoint),
		prices:    make(map[string][]types.PricePoint),
	}
}

// GetSentiment retrieves a copy of a cached sentiment series
func (c *MemoryCache) GetSentiment(key string) ([]types.SentimentPoint, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, exists := c.sentiment[key]
	if !exists {
		return nil, false
	}
	result := make([]types.SentimentPoint, len(data))
	copy(result, data)
	return result, true
}

// SetSentiment stores a copy of a sentiment series
func (c *MemoryCache) SetSentiment(key string, data []types.SentimentPoint) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.SentimentPoint, len(data))
	copy(cached, data)
	c.sentiment[key] = cached
}

// GetPrices retrieves a copy of a cached price series
func (c *MemoryCache) GetPrices(key string) ([]types.PricePoint, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, exists := c.prices[key]
	if !exists {
		return nil, false
	}
	result := make([]types.PricePoint, len(data))
	copy(result, data)
	return result, true
}

// SetPrices stores a copy of a price series
func (c *MemoryCache) SetPrices(key string, data []types.PricePoint) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.PricePoint, len(data))
	copy(cached, data)
	c.prices[key] = cached
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sentiment = make(map[string][]types.SentimentPoint)
	c.prices = make(map[string][]types.PricePoint)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.sentiment) + len(c.prices)
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits   int64
	Misses int64
}

// cacheCounter is embedded by both cached providers
type cacheCounter struct {
	mu     sync.Mutex
	hits   int64
	misses int64
}

func (c *cacheCounter) hit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *cacheCounter) miss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

// Stats returns hit and miss counts
func (c *cacheCounter) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses}
}

// CachedSentimentProvider fetches the sentiment history once per process.
// Failed fetches are not cached.
type CachedSentimentProvider struct {
	cacheCounter
	provider SentimentProvider
	cache    SeriesCache
	fetchMu  sync.Mutex
}

// NewCachedSentimentProvider wraps provider with an in-memory cache
func NewCachedSentimentProvider(provider SentimentProvider, cache SeriesCache) *CachedSentimentProvider {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CachedSentimentProvider{provider: provider, cache: cache}
}

// Name returns the name of the underlying provider with cache indication
func (p *CachedSentimentProvider) Name() string {
	return "Cached " + p.provider.Name()
}

// FetchSentiment returns the cached series or fetches it on first use
func (p *CachedSentimentProvider) FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error) {
	key := p.provider.Name()
	if data, ok := p.cache.GetSentiment(key); ok {
		p.hit()
		return data, nil
	}

	// one fetch at a time so concurrent callers share the result
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	if data, ok := p.cache.GetSentiment(key); ok {
		p.hit()
		return data, nil
	}
	p.miss()

	log.Printf("🔄 Loading sentiment history from %s", p.provider.Name())
	data, err := p.provider.FetchSentiment(ctx)
	if err != nil {
		log.Printf("❌ Failed to load sentiment from %s: %v", p.provider.Name(), err)
		return nil, err
	}

	p.cache.SetSentiment(key, data)
	log.Printf("✅ Loaded and cached sentiment from %s (%d records)", p.provider.Name(), len(data))
	return data, nil
}

// CachedPriceProvider fetches each price window once per process.
type CachedPriceProvider struct {
	cacheCounter
	provider PriceProvider
	cache    SeriesCache
	fetchMu  sync.Mutex
}

// NewCachedPriceProvider wraps provider with an in-memory cache
func NewCachedPriceProvider(provider PriceProvider, cache SeriesCache) *CachedPriceProvider {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CachedPriceProvider{provider: provider, cache: cache}
}

// Name returns the name of the underlying provider with cache indication
func (p *CachedPriceProvider) Name() string {
	return "Cached " + p.provider.Name()
}

// FetchPrices returns the cached window or fetches it on first use
func (p *CachedPriceProvider) FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error) {
	key := fmt.Sprintf("%s|%s|%s", p.provider.Name(), start.Format(types.DateLayout), end.Format(types.DateLayout))
	if data, ok := p.cache.GetPrices(key); ok {
		p.hit()
		return data, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	if data, ok := p.cache.GetPrices(key); ok {
		p.hit()
		return data, nil
	}
	p.miss()

	log.Printf("🔄 Loading prices from %s (%s → %s)", p.provider.Name(),
		start.Format(types.DateLayout), end.Format(types.DateLayout))
	data, err := p.provider.FetchPrices(ctx, start, end)
	if err != nil {
		log.Printf("❌ Failed to load prices from %s: %v", p.provider.Name(), err)
		return nil, err
	}

	p.cache.SetPrices(key, data)
	log.Printf("✅ Loaded and cached prices from %s (%d records)", p.provider.Name(), len(data))
	return data, nil
}
