package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/contraceptive-compass-server/internal/domain"
)

const (
	defaultMaxItems = 1000
	defaultTTL      = time.Hour
)

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	lru    *expirable.LRU[string, *domain.RecommendationResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewMemoryCache creates a cache holding at most maxItems results for ttl each.
func NewMemoryCache(maxItems int, ttl time.Duration) *MemoryCache {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, *domain.RecommendationResult](maxItems, nil, ttl),
	}
}

// Get returns the cached result for key.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.RecommendationResult, bool) {
	result, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return result, true
}

// Set stores result under key.
func (c *MemoryCache) Set(_ context.Context, key string, result *domain.RecommendationResult) {
	c.lru.Add(key, result)
}

// Stats reports size and hit counters.
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Size:   c.lru.Len(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
