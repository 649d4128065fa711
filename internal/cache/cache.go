// Package cache stores classification results keyed by catalog version and
// encoded answers. Results are pure functions of those two inputs, so entries
// never need invalidation beyond their TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/contraceptive-compass-server/internal/domain"
)

// ResultCache caches recommendation results. Implementations treat every
// backend failure as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.RecommendationResult, bool)
	Set(ctx context.Context, key string, result *domain.RecommendationResult)
	Close() error
}

// Key derives the cache key for a catalog version and an answer set.
func Key(catalogVersion string, answers domain.EncodedAnswers) string {
	payload, _ := json.Marshal(answers)
	h := sha256.New()
	h.Write([]byte(catalogVersion))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the cache selected by cfg.Backend. The "none" backend returns a
// nil cache, which callers treat as caching disabled.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (ResultCache, error) {
	switch cfg.Backend {
	case "", domain.CacheBackendNone:
		return nil, nil
	case domain.CacheBackendMemory:
		return NewMemoryCache(cfg.MaxItems, cfg.DefaultTTL), nil
	case domain.CacheBackendRedis:
		rc, err := NewRedisCache(cfg, logger)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// Status summarises a result cache for health reporting.
type Status struct {
	Backend string `json:"backend"`
	Breaker string `json:"breaker,omitempty"`
	Stats   *Stats `json:"stats,omitempty"`
}

// StatusOf describes c. A nil cache reports the "none" backend.
func StatusOf(c ResultCache) Status {
	switch v := c.(type) {
	case *MemoryCache:
		stats := v.Stats()
		return Status{Backend: domain.CacheBackendMemory, Stats: &stats}
	case *RedisCache:
		return Status{Backend: domain.CacheBackendRedis, Breaker: v.BreakerState().String()}
	default:
		return Status{Backend: domain.CacheBackendNone}
	}
}

// Check fails while the Redis circuit breaker is open. Other backends are
// always healthy.
func Check(c ResultCache) error {
	if rc, ok := c.(*RedisCache); ok && rc.BreakerState() == gobreaker.StateOpen {
		return errors.New("redis circuit breaker is open")
	}
	return nil
}
