package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/contraceptive-compass-server/internal/domain"
)

const defaultKeyPrefix = "compass:result:"

// RedisCache shares results between server replicas. Every call goes through
// a circuit breaker so an unavailable Redis costs one failed dial per breaker
// timeout instead of one per request.
type RedisCache struct {
	client     *redis.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	prefix     string
	defaultTTL time.Duration
}

// cachedResult wraps a result with expiry metadata.
type cachedResult struct {
	Result    *domain.RecommendationResult `json:"result"`
	CachedAt  time.Time                    `json:"cached_at"`
	ExpiresAt time.Time                    `json:"expires_at"`
}

// NewRedisCache connects to the Redis server in cfg.RedisURL.
func NewRedisCache(cfg domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisCache(client, cfg, logger), nil
}

func newRedisCache(client *redis.Client, cfg domain.CacheConfig, logger *logrus.Logger) *RedisCache {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	c := &RedisCache{
		client:     client,
		logger:     logger,
		prefix:     prefix,
		defaultTTL: ttl,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-result-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker changed state")
		},
	})
	return c
}

// Get returns the cached result for key. Errors, corrupt entries and an open
// breaker all read as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.RecommendationResult, bool) {
	v, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, c.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		c.logger.WithError(err).Debug("Result cache read failed")
		return nil, false
	}
	val, _ := v.([]byte)
	if val == nil {
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal(val, &cached); err != nil || cached.Result == nil {
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	return cached.Result, true
}

// Set stores result under key with the default TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *domain.RecommendationResult) {
	now := time.Now()
	data, err := json.Marshal(cachedResult{
		Result:    result,
		CachedAt:  now,
		ExpiresAt: now.Add(c.defaultTTL),
	})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal cached result")
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.prefix+key, data, c.defaultTTL).Err()
	})
	if err != nil {
		c.logger.WithError(err).Debug("Result cache write failed")
	}
}

// BreakerState exposes the breaker state for health reporting.
func (c *RedisCache) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
