package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quantpulse/optionsengine/internal/models"
)

// SignalCacheEntry wraps a scan result with cache metadata.
type SignalCacheEntry struct {
	Calls     []models.RankedCall `json:"calls"`
	CachedAt  time.Time           `json:"cached_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// SignalCacheStats tracks cache performance metrics.
type SignalCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.RWMutex
}

// RedisSignalCache stores the latest ranked calls per symbol in Redis so
// API reads and notification retries never re-run a scan.
type RedisSignalCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *SignalCacheStats
	prefix string
	logger *logrus.Logger
}

// NewRedisSignalCache creates a Redis-backed signal cache.
func NewRedisSignalCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisSignalCache {
	return &RedisSignalCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &SignalCacheStats{},
		prefix: "signals:",
		logger: logger,
	}
}

// Get retrieves the latest ranked calls for a symbol.
func (c *RedisSignalCache) Get(ctx context.Context, symbol string) ([]models.RankedCall, bool) {
	data, err := c.redis.Get(ctx, c.prefix+symbol).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Redis error reading signals")
		c.miss()
		return nil, false
	}

	var entry SignalCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to decode cached signals")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()

	return entry.Calls, true
}

// Set stores the ranked calls for a symbol with the configured TTL.
func (c *RedisSignalCache) Set(ctx context.Context, symbol string, calls []models.RankedCall) error {
	now := time.Now()
	entry := SignalCacheEntry{
		Calls:     calls,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := c.redis.Set(ctx, c.prefix+symbol, data, c.ttl).Err(); err != nil {
		return err
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"calls":  len(calls),
		"ttl":    c.ttl,
	}).Debug("Cached ranked calls")
	return nil
}

// GetStats returns a copy of the current cache statistics.
func (c *RedisSignalCache) GetStats() SignalCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return SignalCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
	}
}

// LogStats logs cache hit-rate statistics.
func (c *RedisSignalCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"hit_rate": hitRate,
	}).Info("Signal cache stats")
}

// Clear removes every cached signal entry.
func (c *RedisSignalCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *RedisSignalCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
