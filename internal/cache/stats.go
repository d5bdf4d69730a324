package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"streamnet/internal/model"
)

// StatsKey holds the cached admin dashboard numbers.
const StatsKey = "stats:platform"

// StatsCache stores the platform statistics for a short TTL.
type StatsCache interface {
	// Get returns found=false on a miss.
	Get(ctx context.Context) (stats *model.PlatformStats, found bool, err error)
	Set(ctx context.Context, stats *model.PlatformStats) error
	Invalidate(ctx context.Context) error
}

// RedisStatsCache implements StatsCache with a single JSON string key.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewStatsCache(client *redis.Client, ttl time.Duration, log *zap.Logger) StatsCache {
	return &RedisStatsCache{client: client, ttl: ttl, log: log}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*model.PlatformStats, bool, error) {
	raw, err := c.client.Get(ctx, StatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.log.Warn("stats cache get failed", zap.Error(err))
		return nil, false, fmt.Errorf("get stats: %w", err)
	}

	var stats model.PlatformStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *model.PlatformStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.client.Set(ctx, StatsKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn("stats cache set failed", zap.Error(err))
		return fmt.Errorf("set stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, StatsKey).Err(); err != nil {
		c.log.Warn("stats cache invalidate failed", zap.Error(err))
		return fmt.Errorf("del stats: %w", err)
	}
	return nil
}
