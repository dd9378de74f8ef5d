package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

const statsCacheTTL = 5 * time.Minute

// StatsCache caches per-user dashboard stats payloads in Redis.
// Key format: stats:dashboard:<user_id>
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a StatsCache wrapping the given Redis client.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Get returns the cached dashboard for the user, or (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context, userID string) (*ports.DashboardStats, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("stats cache get: %w", err)
	}

	var stats ports.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, nil
}

// Set stores the dashboard payload (expires after statsCacheTTL).
func (c *StatsCache) Set(ctx context.Context, userID string, stats *ports.DashboardStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(userID), raw, statsCacheTTL).Err()
}

// Invalidate drops the cached dashboard after a counter recompute.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *StatsCache) key(userID string) string {
	return fmt.Sprintf("stats:dashboard:%s", userID)
}
