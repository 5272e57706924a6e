package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portssvc "github.com/imovelhub/backoffice/internal/core/ports/services"
)

// versionKey is the shared generation counter. Bumping it invalidates every
// cached summary at once; stale generations simply expire.
const versionKey = "balance:summary:version"

// RedisSummaryCache is the versioned Redis cache behind the balance
// aggregator.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache creates the cache with the given payload TTL.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) portssvc.SummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

var _ portssvc.SummaryCache = (*RedisSummaryCache)(nil)

// Version returns the current cache generation; a missing counter is
// generation zero.
func (c *RedisSummaryCache) Version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read summary cache version: %w", err)
	}
	return version, nil
}

// Bump advances the cache generation and returns the new value.
func (c *RedisSummaryCache) Bump(ctx context.Context) (int64, error) {
	version, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to bump summary cache version: %w", err)
	}
	return version, nil
}

// GetSummary loads a cached summary; the second return reports a hit.
func (c *RedisSummaryCache) GetSummary(ctx context.Context, key string) (*domain.BalanceSummary, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached summary %s: %w", key, err)
	}

	var summary domain.BalanceSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached summary %s: %w", key, err)
	}
	return &summary, true, nil
}

// SetSummary stores a summary under the versioned key with the cache TTL.
func (c *RedisSummaryCache) SetSummary(ctx context.Context, key string, summary *domain.BalanceSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary for cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cached summary %s: %w", key, err)
	}
	return nil
}
