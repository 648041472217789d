package matching

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lifeline/pkg/domain"
)

// Cache stores recent search results in Redis. It is strictly best-effort:
// every failure path degrades to recomputing the search, never to an error.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache wraps a redis client. ttl bounds staleness between a donor pool
// change and search results reflecting it; creation of a match for the
// request invalidates eagerly via Invalidate.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) Get(ctx context.Context, key string) ([]*RankedDonor, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "search cache read failed", "error", err)
		}
		return nil, false
	}
	var results []*RankedDonor
	if err := json.Unmarshal(raw, &results); err != nil {
		c.logger.WarnContext(ctx, "search cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return results, true
}

func (c *Cache) Set(ctx context.Context, key string, results []*RankedDonor) {
	raw, err := json.Marshal(results)
	if err != nil {
		c.logger.WarnContext(ctx, "search cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "search cache write failed", "error", err)
	}
}

// Invalidate drops every cached search for the request. Called when a match
// is created so the new exclusion shows up immediately.
func (c *Cache) Invalidate(ctx context.Context, requestID domain.RequestID) {
	pattern := "search:req:" + requestID.String() + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.WarnContext(ctx, "search cache invalidation failed",
				"key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "search cache scan failed", "error", err)
	}
}
