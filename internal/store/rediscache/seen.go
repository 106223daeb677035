// Package rediscache keeps a short-lived set of recently persisted external
// IDs in Redis so repeat cycles skip the store round-trip for videos seen
// minutes ago. It is an optimization only: a miss falls through to the
// store's ExistsByExternalID, and any Redis failure degrades to a miss.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "trand:seen:"

// SeenCache marks external IDs as already persisted.
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. An empty addr returns nil, meaning no cache.
func New(addr string, ttl time.Duration) *SeenCache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &SeenCache{client: client, ttl: ttl}
}

// Seen reports whether the external ID was marked recently. Errors count
// as not seen.
func (c *SeenCache) Seen(ctx context.Context, externalID string) bool {
	if c == nil {
		return false
	}
	n, err := c.client.Exists(ctx, keyPrefix+externalID).Result()
	if err != nil {
		log.Warn().Err(err).Msg("seen cache lookup failed")
		return false
	}
	return n > 0
}

// Mark records the external ID with the configured TTL.
func (c *SeenCache) Mark(ctx context.Context, externalID string) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+externalID, 1, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("seen cache mark failed")
	}
}

// Close releases the connection.
func (c *SeenCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
