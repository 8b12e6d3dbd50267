// Package redis provides a read-through cache in front of the
// allocation-record store. Postgres stays the source of truth; Redis
// only short-circuits the idempotency check for hot redeliveries.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/freshmart/ordersaga/internal/app"
	"github.com/freshmart/ordersaga/internal/domain"
)

const (
	processedKeyPrefix = "ordersaga:processed:"
	processedKeyTTL    = 24 * time.Hour
)

type DedupCache struct {
	inner  app.AllocationRecordRepository
	client *goredis.Client
	logger *zap.Logger
}

func NewDedupCache(inner app.AllocationRecordRepository, client *goredis.Client, logger *zap.Logger) *DedupCache {
	return &DedupCache{inner: inner, client: client, logger: logger}
}

func (c *DedupCache) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.inner.WithTx(ctx, fn)
}

// Exists consults the cache first; on a miss or a Redis error it falls
// through to the durable store and warms the marker on a hit. The
// marker is only ever written from a durable record, never ahead of
// one, so a cache entry can never claim an order that did not commit.
func (c *DedupCache) Exists(ctx context.Context, orderID string) (bool, error) {
	key := processedKeyPrefix + orderID

	hit, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Warn("dedup cache unavailable, falling back to store", zap.Error(err))
	} else if hit > 0 {
		return true, nil
	}

	processed, err := c.inner.Exists(ctx, orderID)
	if err != nil {
		return false, err
	}
	if processed {
		if err := c.client.SetNX(ctx, key, 1, processedKeyTTL).Err(); err != nil {
			c.logger.Warn("dedup cache warm failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return processed, nil
}

// Create writes only the durable record. The cache is warmed lazily by
// Exists: writing it here would race the surrounding transaction's
// commit.
func (c *DedupCache) Create(ctx context.Context, record domain.AllocationRecord) error {
	return c.inner.Create(ctx, record)
}

// MarkRestored passes through: the restoration claim must come from
// the durable store.
func (c *DedupCache) MarkRestored(ctx context.Context, orderID string, at time.Time) (bool, error) {
	return c.inner.MarkRestored(ctx, orderID, at)
}
