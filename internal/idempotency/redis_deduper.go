package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "update:"

// RedisDeduper implements Deduper with SET NX and a TTL, so the seen-set
// expires on its own.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

var _ Deduper = (*RedisDeduper)(nil)

// NewRedisDeduper builds a deduper whose records expire after ttl.
func NewRedisDeduper(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	return &RedisDeduper{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Seen claims the key atomically; a failed claim means a redelivery.
func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, keyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		d.log.Error("dedup claim failed", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return !claimed, nil
}
