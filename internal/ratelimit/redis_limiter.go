package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter using Redis sorted sets and a sliding window.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed limiter allowing limit messages per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		log:    log,
	}
}

// Allow evaluates the sliding window for the user.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64) (*Decision, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	if l.limit <= 0 {
		return &Decision{Allowed: false, ResetAt: time.Now().Add(l.window)}, nil
	}

	now := time.Now()
	windowStart := now.Add(-l.window)
	key := "msglimit:" + strconv.FormatInt(userID, 10)

	cutoff := float64(windowStart.UnixNano()) / float64(time.Millisecond)
	score := float64(now.UnixNano()) / float64(time.Millisecond)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", cutoff))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  score,
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, l.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil {
		l.log.Error("rate limiter failed to read count", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: remaining,
		ResetAt:   windowStart.Add(l.window),
	}, nil
}
