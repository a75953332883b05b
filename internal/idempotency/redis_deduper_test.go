package idempotency

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisDeduper_FirstClaimNotSeen(t *testing.T) {
	deduper := NewRedisDeduper(setupTestRedis(t), time.Hour, testLogger())

	seen, err := deduper.Seen(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDeduper_RedeliveryIsSeen(t *testing.T) {
	deduper := NewRedisDeduper(setupTestRedis(t), time.Hour, testLogger())
	ctx := context.Background()

	_, err := deduper.Seen(ctx, "abc")
	require.NoError(t, err)

	seen, err := deduper.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRedisDeduper_DistinctKeysIndependent(t *testing.T) {
	deduper := NewRedisDeduper(setupTestRedis(t), time.Hour, testLogger())
	ctx := context.Background()

	_, err := deduper.Seen(ctx, "abc")
	require.NoError(t, err)

	seen, err := deduper.Seen(ctx, "def")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestUpdateKey_Deterministic(t *testing.T) {
	assert.Equal(t, UpdateKey(int64(7), 42), UpdateKey(int64(7), 42))
	assert.NotEqual(t, UpdateKey(int64(7), 42), UpdateKey(int64(7), 43))
	assert.NotEqual(t, UpdateKey(int64(7), 42), UpdateKey(int64(8), 42))
}
