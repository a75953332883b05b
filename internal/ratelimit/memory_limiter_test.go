package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_EnforcesLimit(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, 1)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := limiter.Allow(ctx, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	limiter := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	decision, err := limiter.Allow(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = limiter.Allow(ctx, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	time.Sleep(60 * time.Millisecond)

	decision, err = limiter.Allow(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestMemoryLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	limiter := NewMemoryLimiter(5, 10*time.Millisecond)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, 1)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	limiter.Cleanup(10 * time.Millisecond)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.buckets)
}
