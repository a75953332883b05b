package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is an in-memory Limiter used in development when Redis is
// not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[int64][]time.Time
	limit   int
	window  time.Duration
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[int64][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Allow enforces the sliding-window limit for the user.
func (m *MemoryLimiter) Allow(ctx context.Context, userID int64) (*Decision, error) {
	now := time.Now()
	windowStart := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	requests := keepRecent(m.buckets[userID], windowStart)

	allowed := len(requests) < m.limit
	if allowed {
		requests = append(requests, now)
	}
	m.buckets[userID] = requests

	remaining := m.limit - len(requests)
	if remaining < 0 {
		remaining = 0
	}

	return &Decision{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(m.window),
	}, nil
}

// Cleanup drops buckets whose newest entry is older than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, requests := range m.buckets {
		if len(requests) == 0 || requests[len(requests)-1].Before(cutoff) {
			delete(m.buckets, userID)
		}
	}
}

func keepRecent(requests []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(requests) && requests[firstIdx].Before(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return requests
	}

	if firstIdx >= len(requests) {
		return requests[:0]
	}

	copy(requests, requests[firstIdx:])
	return requests[:len(requests)-firstIdx]
}
