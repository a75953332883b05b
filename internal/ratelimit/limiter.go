// Package ratelimit throttles inbound messages per user before they reach
// the response pipeline.
package ratelimit

import (
	"context"
	"time"
)

// Decision captures the outcome of a rate-limit evaluation.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a user's message may proceed right now.
type Limiter interface {
	Allow(ctx context.Context, userID int64) (*Decision, error)
}
