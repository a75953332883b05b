// Package idempotency drops redelivered Telegram updates so each inbound
// message runs the pipeline at most once.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Deduper records update keys and reports whether a key was already seen.
type Deduper interface {
	// Seen marks key as processed and returns true when it had been
	// processed before.
	Seen(ctx context.Context, key string) (bool, error)
}

// UpdateKey builds a deterministic key for one Telegram update.
func UpdateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
