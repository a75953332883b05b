// Package quota meters synthesized speech time against the free-tier limit.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

// Window is the trailing interval usage is aggregated over.
const Window = 24 * time.Hour

// wordsPerSecond is the speech-rate heuristic used to price a response.
// The estimate is intentionally word-count based rather than measured from
// the actual audio; callers depend on this exact formula.
const wordsPerSecond = 3.0

// UsageStore is the slice of the exchange log the ledger reads.
type UsageStore interface {
	SumDurationSince(ctx context.Context, userID int64, since time.Time) (float64, error)
}

// Admission is the outcome of a pre-generation quota check.
type Admission struct {
	Allowed   bool
	Remaining float64
	Unlimited bool
}

// Ledger decides whether a user may consume the response pipeline. It is
// read-only against the exchange log; the window is recomputed on every
// check rather than cached.
type Ledger struct {
	store UsageStore
	log   *slog.Logger
	// dailyLimit holds math.Float64bits of the configured limit so config
	// reloads can swap it without a lock.
	dailyLimit atomic.Uint64
	now        func() time.Time
}

// NewLedger builds a Ledger with the given free-tier daily limit in seconds.
func NewLedger(store UsageStore, dailyLimitSeconds float64, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}

	l := &Ledger{
		store: store,
		log:   log,
		now:   time.Now,
	}
	l.dailyLimit.Store(math.Float64bits(dailyLimitSeconds))

	return l
}

// SetDailyLimit replaces the free-tier limit, used by config hot reload.
func (l *Ledger) SetDailyLimit(seconds float64) {
	l.dailyLimit.Store(math.Float64bits(seconds))
}

// DailyLimit returns the currently configured free-tier limit in seconds.
func (l *Ledger) DailyLimit() float64 {
	return math.Float64frombits(l.dailyLimit.Load())
}

// CheckAdmission decides whether the user may start a pipeline execution.
// Premium users are always admitted with unlimited remaining time. When the
// store is unreachable the check fails closed: the user is denied rather
// than granted unmetered use.
func (l *Ledger) CheckAdmission(ctx context.Context, user *domain.User) (Admission, error) {
	if user == nil {
		return Admission{}, fmt.Errorf("quota: user is nil")
	}

	if user.Premium {
		return Admission{Allowed: true, Remaining: math.Inf(1), Unlimited: true}, nil
	}

	since := l.now().UTC().Add(-Window)
	used, err := l.store.SumDurationSince(ctx, user.ID, since)
	if err != nil {
		l.log.Error("usage window lookup failed, denying admission",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return Admission{Allowed: false}, fmt.Errorf("sum usage window: %w", err)
	}

	remaining := l.DailyLimit() - used

	return Admission{
		Allowed:   remaining > 0,
		Remaining: remaining,
	}, nil
}

// WouldExceed reports whether delivering a response of estimatedSeconds
// would overrun the remaining allowance. Pure comparison, no I/O.
func (l *Ledger) WouldExceed(remainingSeconds, estimatedSeconds float64) bool {
	return remainingSeconds < estimatedSeconds
}

// EstimateDuration prices a response in seconds of speech using the fixed
// word-rate heuristic.
func EstimateDuration(text string) float64 {
	return float64(len(strings.Fields(text))) / wordsPerSecond
}
