package quota

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

type stubUsageStore struct {
	used     float64
	err      error
	gotUser  int64
	gotSince time.Time
}

func (s *stubUsageStore) SumDurationSince(_ context.Context, userID int64, since time.Time) (float64, error) {
	s.gotUser = userID
	s.gotSince = since
	return s.used, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckAdmission_PremiumBypassesStore(t *testing.T) {
	store := &stubUsageStore{err: errors.New("must not be called")}
	ledger := NewLedger(store, 10, testLogger())

	admission, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 1, Premium: true})

	require.NoError(t, err)
	assert.True(t, admission.Allowed)
	assert.True(t, admission.Unlimited)
	assert.True(t, math.IsInf(admission.Remaining, 1))
	assert.Zero(t, store.gotUser, "premium check must not touch the store")
}

func TestCheckAdmission_AllowsUnderLimit(t *testing.T) {
	store := &stubUsageStore{used: 4}
	ledger := NewLedger(store, 10, testLogger())

	admission, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 42})

	require.NoError(t, err)
	assert.True(t, admission.Allowed)
	assert.False(t, admission.Unlimited)
	assert.InDelta(t, 6.0, admission.Remaining, 1e-9)
	assert.Equal(t, int64(42), store.gotUser)
}

func TestCheckAdmission_DeniesAtLimit(t *testing.T) {
	store := &stubUsageStore{used: 10}
	ledger := NewLedger(store, 10, testLogger())

	admission, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 42})

	require.NoError(t, err)
	assert.False(t, admission.Allowed)
	assert.InDelta(t, 0.0, admission.Remaining, 1e-9)
}

func TestCheckAdmission_WindowIsTrailing24Hours(t *testing.T) {
	store := &stubUsageStore{}
	ledger := NewLedger(store, 10, testLogger())

	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }

	_, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 7})

	require.NoError(t, err)
	assert.Equal(t, fixed.Add(-24*time.Hour), store.gotSince)
}

func TestCheckAdmission_FailsClosedWhenStoreUnreachable(t *testing.T) {
	store := &stubUsageStore{err: errors.New("connection refused")}
	ledger := NewLedger(store, 10, testLogger())

	admission, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 42})

	require.Error(t, err)
	assert.False(t, admission.Allowed)
}

func TestCheckAdmission_NilUser(t *testing.T) {
	ledger := NewLedger(&stubUsageStore{}, 10, testLogger())

	_, err := ledger.CheckAdmission(context.Background(), nil)

	assert.Error(t, err)
}

func TestSetDailyLimit_TakesEffectOnNextCheck(t *testing.T) {
	store := &stubUsageStore{used: 15}
	ledger := NewLedger(store, 10, testLogger())

	admission, err := ledger.CheckAdmission(context.Background(), &domain.User{ID: 1})
	require.NoError(t, err)
	assert.False(t, admission.Allowed)

	ledger.SetDailyLimit(30)
	assert.InDelta(t, 30.0, ledger.DailyLimit(), 1e-9)

	admission, err = ledger.CheckAdmission(context.Background(), &domain.User{ID: 1})
	require.NoError(t, err)
	assert.True(t, admission.Allowed)
	assert.InDelta(t, 15.0, admission.Remaining, 1e-9)
}

func TestWouldExceed(t *testing.T) {
	ledger := NewLedger(&stubUsageStore{}, 10, testLogger())

	tests := []struct {
		name      string
		remaining float64
		estimated float64
		want      bool
	}{
		{"under", 5.0, 2.0, false},
		{"exactly equal fits", 2.0, 2.0, false},
		{"over", 0.5, 2.0, true},
		{"zero remaining", 0.0, 0.5, true},
		{"zero estimate", 0.0, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.WouldExceed(tt.remaining, tt.estimated))
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t ", 0},
		{"single word", "hello", 1.0 / 3.0},
		{"nine words", "one two three four five six seven eight nine", 3.0},
		{"irregular spacing", "  one   two\nthree\t", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateDuration(tt.text), 1e-9)
		})
	}
}
