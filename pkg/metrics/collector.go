package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot command handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of handled messages labeled by processing mode and status",
		},
		[]string{"mode", "status"},
	)
	pipelineDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "End-to-end duration of one pipeline execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	quotaDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_denials_total",
			Help: "Quota denials split by stage (admission or post_check)",
		},
		[]string{"stage"},
	)
	collaboratorDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collaborator_request_duration_seconds",
			Help:    "Duration of external collaborator calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	knownUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "known_users",
			Help: "Number of user records in the store",
		},
	)
	activeUsers24h = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users_24h",
			Help: "Users with at least one exchange in the trailing 24 hours",
		},
	)
)

// RecordCommand increments command counters and records handling duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	commandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordMessage increments the message counter and records pipeline duration.
func RecordMessage(mode, status string, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	messagesTotal.WithLabelValues(mode, status).Inc()
	pipelineDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordQuotaDenial tracks admission and post-check denials.
func RecordQuotaDenial(stage string) {
	if stage == "" {
		stage = "unknown"
	}

	quotaDenialsTotal.WithLabelValues(stage).Inc()
}

// RecordCollaboratorCall records the duration of one external service call.
func RecordCollaboratorCall(service string, duration time.Duration) {
	if service == "" {
		service = "unknown"
	}

	collaboratorDurationSeconds.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// UserStats is the slice of the store the collector polls.
type UserStats interface {
	CountUsers(ctx context.Context) (int64, error)
	CountActiveUsersSince(ctx context.Context, since time.Time) (int64, error)
}

// StoreCollector periodically polls the store and updates user gauges.
type StoreCollector struct {
	stats    UserStats
	interval time.Duration
}

// NewStoreCollector builds a collector bound to the provided store.
func NewStoreCollector(stats UserStats, interval time.Duration) *StoreCollector {
	if interval <= 0 {
		interval = time.Minute
	}

	return &StoreCollector{stats: stats, interval: interval}
}

// Run polls the store until ctx is cancelled.
func (c *StoreCollector) Run(ctx context.Context) {
	if c == nil || c.stats == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *StoreCollector) collect(ctx context.Context) error {
	total, err := c.stats.CountUsers(ctx)
	if err != nil {
		return err
	}
	knownUsers.Set(float64(total))

	active, err := c.stats.CountActiveUsersSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	activeUsers24h.Set(float64(active))

	return nil
}
