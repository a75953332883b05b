package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/igor-laryush/talkify-bot/internal/bot"
	"github.com/igor-laryush/talkify-bot/internal/database"
	"github.com/igor-laryush/talkify-bot/internal/domain"
	apperrors "github.com/igor-laryush/talkify-bot/internal/errors"
	"github.com/igor-laryush/talkify-bot/internal/health"
	"github.com/igor-laryush/talkify-bot/internal/i18n"
	"github.com/igor-laryush/talkify-bot/internal/idempotency"
	"github.com/igor-laryush/talkify-bot/internal/pipeline"
	"github.com/igor-laryush/talkify-bot/internal/quota"
	"github.com/igor-laryush/talkify-bot/internal/ratelimit"
	"github.com/igor-laryush/talkify-bot/internal/repository"
	"github.com/igor-laryush/talkify-bot/internal/speech"
	"github.com/igor-laryush/talkify-bot/internal/user"
	"github.com/igor-laryush/talkify-bot/pkg/config"
	"github.com/igor-laryush/talkify-bot/pkg/graceful"
	"github.com/igor-laryush/talkify-bot/pkg/logger"
	"github.com/igor-laryush/talkify-bot/pkg/metrics"
	appredis "github.com/igor-laryush/talkify-bot/pkg/redis"

	_ "github.com/lib/pq"
)

const (
	migrationsDir   = "migrations"
	localesDir      = "locales"
	statsInterval   = time.Minute
	dedupTTL        = 24 * time.Hour
	sentryFlushWait = 2 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			slog.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(sentryFlushWait)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	log.Info("starting talkify bot", slog.String("env", cfg.AppEnv), slog.String("bot_mode", cfg.Bot.Mode))

	if err := run(ctx, cfg, v, log); err != nil {
		log.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("talkify bot stopped")
}

func run(ctx context.Context, cfg *config.Config, v *viper.Viper, log *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, migrationsDir); err != nil {
		return err
	}

	repo := repository.NewUserRepository(db, log)
	userService := user.NewService(repo, log)
	ledger := quota.NewLedger(repo, cfg.Quota.DailyFreeSeconds, log)

	// Quota limit follows the config file without a restart.
	config.Watch(v, cfg.AppEnv, log, func(next *config.Config) {
		ledger.SetDailyLimit(next.Quota.DailyFreeSeconds)
	})

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))

	var limiter ratelimit.Limiter
	var deduper idempotency.Deduper

	if cfg.Redis.Addr != "" {
		rdb, err := appredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()

		if cfg.RateLimit.Enabled {
			limiter = ratelimit.NewRedisLimiter(rdb.Client, cfg.RateLimit.Messages, cfg.RateLimit.Window, log)
		}
		deduper = idempotency.NewRedisDeduper(rdb.Client, dedupTTL, log)
		checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	} else {
		log.Warn("redis not configured, using in-memory rate limiting and no deduplication")
		if cfg.RateLimit.Enabled {
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Messages, cfg.RateLimit.Window)
		}
	}

	catalog, err := i18n.LoadFromDir(localesDir, "")
	if err != nil {
		log.Warn("locale catalog unavailable, falling back to built-in notices", slog.Any("error", err))
		catalog = nil
	}

	openaiClient := speech.NewOpenAIClient(cfg.OpenAI, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	// The transport wraps the telebot instance that the bot owns, so the
	// pipeline is assembled after the bot through a late-bound reference.
	proxy := &pipelineProxy{}

	tgBot, err := bot.New(bot.Deps{
		Config:      cfg,
		Logger:      log,
		ErrHandler:  errHandler,
		UserService: userService,
		Ledger:      ledger,
		Pipeline:    proxy,
		History:     repo,
		Limiter:     limiter,
		Deduper:     deduper,
	})
	if err != nil {
		return err
	}

	proxy.pipeline = pipeline.New(
		ledger,
		repo,
		tgBot.Transport(),
		openaiClient,
		openaiClient,
		openaiClient,
		openaiClient,
		catalog,
		cfg.Pipeline.CallTimeout,
		log,
	)

	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	collector := metrics.NewStoreCollector(repo, statsInterval)
	go collector.Run(ctx)

	srv := graceful.NewServer(log, newHTTPServer(cfg, checker), cfg.Server.ShutdownTimeout)
	srvDone := make(chan error, 1)
	go func() { srvDone <- srv.ListenAndServe(ctx) }()

	go tgBot.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")

	tgBot.Stop()

	return <-srvDone
}

func newHTTPServer(cfg *config.Config, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results, healthy := checker.Check(r.Context())

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)

		for name, result := range results {
			_, _ = w.Write([]byte(name + ": " + result + "\n"))
		}
	})

	return &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// pipelineProxy breaks the construction cycle between the bot, which owns
// the telebot instance, and the pipeline, which needs its transport. The
// pipeline field is set before the bot starts polling.
type pipelineProxy struct {
	pipeline *pipeline.Pipeline
}

func (p *pipelineProxy) Handle(ctx context.Context, u *domain.User, msg pipeline.Inbound) error {
	return p.pipeline.Handle(ctx, u, msg)
}
