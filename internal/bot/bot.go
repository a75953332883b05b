// Package bot wires the Telegram transport, the command router, and the
// middleware chain around the response pipeline.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/bot/handlers"
	"github.com/igor-laryush/talkify-bot/internal/bot/keyboard"
	apperrors "github.com/igor-laryush/talkify-bot/internal/errors"
	"github.com/igor-laryush/talkify-bot/internal/idempotency"
	"github.com/igor-laryush/talkify-bot/internal/middleware"
	"github.com/igor-laryush/talkify-bot/internal/quota"
	"github.com/igor-laryush/talkify-bot/internal/ratelimit"
	"github.com/igor-laryush/talkify-bot/internal/transport"
	"github.com/igor-laryush/talkify-bot/internal/user"
	"github.com/igor-laryush/talkify-bot/pkg/config"
)

// Deps carries every collaborator the bot layer needs. All fields except
// Limiter and Deduper are required.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	ErrHandler  *apperrors.Handler
	UserService *user.Service
	Ledger      *quota.Ledger
	Pipeline    handlers.MessagePipeline
	History     handlers.ExchangeHistory
	Limiter     ratelimit.Limiter
	Deduper     idempotency.Deduper
}

// Bot owns the telebot instance and its routing table.
type Bot struct {
	bot       *telebot.Bot
	router    *Router
	transport transport.Transport
	log       *slog.Logger
}

// New constructs the bot with the poller implied by the configured mode:
// a registered webhook in production, long polling in development.
func New(deps Deps) (*Bot, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("bot: config is nil")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	poller, err := newPoller(deps.Config.Bot)
	if err != nil {
		return nil, err
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: poller,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telebot: %w", err)
	}

	b := &Bot{
		bot:       tb,
		router:    NewRouter(log),
		transport: transport.NewTelebotTransport(tb, log),
		log:       log,
	}

	b.useMiddlewares(deps, log)
	b.registerHandlers(deps, log)

	tb.Handle(telebot.OnText, b.router.Route)
	tb.Handle(telebot.OnVoice, b.router.Route)
	tb.Handle(telebot.OnCallback, b.router.Route)

	if err := tb.SetCommands(menuCommands()); err != nil {
		log.Warn("failed to publish command menu", slog.Any("error", err))
	}

	return b, nil
}

func newPoller(cfg config.BotConfig) (telebot.Poller, error) {
	switch cfg.Mode {
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("bot: webhook mode requires webhook_url")
		}
		return &telebot.Webhook{
			Listen: cfg.Listen,
			Endpoint: &telebot.WebhookEndpoint{
				PublicURL: cfg.WebhookURL,
			},
		}, nil
	default:
		return &telebot.LongPoller{Timeout: cfg.Timeout}, nil
	}
}

// useMiddlewares installs the chain. Recovery runs outermost so a panic in
// any layer still produces a user notice; dedup runs before any expensive
// work; auth runs last so only admitted updates hit the database.
func (b *Bot) useMiddlewares(deps Deps, log *slog.Logger) {
	b.router.Use(RecoveryMiddleware(log, deps.ErrHandler))
	b.router.Use(middleware.Dedup(deps.Deduper, log))
	b.router.Use(ErrorHandlingMiddleware(deps.ErrHandler))
	b.router.Use(LoggingMiddleware(log))
	b.router.Use(middleware.RateLimit(deps.Limiter, log))
	b.router.Use(AuthMiddleware(deps.UserService, log))
	b.router.Use(middleware.Metrics)
}

func (b *Bot) registerHandlers(deps Deps, log *slog.Logger) {
	builder := keyboard.NewBuilder(log)

	startHandler := handlers.NewStartHandler(log)
	b.router.RegisterCommand(CommandStart, startHandler)
	b.router.RegisterCommand(CommandHelp, startHandler)
	b.router.RegisterCommand(CommandPremium, handlers.NewPremiumHandler(b.transport, log))
	b.router.RegisterCommand(CommandLanguage, handlers.NewLanguageHandler(builder, log))
	b.router.RegisterCommand(CommandAudioMode, handlers.NewAudioModeHandler(deps.UserService, log))
	b.router.RegisterCommand(CommandUsage, handlers.NewUsageHandler(deps.Ledger, deps.History, log))
	b.router.RegisterCommand(CommandGrant, handlers.NewGrantHandler(deps.UserService, deps.Config.Admin.IDs, log))

	b.router.RegisterCallback(CallbackLanguagePrefix,
		handlers.NewLanguageCallbackHandler(deps.UserService, builder, log))

	b.router.SetDefault(handlers.NewMessageHandler(deps.Pipeline, log))
}

func menuCommands() []telebot.Command {
	return []telebot.Command{
		{Text: "start", Description: "Start the bot"},
		{Text: "help", Description: "Show available commands"},
		{Text: "premium", Description: "Learn about premium features"},
		{Text: "usage", Description: "Check your remaining free time"},
		{Text: "language", Description: "Change practice language (premium)"},
		{Text: "audiomode", Description: "Toggle Premium Audio mode (premium)"},
	}
}

// Start begins processing updates. Blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot started")
	b.bot.Start()
}

// Stop terminates the update loop.
func (b *Bot) Stop() {
	b.bot.Stop()
	b.log.Info("bot stopped")
}

// Telebot exposes the underlying client for health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.bot
}

// Transport exposes the outbound message transport bound to this bot.
func (b *Bot) Transport() transport.Transport {
	return b.transport
}
