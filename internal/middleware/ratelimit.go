package middleware

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/bot/handlers"
	"github.com/igor-laryush/talkify-bot/internal/ratelimit"
)

// RateLimit throttles updates per user before any handler work happens.
func RateLimit(limiter ratelimit.Limiter, log *slog.Logger) handlers.Middleware {
	if limiter == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if c == nil || c.Sender() == nil {
				return next(c)
			}

			userID := c.Sender().ID

			decision, err := limiter.Allow(context.Background(), userID)
			if err != nil {
				log.Warn("rate limit check failed, processing update anyway",
					slog.Int64("user_id", userID), slog.Any("error", err))
				return next(c)
			}

			if !decision.Allowed {
				log.Info("rate limited update", slog.Int64("user_id", userID))
				return c.Send("⏳ You're sending messages too quickly. Please wait a moment and try again.")
			}

			return next(c)
		}
	}
}
