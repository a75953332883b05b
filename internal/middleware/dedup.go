package middleware

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/bot/handlers"
	"github.com/igor-laryush/talkify-bot/internal/idempotency"
)

// Dedup drops redelivered updates so each inbound message is handled at most
// once. When the deduper itself fails the update is processed anyway; a
// duplicate reply is preferable to a silently dropped message.
func Dedup(deduper idempotency.Deduper, log *slog.Logger) handlers.Middleware {
	if deduper == nil {
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
			key := extractUpdateKey(c)
			if key == "" {
				return next(c)
			}

			seen, err := deduper.Seen(context.Background(), key)
			if err != nil {
				log.Warn("dedup check failed, processing update anyway", slog.Any("error", err))
				return next(c)
			}

			if seen {
				log.Info("dropping redelivered update", slog.String("key", key))
				return nil
			}

			return next(c)
		}
	}
}

func extractUpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	update := c.Update()
	if update.ID == 0 {
		return ""
	}

	userID := int64(0)
	if c.Sender() != nil {
		userID = c.Sender().ID
	}

	return idempotency.UpdateKey(userID, update.ID)
}
