package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"
)

// PremiumSetter flips the premium subscription flag for a user.
type PremiumSetter interface {
	SetPremium(ctx context.Context, telegramID int64, premium bool) error
}

// NewGrantHandler returns the /grant handler. Only configured admins may
// invoke it; everyone else sees no reaction at all so the command stays
// undiscoverable.
func NewGrantHandler(svc PremiumSetter, adminIDs []int64, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		if _, ok := admins[c.Sender().ID]; !ok {
			log.Warn("grant attempt by non-admin", slog.Int64("user_id", c.Sender().ID))
			return nil
		}

		args := strings.Fields(c.Text())
		if len(args) != 2 {
			return c.Send("Usage: /grant <telegram_id>")
		}

		telegramID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return c.Send("Usage: /grant <telegram_id>")
		}

		if err := svc.SetPremium(context.Background(), telegramID, true); err != nil {
			return err
		}

		log.Info("premium granted",
			slog.Int64("admin_id", c.Sender().ID),
			slog.Int64("telegram_id", telegramID),
		)

		return c.Send("✅ Premium granted.")
	}
}
