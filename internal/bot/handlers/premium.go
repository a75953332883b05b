package handlers

import (
	"context"
	"log/slog"
	"os"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/transport"
)

const paywallImagePath = "assets/paywall.png"

const premiumPitch = `🌟 Upgrade to Premium!
With premium subscription you get:
• Unlimited voice responses
• Priority message processing
• Premium Audio mode 🎧
• Multiple language selection 🌐

Contact @igor_laryush to purchase premium.`

// NewPremiumHandler returns the /premium handler. It sends the paywall
// image with the pitch as caption, falling back to plain text when the
// asset is missing.
func NewPremiumHandler(tp transport.Transport, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Chat() == nil {
			return nil
		}

		if tp != nil {
			if _, err := os.Stat(paywallImagePath); err == nil {
				return tp.SendPhoto(context.Background(), c.Chat().ID, paywallImagePath, premiumPitch)
			}
			log.Warn("paywall image missing, sending text fallback")
		}

		return c.Send(premiumPitch)
	}
}
