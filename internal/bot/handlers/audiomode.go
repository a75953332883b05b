package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// AudioModeSetter toggles the direct audio-to-audio routing flag.
type AudioModeSetter interface {
	SetPremiumAudioMode(ctx context.Context, telegramID int64, enabled bool) error
}

// NewAudioModeHandler returns the /audiomode handler. The toggle is
// premium-only: enabling it routes voice messages through the combined
// audio model and rejects text messages until disabled.
func NewAudioModeHandler(svc AudioModeSetter, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		profile, ok := CurrentUser(c)
		if !ok || !profile.Premium {
			return c.Send(premiumRequiredText)
		}

		enabled := !profile.PremiumAudioMode

		if err := svc.SetPremiumAudioMode(context.Background(), profile.TelegramID, enabled); err != nil {
			return err
		}

		profile.PremiumAudioMode = enabled

		if enabled {
			return c.Send("🎧 Premium Audio mode is ON.\nSend voice messages to talk directly with the audio model. Text messages are rejected while this mode is active.")
		}

		return c.Send("💬 Premium Audio mode is OFF.\nText and voice messages go through the standard pipeline again.")
	}
}
