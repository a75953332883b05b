package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/bot/keyboard"
	"github.com/igor-laryush/talkify-bot/internal/domain"
)

// LanguageSetter persists a user's preferred practice language.
type LanguageSetter interface {
	SetLanguage(ctx context.Context, telegramID int64, language domain.Language) error
}

const premiumRequiredText = "🔒 This feature is available for premium users only.\nUse /premium to learn more."

// NewLanguageHandler returns the /language handler. Premium users get the
// language-selection keyboard; free users get the paywall hint.
func NewLanguageHandler(builder *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		profile, ok := CurrentUser(c)
		if !ok {
			return c.Send(premiumRequiredText)
		}

		if !profile.Premium {
			return c.Send(premiumRequiredText)
		}

		return c.Send("🌐 Choose your practice language:", builder.Languages(profile.Language))
	}
}

// NewLanguageCallbackHandler returns the handler for language-selection
// buttons. The callback payload carries the language tag; anything outside
// the supported set is acknowledged and ignored.
func NewLanguageCallbackHandler(svc LanguageSetter, builder *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Callback() == nil {
			return nil
		}

		profile, ok := CurrentUser(c)
		if !ok || !profile.Premium {
			return c.Respond(&telebot.CallbackResponse{Text: "Premium feature"})
		}

		_, payload, err := keyboard.DecodeCallback(c.Callback().Data)
		if err != nil {
			log.Warn("malformed language callback", slog.Any("error", err))
			return c.Respond(&telebot.CallbackResponse{})
		}

		language, known := domain.LookupLanguage(payload)
		if !known {
			log.Warn("unknown language tag in callback", slog.String("tag", payload))
			return c.Respond(&telebot.CallbackResponse{Text: "Unsupported language"})
		}

		if err := svc.SetLanguage(context.Background(), profile.TelegramID, language); err != nil {
			return err
		}

		profile.Language = language

		if err := c.Respond(&telebot.CallbackResponse{Text: "Language updated ✅"}); err != nil {
			log.Warn("failed to answer callback", slog.Any("error", err))
		}

		return c.Edit("🌐 Choose your practice language:", builder.Languages(language))
	}
}
