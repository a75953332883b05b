package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

// LanguageCallbackID tags language-selection buttons; the payload carries
// the language tag.
const LanguageCallbackID = "lang"

// Builder creates inline keyboards for the bot.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{log: log}
}

// Languages builds the language-selection keyboard, one button per
// supported language, with the selected one checkmarked.
func (b *Builder) Languages(selected domain.Language) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	rows := make([][]telebot.InlineButton, 0, len(domain.SupportedLanguages))

	for _, lang := range domain.SupportedLanguages {
		data, err := EncodeCallback(LanguageCallbackID, string(lang))
		if err != nil {
			b.log.Error("failed to encode language callback", slog.String("language", string(lang)), slog.Any("error", err))
			continue
		}

		text := lang.Label()
		if lang == selected {
			text += " ✅"
		}

		rows = append(rows, []telebot.InlineButton{
			{
				Text: text,
				Data: data,
			},
		})
	}

	markup.InlineKeyboard = rows

	return markup
}
