package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/domain"
	"github.com/igor-laryush/talkify-bot/internal/pipeline"
)

// MessagePipeline runs one execution per inbound message.
type MessagePipeline interface {
	Handle(ctx context.Context, user *domain.User, msg pipeline.Inbound) error
}

// NewMessageHandler returns the default handler for plain text and voice
// messages. It maps the telegram update onto a pipeline execution.
func NewMessageHandler(p MessagePipeline, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Message() == nil || c.Chat() == nil {
			return nil
		}

		profile, ok := CurrentUser(c)
		if !ok {
			return c.Send("Could not load your profile, please try again.")
		}

		msg := pipeline.Inbound{
			ChatID:      c.Chat().ID,
			ContentType: domain.ContentText,
			Text:        c.Message().Text,
		}

		if c.Message().Voice != nil {
			msg.ContentType = domain.ContentVoice
			msg.Text = ""
			msg.VoiceFileID = c.Message().Voice.FileID
		}

		return p.Handle(context.Background(), profile, msg)
	}
}
