package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// TelebotTransport adapts a telebot.Bot to the Transport interface.
type TelebotTransport struct {
	bot *telebot.Bot
	log *slog.Logger
}

var _ Transport = (*TelebotTransport)(nil)

// NewTelebotTransport wraps the bot instance.
func NewTelebotTransport(bot *telebot.Bot, log *slog.Logger) *TelebotTransport {
	if log == nil {
		log = slog.Default()
	}

	return &TelebotTransport{bot: bot, log: log}
}

// SendText delivers a plain text message.
func (t *TelebotTransport) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.Send(telebot.ChatID(chatID), text)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}

	return nil
}

// SendVoice delivers a voice note with an HTML caption.
func (t *TelebotTransport) SendVoice(ctx context.Context, chatID int64, audioPath, caption string) error {
	voice := &telebot.Voice{
		File:    telebot.FromDisk(audioPath),
		Caption: caption,
	}

	_, err := t.bot.Send(telebot.ChatID(chatID), voice, &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	if err != nil {
		return fmt.Errorf("send voice: %w", err)
	}

	return nil
}

// SendPhoto delivers a photo with a caption.
func (t *TelebotTransport) SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error {
	photo := &telebot.Photo{
		File:    telebot.FromDisk(photoPath),
		Caption: caption,
	}

	_, err := t.bot.Send(telebot.ChatID(chatID), photo)
	if err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	return nil
}

// NotifyRecording shows the recording chat action while the pipeline works.
func (t *TelebotTransport) NotifyRecording(ctx context.Context, chatID int64) error {
	if err := t.bot.Notify(telebot.ChatID(chatID), telebot.RecordingAudio); err != nil {
		return fmt.Errorf("notify recording: %w", err)
	}

	return nil
}

// DownloadVoice fetches the raw bytes of an inbound voice message.
func (t *TelebotTransport) DownloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	reader, err := t.bot.File(&telebot.File{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("open voice file: %w", err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			t.log.Warn("failed to close voice download", slog.Any("error", cerr))
		}
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read voice file: %w", err)
	}

	return data, nil
}
