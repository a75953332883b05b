// Package transport abstracts message delivery to the chat platform so the
// pipeline can be exercised without a live Telegram connection.
package transport

import "context"

// Transport delivers outbound messages and fetches inbound voice payloads.
type Transport interface {
	// SendText delivers a plain text message to the chat.
	SendText(ctx context.Context, chatID int64, text string) error
	// SendVoice delivers a voice note from a local file with an HTML caption.
	SendVoice(ctx context.Context, chatID int64, audioPath, caption string) error
	// SendPhoto delivers a photo from a local file with a caption.
	SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error
	// NotifyRecording shows the "recording a voice message" chat action.
	NotifyRecording(ctx context.Context, chatID int64) error
	// DownloadVoice fetches the raw audio bytes of an inbound voice message.
	DownloadVoice(ctx context.Context, fileID string) ([]byte, error)
}
