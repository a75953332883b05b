// Package speech defines the external speech and generation collaborators
// the pipeline talks to, plus their OpenAI-backed implementations.
package speech

import "context"

// Transcriber converts voice audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Generator produces a reply for the user's text under a system prompt.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Synthesizer converts reply text into voice audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioDialogResult is the combined output of one premium-audio call.
type AudioDialogResult struct {
	Transcript string
	Audio      []byte
}

// AudioDialog interprets input audio and synthesizes the reply audio in a
// single call, skipping the separate transcription step.
type AudioDialog interface {
	Converse(ctx context.Context, audio []byte, format, systemPrompt string) (*AudioDialogResult, error)
}
