package domain

// ContentType classifies the payload of an inbound message. Anything other
// than text or voice is dropped by the transport layer before it reaches the
// pipeline.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVoice ContentType = "voice"
)

// ProcessingMode selects which pipeline branch handles an inbound message.
type ProcessingMode string

const (
	// ModeStandardText generates a reply from the message text and synthesizes voice.
	ModeStandardText ProcessingMode = "standard_text"
	// ModeStandardVoice transcribes first, then behaves like ModeStandardText.
	ModeStandardVoice ProcessingMode = "standard_voice"
	// ModePremiumAudio routes audio through a single combined
	// audio-understanding and audio-generation call, skipping transcription.
	ModePremiumAudio ProcessingMode = "premium_audio"
	// ModeRejected means premium-audio mode is on but the message is not
	// voice; no quota is consumed and no collaborator is called.
	ModeRejected ProcessingMode = "rejected"
)
