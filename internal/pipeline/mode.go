package pipeline

import "github.com/igor-laryush/talkify-bot/internal/domain"

// ResolveMode classifies an inbound message into a processing mode. It is a
// pure function of the content type and the user's premium-audio setting:
//
//  1. premium-audio on, non-voice message: rejected, nothing is consumed;
//  2. premium-audio on, voice message: combined audio call, no transcription;
//  3. voice message: transcribe, generate, synthesize;
//  4. text message: generate, synthesize.
//
// Content types other than text and voice never reach the pipeline: the
// router only registers text and voice handlers, so anything else is dropped
// by the transport layer.
func ResolveMode(contentType domain.ContentType, premiumAudioMode bool) domain.ProcessingMode {
	if premiumAudioMode {
		if contentType != domain.ContentVoice {
			return domain.ModeRejected
		}
		return domain.ModePremiumAudio
	}

	if contentType == domain.ContentVoice {
		return domain.ModeStandardVoice
	}

	return domain.ModeStandardText
}
