// Package pipeline orchestrates one message-handling execution: mode
// resolution, quota admission, the external speech and generation calls, the
// post-generation quota check, persistence, and delivery.
package pipeline

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"time"

	"github.com/igor-laryush/talkify-bot/internal/domain"
	apperrors "github.com/igor-laryush/talkify-bot/internal/errors"
	"github.com/igor-laryush/talkify-bot/internal/i18n"
	"github.com/igor-laryush/talkify-bot/internal/quota"
	"github.com/igor-laryush/talkify-bot/internal/speech"
	"github.com/igor-laryush/talkify-bot/internal/transport"
	"github.com/igor-laryush/talkify-bot/internal/usersync"
	"github.com/igor-laryush/talkify-bot/pkg/metrics"
)

// voiceFormat is the container format of Telegram voice notes, passed to the
// combined audio collaborator as the input format tag.
const voiceFormat = "ogg"

// Inbound is one user message as handed over by the transport layer.
type Inbound struct {
	ChatID      int64
	ContentType domain.ContentType
	Text        string
	VoiceFileID string
}

// ExchangeStore is the slice of the user store the pipeline writes to.
type ExchangeStore interface {
	AppendExchange(ctx context.Context, exchange *domain.Exchange) error
}

// Pipeline runs one execution per inbound message. All collaborators are
// constructor-injected; executions for different users are independent,
// executions for the same user are serialized through the keyed mutex.
type Pipeline struct {
	ledger      *quota.Ledger
	store       ExchangeStore
	transport   transport.Transport
	transcriber speech.Transcriber
	generator   speech.Generator
	synthesizer speech.Synthesizer
	audioDialog speech.AudioDialog
	locks       *usersync.KeyedMutex
	catalog     *i18n.Manager
	log         *slog.Logger
	callTimeout time.Duration

	now        func() time.Time
	removeFile func(string) error
}

// New constructs a Pipeline.
func New(
	ledger *quota.Ledger,
	store ExchangeStore,
	tp transport.Transport,
	transcriber speech.Transcriber,
	generator speech.Generator,
	synthesizer speech.Synthesizer,
	audioDialog speech.AudioDialog,
	catalog *i18n.Manager,
	callTimeout time.Duration,
	log *slog.Logger,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}

	return &Pipeline{
		ledger:      ledger,
		store:       store,
		transport:   tp,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		audioDialog: audioDialog,
		locks:       usersync.NewKeyedMutex(),
		catalog:     catalog,
		log:         log,
		callTimeout: callTimeout,
		now:         time.Now,
		removeFile:  os.Remove,
	}
}

// Handle runs the full state machine for one inbound message. Quota and
// unsupported-mode outcomes are reported to the user directly and return
// nil; collaborator failures are returned as errors for the error-handling
// middleware to convert into a generic notice.
func (p *Pipeline) Handle(ctx context.Context, user *domain.User, msg Inbound) error {
	if user == nil {
		return apperrors.NewValidationError("unknown user")
	}

	start := p.now()
	mode := ResolveMode(msg.ContentType, user.PremiumAudioMode)

	if mode == domain.ModeRejected {
		appErr := apperrors.NewUnsupportedModeError()
		p.log.Info("rejected non-voice message in premium audio mode",
			slog.String("code", appErr.Code), slog.Int64("user_id", user.ID))
		metrics.RecordMessage(string(mode), "rejected", p.now().Sub(start))
		return p.sendNotice(ctx, user, msg.ChatID, "notice.premium_audio_requires_voice", appErr.UserMessage)
	}

	// Serialize the check-generate-persist sequence per user so concurrent
	// messages cannot both pass admission before either is persisted.
	p.locks.Lock(user.ID)
	defer p.locks.Unlock(user.ID)

	admission, err := p.ledger.CheckAdmission(ctx, user)
	if err != nil {
		metrics.RecordMessage(string(mode), "error", p.now().Sub(start))
		return apperrors.NewStoreError(err)
	}

	if !admission.Allowed {
		appErr := apperrors.NewQuotaExceededError(admission.Remaining)
		p.log.Info("admission denied",
			slog.String("code", appErr.Code), slog.Int64("user_id", user.ID))
		metrics.RecordQuotaDenial("admission")
		metrics.RecordMessage(string(mode), "quota_denied", p.now().Sub(start))
		return p.sendLimitNotice(ctx, user, msg.ChatID)
	}

	if err := p.transport.NotifyRecording(ctx, msg.ChatID); err != nil {
		p.log.Warn("failed to send recording action", slog.Int64("chat_id", msg.ChatID), slog.Any("error", err))
	}

	resources := newResourceSet(p.removeFile)
	defer resources.Release()

	result, err := p.produce(ctx, user, msg, mode, resources)
	if err != nil {
		metrics.RecordMessage(string(mode), "error", p.now().Sub(start))
		return err
	}

	estimated := quota.EstimateDuration(result.responseText)

	if !admission.Unlimited && p.ledger.WouldExceed(admission.Remaining, estimated) {
		metrics.RecordQuotaDenial("post_check")
		metrics.RecordMessage(string(mode), "quota_denied", p.now().Sub(start))
		return p.sendExceedNotice(ctx, user, msg.ChatID, admission.Remaining, estimated)
	}

	exchange := &domain.Exchange{
		UserID:           user.ID,
		InputText:        result.inputText,
		ResponseText:     result.responseText,
		ResponseDuration: estimated,
		CreatedAt:        p.now().UTC(),
	}
	if err := p.store.AppendExchange(ctx, exchange); err != nil {
		metrics.RecordMessage(string(mode), "error", p.now().Sub(start))
		return apperrors.NewStoreError(err)
	}

	caption := fmt.Sprintf("💭 <tg-spoiler>%s</tg-spoiler>", html.EscapeString(result.responseText))
	if mode == domain.ModePremiumAudio {
		caption = "🎧 " + caption
	}

	if err := p.transport.SendVoice(ctx, msg.ChatID, result.audioPath, caption); err != nil {
		metrics.RecordMessage(string(mode), "error", p.now().Sub(start))
		return apperrors.NewUpstreamError("transport", err)
	}

	metrics.RecordMessage(string(mode), "ok", p.now().Sub(start))

	return nil
}

type produced struct {
	inputText    string
	responseText string
	audioPath    string
}

// produce acquires the input, invokes generation, and synthesizes the voice
// response for the resolved mode. All audio ends up in tracked temp files.
func (p *Pipeline) produce(ctx context.Context, user *domain.User, msg Inbound, mode domain.ProcessingMode, resources *resourceSet) (*produced, error) {
	systemPrompt := speech.SystemPrompt(user.Language)

	if mode == domain.ModePremiumAudio {
		inputAudio, err := p.downloadVoice(ctx, msg.VoiceFileID)
		if err != nil {
			return nil, err
		}

		dialogCtx, cancel := p.callContext(ctx)
		defer cancel()

		result, err := p.audioDialog.Converse(dialogCtx, inputAudio, voiceFormat, systemPrompt)
		if err != nil {
			return nil, apperrors.NewUpstreamError("audio_dialog", err)
		}

		audioPath, err := resources.writeTempAudio(result.Audio, ".mp3")
		if err != nil {
			return nil, apperrors.NewUpstreamError("audio_dialog", err)
		}

		return &produced{
			inputText:    domain.AudioInputSentinel,
			responseText: result.Transcript,
			audioPath:    audioPath,
		}, nil
	}

	inputText := msg.Text
	if mode == domain.ModeStandardVoice {
		inputAudio, err := p.downloadVoice(ctx, msg.VoiceFileID)
		if err != nil {
			return nil, err
		}

		transcribeCtx, cancel := p.callContext(ctx)
		defer cancel()

		inputText, err = p.transcriber.Transcribe(transcribeCtx, inputAudio)
		if err != nil {
			return nil, apperrors.NewUpstreamError("transcribe", err)
		}
	}

	generateCtx, cancel := p.callContext(ctx)
	defer cancel()

	responseText, err := p.generator.Complete(generateCtx, systemPrompt, inputText)
	if err != nil {
		return nil, apperrors.NewUpstreamError("generate", err)
	}

	synthesizeCtx, cancelSynth := p.callContext(ctx)
	defer cancelSynth()

	audio, err := p.synthesizer.Synthesize(synthesizeCtx, responseText)
	if err != nil {
		return nil, apperrors.NewUpstreamError("synthesize", err)
	}

	audioPath, err := resources.writeTempAudio(audio, ".mp3")
	if err != nil {
		return nil, apperrors.NewUpstreamError("synthesize", err)
	}

	return &produced{
		inputText:    inputText,
		responseText: responseText,
		audioPath:    audioPath,
	}, nil
}

func (p *Pipeline) downloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	downloadCtx, cancel := p.callContext(ctx)
	defer cancel()

	audio, err := p.transport.DownloadVoice(downloadCtx, fileID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("transport", err)
	}

	return audio, nil
}

func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.callTimeout)
}

func (p *Pipeline) sendLimitNotice(ctx context.Context, user *domain.User, chatID int64) error {
	resetHours := 24 - p.now().UTC().Hour()

	text := fmt.Sprintf(p.notice(user, "notice.limit_reached",
		"⚠️ You've reached your daily limit for voice responses!\n\n"+
			"🌟 Upgrade to Premium for unlimited access!\n\n"+
			"Use /premium to learn more about premium features.\n\n"+
			"Your limit will reset in %d hours."), resetHours)

	return p.sendText(ctx, chatID, text)
}

func (p *Pipeline) sendExceedNotice(ctx context.Context, user *domain.User, chatID int64, remaining, estimated float64) error {
	text := fmt.Sprintf(p.notice(user, "notice.would_exceed",
		"⚠️ This response would exceed your daily limit!\n\n"+
			"Remaining time: %.1f seconds\n"+
			"Response length: %.1f seconds\n\n"+
			"🌟 Upgrade to Premium for unlimited access!\n"+
			"Use /premium to learn more."), remaining, estimated)

	return p.sendText(ctx, chatID, text)
}

func (p *Pipeline) sendNotice(ctx context.Context, user *domain.User, chatID int64, key, fallback string) error {
	return p.sendText(ctx, chatID, p.notice(user, key, fallback))
}

func (p *Pipeline) notice(user *domain.User, key, fallback string) string {
	if p.catalog == nil {
		return fallback
	}

	lang := ""
	if user != nil {
		lang = string(user.Language)
	}

	if value := p.catalog.Translator(lang).T(key); value != "" && value != key {
		return value
	}

	return fallback
}

func (p *Pipeline) sendText(ctx context.Context, chatID int64, text string) error {
	if err := p.transport.SendText(ctx, chatID, text); err != nil {
		return apperrors.NewUpstreamError("transport", err)
	}

	return nil
}
