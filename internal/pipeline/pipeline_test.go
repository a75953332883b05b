package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igor-laryush/talkify-bot/internal/domain"
	apperrors "github.com/igor-laryush/talkify-bot/internal/errors"
	"github.com/igor-laryush/talkify-bot/internal/quota"
	"github.com/igor-laryush/talkify-bot/internal/speech"
)

type stubUsage struct {
	used float64
	err  error
}

func (s *stubUsage) SumDurationSince(context.Context, int64, time.Time) (float64, error) {
	return s.used, s.err
}

type stubExchangeStore struct {
	mu        sync.Mutex
	exchanges []*domain.Exchange
	err       error
}

func (s *stubExchangeStore) AppendExchange(_ context.Context, ex *domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.exchanges = append(s.exchanges, ex)
	return nil
}

type sentVoice struct {
	path    string
	caption string
}

type stubTransport struct {
	texts       []string
	voices      []sentVoice
	notifyCalls int
	downloaded  []byte
	downloadErr error
	sendVoiceErr error
}

func (s *stubTransport) SendText(_ context.Context, _ int64, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func (s *stubTransport) SendVoice(_ context.Context, _ int64, audioPath, caption string) error {
	if s.sendVoiceErr != nil {
		return s.sendVoiceErr
	}
	s.voices = append(s.voices, sentVoice{path: audioPath, caption: caption})
	return nil
}

func (s *stubTransport) SendPhoto(context.Context, int64, string, string) error { return nil }

func (s *stubTransport) NotifyRecording(context.Context, int64) error {
	s.notifyCalls++
	return nil
}

func (s *stubTransport) DownloadVoice(context.Context, string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.downloaded, nil
}

type stubSpeech struct {
	transcribeCalls int
	completeCalls   int
	synthesizeCalls int
	converseCalls   int

	transcript  string
	reply       string
	audio       []byte
	completeErr error
	synthErr    error
	converseErr error
}

func (s *stubSpeech) Transcribe(context.Context, []byte) (string, error) {
	s.transcribeCalls++
	return s.transcript, nil
}

func (s *stubSpeech) Complete(context.Context, string, string) (string, error) {
	s.completeCalls++
	if s.completeErr != nil {
		return "", s.completeErr
	}
	return s.reply, nil
}

func (s *stubSpeech) Synthesize(context.Context, string) ([]byte, error) {
	s.synthesizeCalls++
	if s.synthErr != nil {
		return nil, s.synthErr
	}
	return s.audio, nil
}

func (s *stubSpeech) Converse(context.Context, []byte, string, string) (*speech.AudioDialogResult, error) {
	s.converseCalls++
	if s.converseErr != nil {
		return nil, s.converseErr
	}
	return &speech.AudioDialogResult{Transcript: s.reply, Audio: s.audio}, nil
}

type fixture struct {
	pipeline  *Pipeline
	usage     *stubUsage
	store     *stubExchangeStore
	transport *stubTransport
	speech    *stubSpeech
	removed   *removeCounter
}

type removeCounter struct {
	mu    sync.Mutex
	paths []string
}

func (r *removeCounter) remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return os.Remove(path)
}

func (r *removeCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func newFixture(dailyLimit float64) *fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	usage := &stubUsage{}
	store := &stubExchangeStore{}
	tp := &stubTransport{downloaded: []byte("ogg-bytes")}
	sp := &stubSpeech{
		transcript: "transcribed input",
		reply:      "one two three four five six",
		audio:      []byte("mp3-bytes"),
	}
	removed := &removeCounter{}

	p := New(
		quota.NewLedger(usage, dailyLimit, log),
		store,
		tp,
		sp, sp, sp, sp,
		nil,
		time.Second,
		log,
	)
	p.removeFile = removed.remove

	return &fixture{
		pipeline:  p,
		usage:     usage,
		store:     store,
		transport: tp,
		speech:    sp,
		removed:   removed,
	}
}

func freeUser() *domain.User {
	return &domain.User{ID: 1, TelegramID: 100, Language: domain.DefaultLanguage}
}

func TestHandle_StandardText_DeliversAndPersists(t *testing.T) {
	f := newFixture(10)

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello there",
	})

	require.NoError(t, err)

	require.Len(t, f.store.exchanges, 1)
	ex := f.store.exchanges[0]
	assert.Equal(t, int64(1), ex.UserID)
	assert.Equal(t, "hello there", ex.InputText)
	assert.Equal(t, "one two three four five six", ex.ResponseText)
	assert.InDelta(t, 2.0, ex.ResponseDuration, 1e-9)

	require.Len(t, f.transport.voices, 1)
	assert.Contains(t, f.transport.voices[0].caption, "<tg-spoiler>one two three four five six</tg-spoiler>")
	assert.Equal(t, 1, f.transport.notifyCalls)

	assert.Zero(t, f.speech.transcribeCalls)
	assert.Equal(t, 1, f.speech.completeCalls)
	assert.Equal(t, 1, f.speech.synthesizeCalls)
	assert.Zero(t, f.speech.converseCalls)

	assert.Equal(t, 1, f.removed.count(), "temp audio removed exactly once")
}

func TestHandle_StandardVoice_TranscribesFirst(t *testing.T) {
	f := newFixture(10)

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentVoice,
		VoiceFileID: "file-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.speech.transcribeCalls)

	require.Len(t, f.store.exchanges, 1)
	assert.Equal(t, "transcribed input", f.store.exchanges[0].InputText)
}

func TestHandle_PremiumAudio_SingleCallAndSentinel(t *testing.T) {
	f := newFixture(10)

	user := &domain.User{ID: 1, TelegramID: 100, Premium: true, PremiumAudioMode: true}

	err := f.pipeline.Handle(context.Background(), user, Inbound{
		ChatID:      100,
		ContentType: domain.ContentVoice,
		VoiceFileID: "file-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, f.speech.converseCalls)
	assert.Zero(t, f.speech.transcribeCalls)
	assert.Zero(t, f.speech.completeCalls)
	assert.Zero(t, f.speech.synthesizeCalls)

	require.Len(t, f.store.exchanges, 1)
	assert.Equal(t, domain.AudioInputSentinel, f.store.exchanges[0].InputText)

	require.Len(t, f.transport.voices, 1)
	assert.True(t, strings.HasPrefix(f.transport.voices[0].caption, "🎧 "))
}

func TestHandle_PremiumAudioRejectsText(t *testing.T) {
	f := newFixture(10)

	user := &domain.User{ID: 1, TelegramID: 100, Premium: true, PremiumAudioMode: true}

	err := f.pipeline.Handle(context.Background(), user, Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.NoError(t, err)

	// Rejection happens before any quota or collaborator work.
	assert.Zero(t, f.speech.completeCalls)
	assert.Zero(t, f.speech.converseCalls)
	assert.Zero(t, f.transport.notifyCalls)
	assert.Empty(t, f.store.exchanges)

	require.Len(t, f.transport.texts, 1)
	assert.Contains(t, f.transport.texts[0], "/audiomode")
}

func TestHandle_AdmissionDenied(t *testing.T) {
	f := newFixture(10)
	f.usage.used = 10

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.NoError(t, err)
	assert.Zero(t, f.speech.completeCalls)
	assert.Empty(t, f.store.exchanges)
	assert.Empty(t, f.transport.voices)

	require.Len(t, f.transport.texts, 1)
	assert.Contains(t, f.transport.texts[0], "daily limit")
}

func TestHandle_PostCheckRejectsOversizedResponse(t *testing.T) {
	f := newFixture(10)
	// 0.5 seconds remain; the canned six-word reply prices at 2.0 seconds.
	f.usage.used = 9.5

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.NoError(t, err)

	// Generation ran, but nothing was persisted or delivered and the
	// synthesized audio was discarded.
	assert.Equal(t, 1, f.speech.completeCalls)
	assert.Equal(t, 1, f.speech.synthesizeCalls)
	assert.Empty(t, f.store.exchanges)
	assert.Empty(t, f.transport.voices)
	assert.Equal(t, 1, f.removed.count())

	require.Len(t, f.transport.texts, 1)
	assert.Contains(t, f.transport.texts[0], "0.5 seconds")
	assert.Contains(t, f.transport.texts[0], "2.0 seconds")
}

func TestHandle_PremiumSkipsPostCheck(t *testing.T) {
	f := newFixture(10)
	f.usage.err = errors.New("must not be consulted")

	user := &domain.User{ID: 1, TelegramID: 100, Premium: true}

	err := f.pipeline.Handle(context.Background(), user, Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.NoError(t, err)
	require.Len(t, f.store.exchanges, 1)
	require.Len(t, f.transport.voices, 1)
}

func TestHandle_StoreUnreachable_FailsClosed(t *testing.T) {
	f := newFixture(10)
	f.usage.err = errors.New("connection refused")

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)

	assert.Zero(t, f.speech.completeCalls)
	assert.Empty(t, f.store.exchanges)
}

func TestHandle_GenerationFailure_CleansUp(t *testing.T) {
	f := newFixture(10)
	f.speech.synthErr = errors.New("tts unavailable")

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.Error(t, err)
	assert.Empty(t, f.store.exchanges)
	assert.Empty(t, f.transport.voices)
	// No temp file was ever created, so nothing to remove.
	assert.Zero(t, f.removed.count())
}

func TestHandle_PersistFailure_NoDelivery(t *testing.T) {
	f := newFixture(10)
	f.store.err = errors.New("insert failed")

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.Error(t, err)
	assert.Empty(t, f.transport.voices)
	assert.Equal(t, 1, f.removed.count())
}

func TestHandle_DeliveryFailure_StillCleansUp(t *testing.T) {
	f := newFixture(10)
	f.transport.sendVoiceErr = errors.New("telegram down")

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.Error(t, err)
	assert.Equal(t, 1, f.removed.count())
}

func TestHandle_CaptionEscapesHTML(t *testing.T) {
	f := newFixture(10)
	f.speech.reply = `reply with <b>markup</b> & "quotes"`

	err := f.pipeline.Handle(context.Background(), freeUser(), Inbound{
		ChatID:      100,
		ContentType: domain.ContentText,
		Text:        "hello",
	})

	require.NoError(t, err)
	require.Len(t, f.transport.voices, 1)
	caption := f.transport.voices[0].caption
	assert.NotContains(t, caption, "<b>")
	assert.Contains(t, caption, "&lt;b&gt;")
}

func TestHandle_NilUser(t *testing.T) {
	f := newFixture(10)

	err := f.pipeline.Handle(context.Background(), nil, Inbound{ChatID: 100})

	assert.Error(t, err)
}

func TestResourceSet_ReleaseExactlyOnce(t *testing.T) {
	var calls []string
	rs := newResourceSet(func(path string) error {
		calls = append(calls, path)
		return nil
	})

	rs.track("/tmp/a")
	rs.track("/tmp/b")

	rs.Release()
	rs.Release()

	assert.Equal(t, []string{"/tmp/a", "/tmp/b"}, calls)
}
