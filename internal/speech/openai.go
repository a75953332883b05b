package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/igor-laryush/talkify-bot/pkg/config"
	"github.com/igor-laryush/talkify-bot/pkg/metrics"
)

// OpenAIClient implements all four collaborator interfaces against the
// OpenAI HTTP API: whisper transcription, chat completion, speech synthesis,
// and the combined audio dialog model.
type OpenAIClient struct {
	cfg        config.OpenAIConfig
	httpClient *http.Client
	log        *slog.Logger
}

var (
	_ Transcriber = (*OpenAIClient)(nil)
	_ Generator   = (*OpenAIClient)(nil)
	_ Synthesizer = (*OpenAIClient)(nil)
	_ AudioDialog = (*OpenAIClient)(nil)
)

// NewOpenAIClient builds a client using the configured credentials and models.
func NewOpenAIClient(cfg config.OpenAIConfig, log *slog.Logger) *OpenAIClient {
	if log == nil {
		log = slog.Default()
	}

	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        log,
	}
}

// Transcribe sends voice audio to the transcription endpoint and returns the transcript.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorCall("transcribe", time.Since(start)) }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}

	part, err := writer.CreateFormFile("file", "voice.ogg")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	respBody, err := c.do(ctx, "/audio/transcriptions", writer.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}

	return result.Text, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete generates a text reply under the supplied system prompt.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorCall("generate", time.Since(start)) }()

	payload := struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	}

	respBody, err := c.doJSON(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return result.Choices[0].Message.Content, nil
}

// Synthesize converts reply text into voice audio bytes.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorCall("synthesize", time.Since(start)) }()

	payload := struct {
		Model string `json:"model"`
		Voice string `json:"voice"`
		Input string `json:"input"`
	}{
		Model: c.cfg.SpeechModel,
		Voice: c.cfg.Voice,
		Input: text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode speech request: %w", err)
	}

	// The speech endpoint returns raw audio, not JSON.
	return c.do(ctx, "/audio/speech", "application/json", bytes.NewReader(body))
}

// Converse runs the combined premium-audio call: the model both interprets
// the input audio and returns reply audio with its transcript.
func (c *OpenAIClient) Converse(ctx context.Context, audio []byte, format, systemPrompt string) (*AudioDialogResult, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorCall("audio_dialog", time.Since(start)) }()

	type contentPart struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		InputAudio *struct {
			Data   string `json:"data"`
			Format string `json:"format"`
		} `json:"input_audio,omitempty"`
	}

	inputAudio := &struct {
		Data   string `json:"data"`
		Format string `json:"format"`
	}{
		Data:   base64.StdEncoding.EncodeToString(audio),
		Format: format,
	}

	payload := struct {
		Model      string   `json:"model"`
		Modalities []string `json:"modalities"`
		Audio      struct {
			Voice  string `json:"voice"`
			Format string `json:"format"`
		} `json:"audio"`
		Messages []struct {
			Role    string        `json:"role"`
			Content []contentPart `json:"content"`
		} `json:"messages"`
	}{
		Model:      c.cfg.AudioModel,
		Modalities: []string{"text", "audio"},
	}
	payload.Audio.Voice = c.cfg.Voice
	payload.Audio.Format = "mp3"
	payload.Messages = []struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	}{
		{
			Role:    "system",
			Content: []contentPart{{Type: "text", Text: systemPrompt}},
		},
		{
			Role:    "user",
			Content: []contentPart{{Type: "input_audio", InputAudio: inputAudio}},
		},
	}

	respBody, err := c.doJSON(ctx, "/chat/completions", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Audio struct {
					Data       string `json:"data"`
					Transcript string `json:"transcript"`
				} `json:"audio"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode audio dialog response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("audio dialog response has no choices")
	}

	replyAudio, err := base64.StdEncoding.DecodeString(result.Choices[0].Message.Audio.Data)
	if err != nil {
		return nil, fmt.Errorf("decode reply audio: %w", err)
	}

	return &AudioDialogResult{
		Transcript: result.Choices[0].Message.Audio.Transcript,
		Audio:      replyAudio,
	}, nil
}

func (c *OpenAIClient) doJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	return c.do(ctx, path, "application/json", bytes.NewReader(body))
}

func (c *OpenAIClient) do(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("openai request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	return respBody, nil
}
