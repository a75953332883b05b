package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError is the application error envelope. UserMessage is what the bot
// sends back to the chat; Message is what gets logged.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewQuotaExceededError reports that the user ran out of free-tier seconds.
// Recovered locally: the pipeline sends the limit notice itself, so the
// UserMessage here is only a fallback.
func NewQuotaExceededError(remaining float64) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("daily quota exceeded: %.1fs remaining", remaining),
		UserMessage: "⚠️ You've reached your daily limit for voice responses. Use /premium to upgrade.",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewUpstreamError wraps a failed speech, generation, or delivery call.
func NewUpstreamError(service string, cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("upstream service %s failed", service),
		UserMessage: "Sorry, something went wrong while preparing your response. Please try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewUnsupportedModeError reports a non-voice message while premium-audio
// mode is active.
func NewUnsupportedModeError() *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "premium audio mode requires a voice message",
		UserMessage: "🎧 Premium Audio mode only accepts voice messages. Send a voice message or disable it with /audiomode.",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStoreError wraps a failed database operation.
func NewStoreError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     fmt.Sprintf("store error: %s", underlyingMsg),
		UserMessage: "Sorry, a temporary problem occurred. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewValidationError reports malformed user input.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}
