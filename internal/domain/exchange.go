package domain

import "time"

// AudioInputSentinel is recorded as the input text of a premium-audio
// exchange, where no transcript of the user's voice message exists.
const AudioInputSentinel = "[premium audio]"

// Exchange is one request/response cycle. Records are append-only and
// immutable once written; the quota window is derived from them.
type Exchange struct {
	ID               int64
	UserID           int64
	InputText        string
	ResponseText     string
	ResponseDuration float64 // seconds, estimated from word count
	CreatedAt        time.Time
}
