package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/domain"
	"github.com/igor-laryush/talkify-bot/internal/quota"
)

// recentExchangeCount bounds the activity list in the /usage report.
const recentExchangeCount = 3

// ExchangeHistory is the slice of the store the /usage report reads.
type ExchangeHistory interface {
	RecentExchanges(ctx context.Context, userID int64, limit int) ([]domain.Exchange, error)
}

// NewUsageHandler returns the /usage handler reporting remaining free time
// within the trailing 24-hour window plus the latest responses.
func NewUsageHandler(ledger *quota.Ledger, history ExchangeHistory, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		profile, ok := CurrentUser(c)
		if !ok {
			return c.Send("Could not load your profile, please try again.")
		}

		ctx := context.Background()

		admission, err := ledger.CheckAdmission(ctx, profile)
		if err != nil {
			return err
		}

		var sb strings.Builder

		if admission.Unlimited {
			sb.WriteString("🌟 You have premium access — unlimited voice responses!")
		} else {
			remaining := admission.Remaining
			if remaining < 0 {
				remaining = 0
			}
			fmt.Fprintf(&sb,
				"⏱ You have %.1f seconds of voice responses left in the current 24-hour window.\n\n"+
					"🌟 Upgrade with /premium for unlimited access.", remaining)
		}

		if history != nil {
			if recent, err := history.RecentExchanges(ctx, profile.ID, recentExchangeCount); err != nil {
				log.Warn("failed to load recent exchanges", slog.Int64("user_id", profile.ID), slog.Any("error", err))
			} else if len(recent) > 0 {
				sb.WriteString("\n\nRecent responses:")
				for _, ex := range recent {
					fmt.Fprintf(&sb, "\n• %.1fs — %s", ex.ResponseDuration, summarize(ex.ResponseText))
				}
			}
		}

		return c.Send(sb.String())
	}
}

// summarize trims a response to a single short line for the activity list.
func summarize(text string) string {
	const maxLen = 40

	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	return string(runes[:maxLen]) + "…"
}
