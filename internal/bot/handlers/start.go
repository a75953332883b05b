package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

const welcomeText = `Hello! I'm Talkify, a bot that responds to your text and voice messages with AI-generated voice responses.
You can use me to practice your language skills.

Available commands:
• /help - Show this help message
• /premium - Learn about premium features
• /usage - Check your remaining free time today`

const premiumWelcomeExtra = `
• /language - Change your preferred language 🌐
• /audiomode - Toggle Premium Audio mode 🎧`

const freeWelcomeExtra = `

🔒 Upgrade to premium to unlock language selection and more features!`

// NewStartHandler returns the /start and /help handler.
func NewStartHandler(log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		text := welcomeText

		if profile, ok := CurrentUser(c); ok && profile.Premium {
			text += premiumWelcomeExtra
		} else {
			text += freeWelcomeExtra
		}

		return c.Send(text)
	}
}
