package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/igor-laryush/talkify-bot/internal/domain"
)

// Handler processes bot commands and messages.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// userContextKey is where the auth middleware stores the loaded user.
const userContextKey = "talkify_user"

// SetCurrentUser attaches the loaded user record to the update context.
func SetCurrentUser(c telebot.Context, user *domain.User) {
	if c == nil {
		return
	}
	c.Set(userContextKey, user)
}

// CurrentUser returns the user record attached by the auth middleware.
func CurrentUser(c telebot.Context) (*domain.User, bool) {
	if c == nil {
		return nil, false
	}

	user, ok := c.Get(userContextKey).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}

	return user, true
}
