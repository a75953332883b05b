package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/igor-laryush/talkify-bot/internal/bot/handlers"
	telebot "gopkg.in/telebot.v3"
)

func TestCommandName_StripsArguments(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/grant 42", "/grant"},
		{"/start", "/start"},
		{"/language  extra  words", "/language"},
		{"plain text", "plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, commandName(tt.text))
	}
}

func TestRouter_MiddlewareOrder(t *testing.T) {
	router := NewRouter(nil)

	var order []string
	mw := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	router.Use(mw("outer"))
	router.Use(mw("inner"))

	handler := router.applyMiddlewares(func(c telebot.Context) error {
		order = append(order, "handler")
		return nil
	})

	assert.NoError(t, handler(nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRouter_FindCallbackHandlerByPrefix(t *testing.T) {
	router := NewRouter(nil)

	called := false
	router.RegisterCallback("lang:", func(c telebot.Context) error {
		called = true
		return nil
	})

	handler := router.findCallbackHandler("lang:Spanish")
	assert.NotNil(t, handler)
	assert.NoError(t, handler(nil))
	assert.True(t, called)

	assert.Nil(t, router.findCallbackHandler("other:data"))
}

func TestRouter_NilHandlerIsSafe(t *testing.T) {
	router := NewRouter(nil)
	assert.Nil(t, router.applyMiddlewares(nil))
}
