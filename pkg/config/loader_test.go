package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("bot.token", "test-token")
	v.Set("bot.mode", "longpoll")
	v.Set("database.host", "localhost")
	v.Set("database.port", "5432")
	v.Set("database.user", "talkify")
	v.Set("database.password", "secret")
	v.Set("database.name", "talkify")
	v.Set("openai.api_key", "sk-test")
	return v
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := parse(validViper(), "development")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.InDelta(t, 10.0, cfg.Quota.DailyFreeSeconds, 1e-9)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.CallTimeout)
	assert.Equal(t, 20, cfg.RateLimit.Messages)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.ChatModel)
	assert.Equal(t, "whisper-1", cfg.OpenAI.TranscribeModel)
	assert.Equal(t, "alloy", cfg.OpenAI.Voice)
}

func TestParse_MissingToken(t *testing.T) {
	v := validViper()
	v.Set("bot.token", "")

	_, err := parse(v, "development")
	assert.Error(t, err)
}

func TestParse_InvalidBotMode(t *testing.T) {
	v := validViper()
	v.Set("bot.mode", "carrier-pigeon")

	_, err := parse(v, "development")
	assert.Error(t, err)
}

func TestParse_ProductionRequiresWebhookMode(t *testing.T) {
	_, err := parse(validViper(), "production")
	assert.Error(t, err)
}

func TestParse_ProductionRequiresWebhookURL(t *testing.T) {
	v := validViper()
	v.Set("bot.mode", "webhook")

	_, err := parse(v, "production")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWebhookURLRequired)
}

func TestParse_ProductionWebhookComplete(t *testing.T) {
	v := validViper()
	v.Set("bot.mode", "webhook")
	v.Set("bot.webhook_url", "https://bot.example.com/updates")

	cfg, err := parse(v, "production")
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example.com/updates", cfg.Bot.WebhookURL)
}

func TestParse_WebhookModeNeedsURLInAnyEnvironment(t *testing.T) {
	v := validViper()
	v.Set("bot.mode", "webhook")

	_, err := parse(v, "development")
	assert.ErrorIs(t, err, ErrWebhookURLRequired)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "u",
		Password: "p",
		Name:     "talkify",
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=talkify sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestParse_QuotaOverride(t *testing.T) {
	v := validViper()
	v.Set("quota.daily_free_seconds", 45.5)

	cfg, err := parse(v, "development")
	require.NoError(t, err)
	assert.InDelta(t, 45.5, cfg.Quota.DailyFreeSeconds, 1e-9)
}
