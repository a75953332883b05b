// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the Talkify bot.
type Config struct {
	AppEnv string

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" validate:"required"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// Mode is "webhook" (production) or "longpoll" (development, replaces
	// the original dev tunnel).
	Mode       string        `mapstructure:"mode" validate:"oneof=webhook longpoll"`
	WebhookURL string        `mapstructure:"webhook_url"`
	Listen     string        `mapstructure:"listen"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the auxiliary HTTP server (health and metrics).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// RedisConfig holds connection parameters for the Redis instance backing
// rate limiting and webhook deduplication.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// OpenAIConfig holds credentials and model names for the speech and
// generation collaborators.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key" validate:"required"`
	BaseURL        string `mapstructure:"base_url"`
	ChatModel      string `mapstructure:"chat_model"`
	TranscribeModel string `mapstructure:"transcribe_model"`
	SpeechModel    string `mapstructure:"speech_model"`
	AudioModel     string `mapstructure:"audio_model"`
	Voice          string `mapstructure:"voice"`
}

// QuotaConfig configures the free-tier usage ledger.
type QuotaConfig struct {
	DailyFreeSeconds float64 `mapstructure:"daily_free_seconds" validate:"gte=0"`
}

// PipelineConfig bounds external collaborator calls.
type PipelineConfig struct {
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// RateLimitConfig throttles inbound messages per user.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Messages int           `mapstructure:"messages"`
	Window   time.Duration `mapstructure:"window"`
}

// LoggerConfig controls the slog output.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables rotating file output when non-empty.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// AdminConfig lists telegram ids allowed to run operator commands.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "longpoll"
	}
	if c.Bot.Listen == "" {
		c.Bot.Listen = ":8080"
	}
	if c.Bot.Timeout == 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = ":9090"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Quota.DailyFreeSeconds == 0 {
		c.Quota.DailyFreeSeconds = 10
	}
	if c.Pipeline.CallTimeout == 0 {
		c.Pipeline.CallTimeout = 60 * time.Second
	}
	if c.RateLimit.Messages == 0 {
		c.RateLimit.Messages = 20
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-3.5-turbo"
	}
	if c.OpenAI.TranscribeModel == "" {
		c.OpenAI.TranscribeModel = "whisper-1"
	}
	if c.OpenAI.SpeechModel == "" {
		c.OpenAI.SpeechModel = "tts-1"
	}
	if c.OpenAI.AudioModel == "" {
		c.OpenAI.AudioModel = "gpt-4o-audio-preview"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "alloy"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
}
