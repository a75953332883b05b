package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrWebhookURLRequired is returned when production config is missing the
// webhook base URL. The process must not start serving traffic without it.
var ErrWebhookURLRequired = errors.New("bot.webhook_url is required in production")

// Load reads configuration from YAML files and environment variables,
// validates it, and returns the resulting Config alongside the viper
// instance for optional watching.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// missing env files are fine outside of local development
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(v, env)
	if err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

func parse(v *viper.Viper, env string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env
	cfg.applyDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.checkEnvironment(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkEnvironment enforces cross-field rules that struct tags cannot express.
func (c *Config) checkEnvironment() error {
	if c.AppEnv == "production" {
		if c.Bot.Mode != "webhook" {
			return fmt.Errorf("bot.mode must be webhook in production, got %q", c.Bot.Mode)
		}
		if c.Bot.WebhookURL == "" {
			return ErrWebhookURLRequired
		}
	}

	if c.Bot.Mode == "webhook" && c.Bot.WebhookURL == "" {
		return ErrWebhookURLRequired
	}

	return nil
}

// Watch re-reads the config file on change and invokes onChange with the
// freshly parsed Config. Parse or validation failures keep the previous
// configuration in effect.
func Watch(v *viper.Viper, env string, log *slog.Logger, onChange func(*Config)) {
	if v == nil || onChange == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := parse(v, env)
		if err != nil {
			log.Warn("config reload rejected", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}
