// Package config loads and validates rankwatch configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSourceURL is the ranking page polled when no override is given.
const DefaultSourceURL = "https://www.webnovel.com/ranking/novel/monthly/power_rank"

// Config captures all settings, loaded once at startup and passed to
// components as immutable values.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	State    StateConfig    `mapstructure:"state"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig identifies the page being monitored.
type SourceConfig struct {
	URL string `mapstructure:"url"`
}

// HTTPConfig configures the page transport and its retry policy.
type HTTPConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	MaxAttempts     int    `mapstructure:"max_attempts"`
	BackoffBaseMs   int    `mapstructure:"backoff_base_ms"`
	BackoffJitterMs int    `mapstructure:"backoff_jitter_ms"`
	UserAgent       string `mapstructure:"user_agent"`
	AcceptLanguage  string `mapstructure:"accept_language"`
}

// StateConfig locates the snapshot file.
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// TelegramConfig holds the delivery credentials. Either value empty
// means delivery is skipped entirely.
type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
}

// NotifyConfig holds notification behavior toggles.
type NotifyConfig struct {
	// Force sends a message even with no new entries and even on the
	// first run.
	Force bool `mapstructure:"force"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Externally fixed variable names; these predate the RANKWATCH_
	// prefix convention and stay as-is for scheduler compatibility.
	for key, env := range map[string]string{
		"telegram.token":   "TELEGRAM_TOKEN",
		"telegram.chat_id": "TELEGRAM_CHAT_ID",
		"notify.force":     "RANKWATCH_FORCE_NOTIFY",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_attempts", 4)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("http.backoff_jitter_ms", 750)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.accept_language", "")
	v.SetDefault("state.path", "data/seen_titles.json")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("notify.force", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	return nil
}

// Timeout returns the per-attempt HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the base delay of the retry policy.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}

// BackoffJitter returns the upper bound of the per-attempt jitter.
func (c Config) BackoffJitter() time.Duration {
	return time.Duration(c.HTTP.BackoffJitterMs) * time.Millisecond
}

// TelegramConfigured reports whether both delivery credentials are set.
func (c Config) TelegramConfigured() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != ""
}
