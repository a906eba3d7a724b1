// Package config loads the daemon configuration from layered sources:
// built-in defaults, an optional YAML file, then FLASHPOINT_* environment
// variables, each layer overriding the one below it.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/calderasim/flashpoint/internal/trigger"
)

// Source modes.
const (
	SourceModeAPI = "api"
	SourceModeSim = "sim"
)

// Config is the full daemon configuration.
type Config struct {
	Server      ServerConfig             `koanf:"server"`
	Log         LogConfig                `koanf:"log"`
	Database    DatabaseConfig           `koanf:"database"`
	Source      SourceConfig             `koanf:"source"`
	Trigger     trigger.Config           `koanf:"trigger"`
	Notify      NotifyConfig             `koanf:"notify"`
	Batch       BatchConfig              `koanf:"batch"`
	Entropy     EntropyConfig            `koanf:"entropy"`
	CustomRules []trigger.CustomRuleSpec `koanf:"custom_rules"`
}

// ServerConfig configures the operator HTTP API.
type ServerConfig struct {
	Port int `koanf:"port" validate:"gte=0,lte=65535"`
	// AdminKey protects mutating endpoints. Empty disables them.
	AdminKey string `koanf:"admin_key"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// DatabaseConfig locates the event history database.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// SourceConfig selects where country snapshots come from: the platform API
// or the built-in synthetic world.
type SourceConfig struct {
	Mode    string        `koanf:"mode" validate:"oneof=api sim"`
	BaseURL string        `koanf:"base_url" validate:"required_if=Mode api,omitempty,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	// SimCountries sizes the synthetic world when Mode is "sim".
	SimCountries int `koanf:"sim_countries" validate:"gte=1"`
}

// NotifyConfig configures the outbound webhook. An empty URL means events
// are announced to the log only.
type NotifyConfig struct {
	WebhookURL     string        `koanf:"webhook_url" validate:"omitempty,url"`
	WebhookToken   string        `koanf:"webhook_token"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout" validate:"gt=0"`
	RatePerSec     float64       `koanf:"rate_per_sec" validate:"gt=0"`
	Burst          int           `koanf:"burst" validate:"gte=1"`
}

// BatchConfig tunes the periodic sweep.
type BatchConfig struct {
	Interval       time.Duration `koanf:"interval" validate:"gt=0"`
	Concurrency    int           `koanf:"concurrency" validate:"gte=1"`
	CountryTimeout time.Duration `koanf:"country_timeout" validate:"gt=0"`
}

// EntropyConfig selects the randomness source. Seed pins a deterministic
// stream for replayable runs; RandomOrgKey layers the random.org pool on
// top of crypto entropy. Seed wins when both are set.
type EntropyConfig struct {
	Seed         int64  `koanf:"seed"`
	RandomOrgKey string `koanf:"random_org_key"`
}

func defaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8090},
		Log:      LogConfig{Level: "info"},
		Database: DatabaseConfig{Path: "flashpoint.db"},
		Source: SourceConfig{
			Mode:         SourceModeSim,
			Timeout:      10 * time.Second,
			SimCountries: 24,
		},
		Trigger: trigger.DefaultConfig(),
		Notify: NotifyConfig{
			WebhookTimeout: 10 * time.Second,
			RatePerSec:     5,
			Burst:          10,
		},
		Batch: BatchConfig{
			Interval:       time.Hour,
			Concurrency:    trigger.DefaultConcurrency,
			CountryTimeout: trigger.DefaultCountryTimeout,
		},
	}
}

var validate = validator.New()

// Validate checks field constraints plus the trigger tuning invariants.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger config: %w", err)
	}
	return nil
}
