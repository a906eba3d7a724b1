package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"flashpoint.yaml",
	"flashpoint.yml",
	"/etc/flashpoint/config.yaml",
	"/etc/flashpoint/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "FLASHPOINT_CONFIG"

// envPrefix scopes which environment variables the loader reads.
const envPrefix = "FLASHPOINT_"

// envMappings maps FLASHPOINT_* variables (lowercased) to config paths.
// Variables without a mapping are ignored rather than guessed at.
var envMappings = map[string]string{
	"flashpoint_port":      "server.port",
	"flashpoint_admin_key": "server.admin_key",
	"flashpoint_log_level": "log.level",
	"flashpoint_db_path":   "database.path",

	"flashpoint_source_mode":     "source.mode",
	"flashpoint_source_base_url": "source.base_url",
	"flashpoint_source_api_key":  "source.api_key",
	"flashpoint_source_timeout":  "source.timeout",
	"flashpoint_sim_countries":   "source.sim_countries",

	"flashpoint_base_probability":      "trigger.base_probability",
	"flashpoint_global_cooldown":       "trigger.global_cooldown",
	"flashpoint_category_cooldown":     "trigger.category_cooldown",
	"flashpoint_frequency_window":      "trigger.frequency_window",
	"flashpoint_max_events_per_window": "trigger.max_events_per_window",

	"flashpoint_webhook_url":     "notify.webhook_url",
	"flashpoint_webhook_token":   "notify.webhook_token",
	"flashpoint_webhook_timeout": "notify.webhook_timeout",

	"flashpoint_batch_interval":    "batch.interval",
	"flashpoint_batch_concurrency": "batch.concurrency",
	"flashpoint_country_timeout":   "batch.country_timeout",

	"flashpoint_seed":           "entropy.seed",
	"flashpoint_random_org_key": "entropy.random_org_key",
}

// Load assembles the effective configuration: defaults, then the config
// file (if one exists), then environment variables.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path; empty skips the file
// layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return envMappings[strings.ToLower(key)]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
