package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flashpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadDefaultsAlone(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, SourceModeSim, cfg.Source.Mode)
	assert.Equal(t, 0.15, cfg.Trigger.BaseProbability)
	assert.Equal(t, 48*time.Hour, cfg.Trigger.GlobalCooldown)
	assert.Equal(t, time.Hour, cfg.Batch.Interval)
	assert.Empty(t, cfg.CustomRules)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
log:
  level: debug
trigger:
  base_probability: 0.05
  max_events_per_window: 3
custom_rules:
  - name: narco-corridor
    kind: threshold
    expression: "stability.organized_crime_level > 70.0"
    multiplier: 2.2
    event_types: [organized_crime]
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.05, cfg.Trigger.BaseProbability)
	assert.Equal(t, 3, cfg.Trigger.MaxEventsPerWindow)

	// Untouched keys keep their defaults.
	assert.Equal(t, 48*time.Hour, cfg.Trigger.GlobalCooldown)

	require.Len(t, cfg.CustomRules, 1)
	assert.Equal(t, "narco-corridor", cfg.CustomRules[0].Name)
	assert.Equal(t, 2.2, cfg.CustomRules[0].Multiplier)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	t.Setenv("FLASHPOINT_PORT", "9100")
	t.Setenv("FLASHPOINT_LOG_LEVEL", "warn")
	t.Setenv("FLASHPOINT_BASE_PROBABILITY", "0.25")
	t.Setenv("FLASHPOINT_BATCH_INTERVAL", "30m")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 0.25, cfg.Trigger.BaseProbability)
	assert.Equal(t, 30*time.Minute, cfg.Batch.Interval)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log:\n  level: loud\n"},
		{"bad source mode", "source:\n  mode: csv\n"},
		{"probability out of range", "trigger:\n  base_probability: 1.5\n"},
		{"zero cooldown", "trigger:\n  global_cooldown: 0s\n"},
		{"negative port", "server:\n  port: -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
