package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesContract(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.15, cfg.BaseProbability)
	assert.Equal(t, 48*time.Hour, cfg.GlobalCooldown)
	assert.Equal(t, 7*24*time.Hour, cfg.CategoryCooldown)
	assert.Equal(t, 30*24*time.Hour, cfg.FrequencyWindow)
	assert.Equal(t, 5, cfg.MaxEventsPerWindow)
}

func TestConfigValidateRejectsDisablingValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero probability", func(c *Config) { c.BaseProbability = 0 }},
		{"probability above one", func(c *Config) { c.BaseProbability = 1.1 }},
		{"zero global cooldown", func(c *Config) { c.GlobalCooldown = 0 }},
		{"negative category cooldown", func(c *Config) { c.CategoryCooldown = -time.Hour }},
		{"zero window", func(c *Config) { c.FrequencyWindow = 0 }},
		{"zero cap", func(c *Config) { c.MaxEventsPerWindow = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
