package trigger

import (
	"fmt"
	"time"
)

// Config carries the engine's tuning knobs. Every component takes its
// Config at construction; nothing reads package globals, so two engines
// with different tunings can coexist in one process.
type Config struct {
	// BaseProbability is the per-evaluation chance of an event before any
	// rule multiplier applies.
	BaseProbability float64 `koanf:"base_probability" json:"base_probability"`

	// GlobalCooldown suppresses all generation for a country after any
	// security event.
	GlobalCooldown time.Duration `koanf:"global_cooldown" json:"global_cooldown"`

	// CategoryCooldown suppresses generation of a specific event type for
	// a country after an event of that type.
	CategoryCooldown time.Duration `koanf:"category_cooldown" json:"category_cooldown"`

	// FrequencyWindow and MaxEventsPerWindow cap how many events a single
	// country may accumulate over a rolling window, regardless of how hot
	// its gauges run.
	FrequencyWindow    time.Duration `koanf:"frequency_window" json:"frequency_window"`
	MaxEventsPerWindow int           `koanf:"max_events_per_window" json:"max_events_per_window"`
}

// DefaultConfig returns the shipped tuning: 15% base probability, 2 day
// global cooldown, 7 day per-type cooldown, and at most 5 events per
// country per rolling 30 days.
func DefaultConfig() Config {
	return Config{
		BaseProbability:    0.15,
		GlobalCooldown:     48 * time.Hour,
		CategoryCooldown:   7 * 24 * time.Hour,
		FrequencyWindow:    30 * 24 * time.Hour,
		MaxEventsPerWindow: 5,
	}
}

// Validate rejects tunings that would disable the engine or the anti-spam
// guarantees.
func (c Config) Validate() error {
	if c.BaseProbability <= 0 || c.BaseProbability > 1 {
		return fmt.Errorf("base probability %.3f outside (0, 1]", c.BaseProbability)
	}
	if c.GlobalCooldown <= 0 {
		return fmt.Errorf("global cooldown %s must be positive", c.GlobalCooldown)
	}
	if c.CategoryCooldown <= 0 {
		return fmt.Errorf("category cooldown %s must be positive", c.CategoryCooldown)
	}
	if c.FrequencyWindow <= 0 {
		return fmt.Errorf("frequency window %s must be positive", c.FrequencyWindow)
	}
	if c.MaxEventsPerWindow < 1 {
		return fmt.Errorf("max events per window %d must be at least 1", c.MaxEventsPerWindow)
	}
	return nil
}
