package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// HistoryStats summarizes persisted security events for one country over a
// trailing window. MostRecent is the zero time when no event matched.
type HistoryStats struct {
	MostRecent    time.Time
	CountInWindow int
}

// EventHistory answers cooldown queries from persisted events. An empty
// eventType matches events of every type.
type EventHistory interface {
	History(ctx context.Context, id country.ID, window time.Duration, eventType secevent.Type) (HistoryStats, error)
}

// Cooldown reasons reported by Guard.Status.
const (
	ReasonGlobal    = "global"
	ReasonCategory  = "category"
	ReasonFrequency = "frequency_cap"
)

// Guard enforces the engine's anti-spam contract: a global cooldown after
// any event, a longer per-type cooldown, and a hard frequency cap over a
// rolling window. It keeps no state of its own; every answer is derived
// from persisted history at call time, so restarts cannot reset cooldowns.
type Guard struct {
	history EventHistory
	cfg     Config

	// Now supplies the guard's clock. The constructor sets time.Now;
	// tests and the simulated calendar override it.
	Now func() time.Time
}

// NewGuard builds a guard over the given history, reading the wall clock.
func NewGuard(history EventHistory, cfg Config) *Guard {
	return &Guard{history: history, cfg: cfg, Now: time.Now}
}

// IsOnCooldown reports whether generation is currently suppressed for the
// country. With a non-empty eventType the per-type cooldown is checked as
// well; an empty eventType checks only the global cooldown and the
// frequency cap.
//
// Boundaries are exclusive: a cooldown that has exactly elapsed no longer
// suppresses. A country with no history is never on cooldown.
func (g *Guard) IsOnCooldown(ctx context.Context, id country.ID, eventType secevent.Type) (bool, error) {
	now := g.Now()

	// One query over the widest window answers both the frequency cap and
	// the global cooldown.
	stats, err := g.history.History(ctx, id, g.cfg.FrequencyWindow, "")
	if err != nil {
		return false, fmt.Errorf("load event history for %s: %w", id, err)
	}
	if stats.CountInWindow >= g.cfg.MaxEventsPerWindow {
		return true, nil
	}
	if !stats.MostRecent.IsZero() && now.Sub(stats.MostRecent) < g.cfg.GlobalCooldown {
		return true, nil
	}

	if eventType != "" {
		ts, err := g.history.History(ctx, id, g.cfg.CategoryCooldown, eventType)
		if err != nil {
			return false, fmt.Errorf("load %s history for %s: %w", eventType, id, err)
		}
		if !ts.MostRecent.IsZero() && now.Sub(ts.MostRecent) < g.cfg.CategoryCooldown {
			return true, nil
		}
	}
	return false, nil
}

// Status is the full cooldown picture for one country, as served by the
// operator API.
type Status struct {
	CountryID          country.ID                  `json:"country_id"`
	OnCooldown         bool                        `json:"on_cooldown"`
	Reason             string                      `json:"reason,omitempty"`
	GlobalReadyAt      time.Time                   `json:"global_ready_at"`
	EventsInWindow     int                         `json:"events_in_window"`
	MaxEventsPerWindow int                         `json:"max_events_per_window"`
	CategoryReadyAt    map[secevent.Type]time.Time `json:"category_ready_at,omitempty"`
}

// Status reports every active suppression for the country, including
// per-type cooldowns still running. Reason names the first suppression in
// contract order: global, then category, then the frequency cap.
func (g *Guard) Status(ctx context.Context, id country.ID) (Status, error) {
	now := g.Now()
	st := Status{CountryID: id, MaxEventsPerWindow: g.cfg.MaxEventsPerWindow}

	stats, err := g.history.History(ctx, id, g.cfg.FrequencyWindow, "")
	if err != nil {
		return Status{}, fmt.Errorf("load event history for %s: %w", id, err)
	}
	st.EventsInWindow = stats.CountInWindow
	if !stats.MostRecent.IsZero() {
		st.GlobalReadyAt = stats.MostRecent.Add(g.cfg.GlobalCooldown)
	}

	for _, t := range secevent.AllTypes() {
		ts, err := g.history.History(ctx, id, g.cfg.CategoryCooldown, t)
		if err != nil {
			return Status{}, fmt.Errorf("load %s history for %s: %w", t, id, err)
		}
		if ts.MostRecent.IsZero() {
			continue
		}
		readyAt := ts.MostRecent.Add(g.cfg.CategoryCooldown)
		if readyAt.After(now) {
			if st.CategoryReadyAt == nil {
				st.CategoryReadyAt = make(map[secevent.Type]time.Time)
			}
			st.CategoryReadyAt[t] = readyAt
		}
	}

	switch {
	case st.GlobalReadyAt.After(now):
		st.OnCooldown, st.Reason = true, ReasonGlobal
	case len(st.CategoryReadyAt) > 0:
		st.OnCooldown, st.Reason = true, ReasonCategory
	case st.EventsInWindow >= g.cfg.MaxEventsPerWindow:
		st.OnCooldown, st.Reason = true, ReasonFrequency
	}
	return st, nil
}

// CooledTypes filters candidates down to the types whose per-type cooldown
// has elapsed. The orchestrator calls this after rule evaluation so content
// generation never wastes work on a type that would be suppressed anyway.
func (g *Guard) CooledTypes(ctx context.Context, id country.ID, candidates []secevent.Type) ([]secevent.Type, error) {
	now := g.Now()
	var open []secevent.Type
	for _, t := range candidates {
		ts, err := g.history.History(ctx, id, g.cfg.CategoryCooldown, t)
		if err != nil {
			return nil, fmt.Errorf("load %s history for %s: %w", t, id, err)
		}
		if ts.MostRecent.IsZero() || now.Sub(ts.MostRecent) >= g.cfg.CategoryCooldown {
			open = append(open, t)
		}
	}
	return open, nil
}
