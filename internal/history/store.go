// Package history provides SQLite-backed storage for generated security
// events. It is the system of record the cooldown guard derives all of its
// answers from, so writes must land before any cooldown query can observe
// them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/metrics"
	"github.com/calderasim/flashpoint/internal/secevent"
	"github.com/calderasim/flashpoint/internal/trigger"
)

// Store wraps a SQLite connection holding the security event history.
type Store struct {
	conn *sqlx.DB

	// Now drives window cutoffs. The constructor sets time.Now; the
	// simulated calendar overrides it so cooldown queries and the guard
	// share one clock.
	Now func() time.Time
}

var (
	_ trigger.EventStore   = (*Store)(nil)
	_ trigger.EventHistory = (*Store)(nil)
)

// Open opens or creates the event database at the given path. ":memory:"
// works for tests.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn, Now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS security_events (
		id TEXT PRIMARY KEY,
		country_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		casualties INTEGER NOT NULL DEFAULT 0,
		economic_impact_musd REAL NOT NULL DEFAULT 0,
		stability_impact REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		trigger_factors_json TEXT NOT NULL DEFAULT '[]',
		created_at_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_secevents_country_created
		ON security_events(country_id, created_at_ms);
	CREATE INDEX IF NOT EXISTS idx_secevents_country_type_created
		ON security_events(country_id, event_type, created_at_ms);
	`
	_, err := s.conn.Exec(schema)
	return err
}

type eventRow struct {
	ID                 string  `db:"id"`
	CountryID          string  `db:"country_id"`
	EventType          string  `db:"event_type"`
	Severity           string  `db:"severity"`
	Title              string  `db:"title"`
	Summary            string  `db:"summary"`
	Casualties         int     `db:"casualties"`
	EconomicImpactMUSD float64 `db:"economic_impact_musd"`
	StabilityImpact    float64 `db:"stability_impact"`
	Status             string  `db:"status"`
	TriggerFactorsJSON string  `db:"trigger_factors_json"`
	CreatedAtMS        int64   `db:"created_at_ms"`
}

func (r eventRow) toEvent() secevent.Event {
	var factors []string
	_ = json.Unmarshal([]byte(r.TriggerFactorsJSON), &factors)
	return secevent.Event{
		ID:                 r.ID,
		CountryID:          country.ID(r.CountryID),
		Type:               secevent.Type(r.EventType),
		Severity:           secevent.Severity(r.Severity),
		Title:              r.Title,
		Summary:            r.Summary,
		Casualties:         r.Casualties,
		EconomicImpactMUSD: r.EconomicImpactMUSD,
		StabilityImpact:    r.StabilityImpact,
		Status:             secevent.Status(r.Status),
		TriggerFactors:     factors,
		CreatedAt:          time.UnixMilli(r.CreatedAtMS).UTC(),
	}
}

// SaveEvent appends one event to the history.
func (s *Store) SaveEvent(ctx context.Context, ev *secevent.Event) error {
	defer observe("save_event")()

	factorsJSON, _ := json.Marshal(ev.TriggerFactors)
	_, err := s.conn.ExecContext(ctx, `INSERT INTO security_events
		(id, country_id, event_type, severity, title, summary,
		 casualties, economic_impact_musd, stability_impact, status,
		 trigger_factors_json, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.CountryID), string(ev.Type), string(ev.Severity),
		ev.Title, ev.Summary, ev.Casualties, ev.EconomicImpactMUSD,
		ev.StabilityImpact, string(ev.Status), string(factorsJSON),
		ev.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.ID, err)
	}
	return nil
}

// History answers cooldown queries: how many events the country had inside
// the trailing window and when the newest of them happened. An empty
// eventType matches every type. Events exactly at the window edge are
// outside it.
func (s *Store) History(ctx context.Context, id country.ID, window time.Duration, eventType secevent.Type) (trigger.HistoryStats, error) {
	defer observe("history")()

	cutoff := s.Now().Add(-window).UnixMilli()
	query := `SELECT COUNT(*) AS n, COALESCE(MAX(created_at_ms), 0) AS latest
		FROM security_events WHERE country_id = ? AND created_at_ms > ?`
	args := []any{string(id), cutoff}
	if eventType != "" {
		query += " AND event_type = ?"
		args = append(args, string(eventType))
	}

	var row struct {
		N      int   `db:"n"`
		Latest int64 `db:"latest"`
	}
	if err := s.conn.GetContext(ctx, &row, query, args...); err != nil {
		return trigger.HistoryStats{}, fmt.Errorf("query history for %s: %w", id, err)
	}

	stats := trigger.HistoryStats{CountInWindow: row.N}
	if row.Latest > 0 {
		stats.MostRecent = time.UnixMilli(row.Latest).UTC()
	}
	return stats, nil
}

// ByCountry returns the country's newest events, newest first.
func (s *Store) ByCountry(ctx context.Context, id country.ID, limit int) ([]secevent.Event, error) {
	defer observe("by_country")()

	var rows []eventRow
	err := s.conn.SelectContext(ctx, &rows,
		`SELECT * FROM security_events WHERE country_id = ?
		 ORDER BY created_at_ms DESC LIMIT ?`,
		string(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", id, err)
	}
	return toEvents(rows), nil
}

// Recent returns the newest events across all countries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]secevent.Event, error) {
	defer observe("recent")()

	var rows []eventRow
	err := s.conn.SelectContext(ctx, &rows,
		`SELECT * FROM security_events ORDER BY created_at_ms DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	return toEvents(rows), nil
}

// Count returns how many events have ever been persisted.
func (s *Store) Count(ctx context.Context) (int, error) {
	defer observe("count")()

	var n int
	if err := s.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM security_events"); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Get returns one event by id.
func (s *Store) Get(ctx context.Context, eventID string) (secevent.Event, error) {
	defer observe("get")()

	var row eventRow
	err := s.conn.GetContext(ctx, &row,
		"SELECT * FROM security_events WHERE id = ?", eventID)
	if err == sql.ErrNoRows {
		return secevent.Event{}, fmt.Errorf("event %s: %w", eventID, err)
	}
	if err != nil {
		return secevent.Event{}, fmt.Errorf("query event %s: %w", eventID, err)
	}
	return row.toEvent(), nil
}

func toEvents(rows []eventRow) []secevent.Event {
	events := make([]secevent.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toEvent()
	}
	return events
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
