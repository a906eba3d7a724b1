package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

func openTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.Now = func() time.Time { return now }
	return s
}

func saveAt(t *testing.T, s *Store, id country.ID, ty secevent.Type, at time.Time) secevent.Event {
	t.Helper()
	ev := secevent.Event{
		ID:                 uuid.NewString(),
		CountryID:          id,
		Type:               ty,
		Severity:           secevent.SeverityMedium,
		Title:              "test event",
		Casualties:         3,
		EconomicImpactMUSD: 12.5,
		StabilityImpact:    -1.5,
		Status:             secevent.StatusActive,
		TriggerFactors:     []string{"critical-instability", "perfect-storm"},
		CreatedAt:          at,
	}
	require.NoError(t, s.SaveEvent(context.Background(), &ev))
	return ev
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, now)

	want := saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-time.Hour))
	got, err := s.Get(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHistoryWindowAndTypeFilter(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, now)
	ctx := context.Background()

	saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-2*24*time.Hour))
	saveAt(t, s, "velmara", secevent.TypeCivilUnrest, now.Add(-10*24*time.Hour))
	saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-40*24*time.Hour))
	saveAt(t, s, "ostrau", secevent.TypeTerrorism, now.Add(-time.Hour))

	// All types over 30 days: two velmara events, newest first.
	stats, err := s.History(ctx, "velmara", 30*24*time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CountInWindow)
	assert.Equal(t, now.Add(-2*24*time.Hour), stats.MostRecent)

	// Type filter drops the civil unrest event.
	stats, err = s.History(ctx, "velmara", 30*24*time.Hour, secevent.TypeCivilUnrest)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CountInWindow)
	assert.Equal(t, now.Add(-10*24*time.Hour), stats.MostRecent)

	// No matches: zero stats, zero MostRecent.
	stats, err = s.History(ctx, "velmara", 30*24*time.Hour, secevent.TypeCoupAttempt)
	require.NoError(t, err)
	assert.Zero(t, stats.CountInWindow)
	assert.True(t, stats.MostRecent.IsZero())

	// Other countries never bleed in.
	stats, err = s.History(ctx, "kessland", 30*24*time.Hour, "")
	require.NoError(t, err)
	assert.Zero(t, stats.CountInWindow)
}

func TestHistoryWindowEdgeIsExclusive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, now)
	ctx := context.Background()

	saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-30*24*time.Hour))

	stats, err := s.History(ctx, "velmara", 30*24*time.Hour, "")
	require.NoError(t, err)
	assert.Zero(t, stats.CountInWindow, "event exactly at the window edge is outside it")

	stats, err = s.History(ctx, "velmara", 30*24*time.Hour+time.Millisecond, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CountInWindow)
}

func TestRecentAndByCountryOrdering(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, now)
	ctx := context.Background()

	oldest := saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-3*time.Hour))
	middle := saveAt(t, s, "ostrau", secevent.TypeCyberAttack, now.Add(-2*time.Hour))
	newest := saveAt(t, s, "velmara", secevent.TypeCivilUnrest, now.Add(-time.Hour))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID},
		[]string{recent[0].ID, recent[1].ID, recent[2].ID})

	recent, err = s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	mine, err := s.ByCountry(ctx, "velmara", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newest.ID, mine[0].ID)
	assert.Equal(t, oldest.ID, mine[1].ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGetMissingEventErrors(t *testing.T) {
	s := openTestStore(t, time.Now())
	_, err := s.Get(context.Background(), "no-such-id")
	assert.Error(t, err)
}

// The store satisfies both engine contracts over one table, so the guard's
// answers always reflect what the orchestrator just persisted.
func TestStoreBacksTheCooldownGuard(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, now)

	saveAt(t, s, "velmara", secevent.TypeTerrorism, now.Add(-24*time.Hour))

	stats, err := s.History(context.Background(), "velmara", 30*24*time.Hour, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CountInWindow)
	assert.Equal(t, now.Add(-24*time.Hour), stats.MostRecent)
}
