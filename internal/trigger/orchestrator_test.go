package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/entropy"
	"github.com/calderasim/flashpoint/internal/secevent"
)

type stubGenerator struct {
	content *EventContent
	err     error
	calls   int
	lastReq ContentRequest
}

func (g *stubGenerator) Generate(_ context.Context, req ContentRequest) (*EventContent, error) {
	g.calls++
	g.lastReq = req
	return g.content, g.err
}

type stubStore struct {
	saved []*secevent.Event
	err   error
}

func (s *stubStore) SaveEvent(_ context.Context, ev *secevent.Event) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, ev)
	return nil
}

type stubNotifier struct {
	calls []Announcement
	err   error
}

func (n *stubNotifier) Notify(_ context.Context, a Announcement) error {
	n.calls = append(n.calls, a)
	return n.err
}

func testContent() *EventContent {
	return &EventContent{
		Type:               secevent.TypeCivilUnrest,
		Severity:           secevent.SeverityHigh,
		Title:              "Mass protests spiral into street battles",
		Summary:            "crowds past policing capacity",
		Casualties:         12,
		EconomicImpactMUSD: 80.5,
		StabilityImpact:    -2.5,
		Actor:              &secevent.ThreatActor{Name: "October Bloc", Kind: "organization", Origin: "domestic"},
	}
}

// orchestratorHarness wires an orchestrator over stubs. The fixed roll of 0
// makes every evaluation pass; the unstable snapshot fires rules.
type orchestratorHarness struct {
	history  *fakeHistory
	gen      *stubGenerator
	store    *stubStore
	notifier *stubNotifier
	orch     *Orchestrator
	now      time.Time
}

func newHarness(roll float64) *orchestratorHarness {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	h := &orchestratorHarness{
		history:  &fakeHistory{now: now},
		gen:      &stubGenerator{content: testContent()},
		store:    &stubStore{},
		notifier: &stubNotifier{},
		now:      now,
	}
	guard := NewGuard(h.history, DefaultConfig())
	guard.Now = func() time.Time { return now }
	h.orch = &Orchestrator{
		Guard:     guard,
		Evaluator: NewEvaluator(Builtin(), DefaultConfig(), entropy.Fixed(roll)),
		Generator: h.gen,
		Store:     h.store,
		Notifier:  h.notifier,
		Now:       func() time.Time { return now },
	}
	return h
}

func unstableSnapshot(id country.ID) country.Snapshot {
	snap := country.Neutral(id)
	snap.Stability.StabilityScore = 25
	return snap
}

func TestProcessCreatesExactlyOneEvent(t *testing.T) {
	h := newHarness(0)
	out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))

	assert.True(t, out.Created)
	assert.Equal(t, SkipNone, out.Skip)
	require.NotNil(t, out.Event)
	require.Len(t, h.store.saved, 1)

	ev := h.store.saved[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, country.ID("velmara"), ev.CountryID)
	assert.Equal(t, secevent.TypeCivilUnrest, ev.Type)
	assert.Equal(t, secevent.StatusActive, ev.Status)
	assert.Equal(t, []string{"critical-instability"}, ev.TriggerFactors)
	assert.Equal(t, h.now, ev.CreatedAt)

	// Notification fired once, after persistence, for the same event.
	require.Len(t, h.notifier.calls, 1)
	assert.Equal(t, ev.ID, h.notifier.calls[0].EventID)
	assert.Equal(t, ev.TriggerFactors, h.notifier.calls[0].TriggeredBy)

	// The generator saw only the fired rule's eligible types.
	assert.Equal(t, []secevent.Type{
		secevent.TypeCivilUnrest, secevent.TypeCoupAttempt, secevent.TypeInsurgency,
	}, h.gen.lastReq.EligibleTypes)
	assert.Equal(t, 3.0, h.gen.lastReq.Multiplier)

	// Actor rides along on the outcome without being persisted.
	require.NotNil(t, out.Actor)
	assert.Equal(t, "October Bloc", out.Actor.Name)
}

func TestProcessSkipsOnCooldownBeforeAnyWork(t *testing.T) {
	h := newHarness(0)
	h.history.events = []fakeEvent{{at: h.now.Add(-time.Hour), ty: secevent.TypeTerrorism}}

	out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
	assert.False(t, out.Created)
	assert.Equal(t, SkipCooldown, out.Skip)
	assert.Zero(t, h.gen.calls)
	assert.Empty(t, h.store.saved)
	assert.Empty(t, h.notifier.calls)
}

func TestProcessSkipsWhenRollFails(t *testing.T) {
	h := newHarness(0.99)
	out := h.orch.Process(context.Background(), "velmara", country.Neutral("velmara"))
	assert.False(t, out.Created)
	assert.Equal(t, SkipNoTrigger, out.Skip)
	assert.Zero(t, h.gen.calls)
}

func TestProcessSkipsWhenAllEligibleTypesCooling(t *testing.T) {
	h := newHarness(0)
	// A cyber attack three days ago: global cooldown elapsed, but the only
	// type the fired rule allows is still inside its 7-day category window.
	h.history.events = []fakeEvent{{at: h.now.Add(-3 * 24 * time.Hour), ty: secevent.TypeCyberAttack}}

	snap := country.Neutral("ostrau")
	snap.Military.Cybersecurity = 20 // fires cyber-vulnerability only

	out := h.orch.Process(context.Background(), "ostrau", snap)
	assert.False(t, out.Created)
	assert.Equal(t, SkipCooldown, out.Skip)
	assert.Zero(t, h.gen.calls)
}

func TestProcessToleratesGeneratorDeclining(t *testing.T) {
	h := newHarness(0)
	h.gen.content = nil

	out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
	assert.False(t, out.Created)
	assert.Equal(t, SkipNoContent, out.Skip)
	assert.Empty(t, h.store.saved)
}

func TestProcessDiscardsUnknownEventType(t *testing.T) {
	h := newHarness(0)
	h.gen.content.Type = "weather_balloon"

	out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
	assert.False(t, out.Created)
	assert.Equal(t, SkipNoContent, out.Skip)
	assert.Empty(t, h.store.saved)
}

func TestProcessConvertsCollaboratorFailuresToOutcomes(t *testing.T) {
	t.Run("guard failure", func(t *testing.T) {
		h := newHarness(0)
		h.history.err = errors.New("db locked")
		out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
		assert.False(t, out.Created)
		assert.Equal(t, SkipError, out.Skip)
	})

	t.Run("generator failure", func(t *testing.T) {
		h := newHarness(0)
		h.gen.err = errors.New("narrative service down")
		out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
		assert.False(t, out.Created)
		assert.Equal(t, SkipError, out.Skip)
		assert.Empty(t, h.store.saved)
	})

	t.Run("persist failure suppresses notification", func(t *testing.T) {
		h := newHarness(0)
		h.store.err = errors.New("disk full")
		out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
		assert.False(t, out.Created)
		assert.Equal(t, SkipError, out.Skip)
		assert.Empty(t, h.notifier.calls)
	})

	t.Run("notify failure does not unwind the event", func(t *testing.T) {
		h := newHarness(0)
		h.notifier.err = errors.New("webhook down")
		out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
		assert.True(t, out.Created)
		assert.Len(t, h.store.saved, 1)
	})
}

func TestProcessWithNilNotifier(t *testing.T) {
	h := newHarness(0)
	h.orch.Notifier = nil
	out := h.orch.Process(context.Background(), "velmara", unstableSnapshot("velmara"))
	assert.True(t, out.Created)
	assert.Len(t, h.store.saved, 1)
}
