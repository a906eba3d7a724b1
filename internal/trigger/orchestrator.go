package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/metrics"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// ContentRequest is everything the content generator gets to work with for
// one triggered event. EligibleTypes is already filtered down to types not
// on a per-type cooldown.
type ContentRequest struct {
	CountryID     country.ID
	Snapshot      country.Snapshot
	TriggeredBy   []string
	Multiplier    float64
	EligibleTypes []secevent.Type
}

// EventContent is the narrative payload a generator returns. A nil payload
// (with nil error) means the generator had nothing plausible for the
// eligible types, which ends the run without an event and without a fault.
type EventContent struct {
	Type               secevent.Type
	Severity           secevent.Severity
	Title              string
	Summary            string
	Casualties         int
	EconomicImpactMUSD float64
	StabilityImpact    float64
	Actor              *secevent.ThreatActor
}

// ContentGenerator produces the narrative details for a triggered event.
type ContentGenerator interface {
	Generate(ctx context.Context, req ContentRequest) (*EventContent, error)
}

// EventStore persists generated events. Implementations must assign no
// fields; the orchestrator hands over a fully populated event.
type EventStore interface {
	SaveEvent(ctx context.Context, ev *secevent.Event) error
}

// Announcement is the notification payload for one created event.
type Announcement struct {
	EventID     string            `json:"event_id"`
	CountryID   country.ID        `json:"country_id"`
	Type        secevent.Type     `json:"event_type"`
	Severity    secevent.Severity `json:"severity"`
	Title       string            `json:"title"`
	Summary     string            `json:"summary,omitempty"`
	TriggeredBy []string          `json:"triggered_by"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Notifier delivers announcements about created events. Delivery failures
// never unwind a persisted event; the orchestrator logs and moves on.
type Notifier interface {
	Notify(ctx context.Context, a Announcement) error
}

// SkipReason says why a run ended without an event.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipCooldown  SkipReason = "cooldown"
	SkipNoTrigger SkipReason = "no_trigger"
	SkipNoContent SkipReason = "no_content"
	SkipError     SkipReason = "error"
)

// Outcome is the result of one per-country generation run. Event and Actor
// are set only when Created is true. Evaluation is zero-valued when the run
// ended before rules were consulted.
type Outcome struct {
	Created    bool                  `json:"created"`
	Skip       SkipReason            `json:"skip_reason,omitempty"`
	Event      *secevent.Event       `json:"event,omitempty"`
	Actor      *secevent.ThreatActor `json:"actor,omitempty"`
	Evaluation Result                `json:"evaluation"`
}

// Orchestrator runs the full generation pipeline for one country: cooldown
// check, rule evaluation, content generation, persistence, notification.
// Collaborators are plain fields so callers wire it with a struct literal;
// Notifier may be nil, everything else is required.
type Orchestrator struct {
	Guard     *Guard
	Evaluator *Evaluator
	Generator ContentGenerator
	Store     EventStore
	Notifier  Notifier

	// Now stamps created events. Nil means time.Now.
	Now func() time.Time
}

func (o *Orchestrator) clock() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Process runs the pipeline once for the given country snapshot. It never
// returns an error: every failure mode is folded into a not-created
// Outcome, logged with the stage that failed, so one sick collaborator
// cannot take down a batch sweep.
//
// Ordering contract: the event is persisted before anyone is notified, and
// a failed notification does not unwind the persisted event.
func (o *Orchestrator) Process(ctx context.Context, id country.ID, snap country.Snapshot) Outcome {
	log := slog.With("country", id)

	onCooldown, err := o.Guard.IsOnCooldown(ctx, id, "")
	if err != nil {
		log.Error("generation aborted", "stage", "cooldown", "error", err)
		return o.skip(SkipError, Result{})
	}
	if onCooldown {
		log.Debug("generation suppressed by cooldown")
		return o.skip(SkipCooldown, Result{})
	}

	res := o.Evaluator.Evaluate(snap)
	for _, rule := range res.TriggeredBy {
		metrics.RuleFired.WithLabelValues(rule).Inc()
	}
	if !res.ShouldGenerate {
		return o.skip(SkipNoTrigger, res)
	}

	eligible, err := o.Guard.CooledTypes(ctx, id, o.Evaluator.EligibleTypes(res.TriggeredBy))
	if err != nil {
		log.Error("generation aborted", "stage", "evaluate", "error", err)
		return o.skip(SkipError, res)
	}
	if len(eligible) == 0 {
		log.Debug("all eligible event types cooling down", "rules", res.TriggeredBy)
		return o.skip(SkipCooldown, res)
	}

	content, err := o.Generator.Generate(ctx, ContentRequest{
		CountryID:     id,
		Snapshot:      snap,
		TriggeredBy:   res.TriggeredBy,
		Multiplier:    res.Multiplier,
		EligibleTypes: eligible,
	})
	if err != nil {
		log.Error("generation aborted", "stage", "generate", "error", err)
		return o.skip(SkipError, res)
	}
	if content == nil {
		log.Debug("generator produced no content", "eligible", eligible)
		return o.skip(SkipNoContent, res)
	}
	if !secevent.KnownType(content.Type) {
		log.Warn("generator returned unknown event type, discarding", "type", content.Type)
		return o.skip(SkipNoContent, res)
	}

	ev := &secevent.Event{
		ID:                 uuid.NewString(),
		CountryID:          id,
		Type:               content.Type,
		Severity:           content.Severity,
		Title:              content.Title,
		Summary:            content.Summary,
		Casualties:         content.Casualties,
		EconomicImpactMUSD: content.EconomicImpactMUSD,
		StabilityImpact:    content.StabilityImpact,
		Status:             secevent.StatusActive,
		TriggerFactors:     res.TriggeredBy,
		CreatedAt:          o.clock().UTC(),
	}
	if err := o.Store.SaveEvent(ctx, ev); err != nil {
		log.Error("generation aborted", "stage", "persist", "error", err, "type", ev.Type)
		return o.skip(SkipError, res)
	}

	if o.Notifier != nil {
		a := Announcement{
			EventID:     ev.ID,
			CountryID:   ev.CountryID,
			Type:        ev.Type,
			Severity:    ev.Severity,
			Title:       ev.Title,
			Summary:     ev.Summary,
			TriggeredBy: ev.TriggerFactors,
			OccurredAt:  ev.CreatedAt,
		}
		if err := o.Notifier.Notify(ctx, a); err != nil {
			metrics.NotifyFailures.Inc()
			log.Warn("event created but announcement failed", "event", ev.ID, "error", err)
		}
	}

	metrics.EventsCreated.WithLabelValues(string(ev.Type)).Inc()
	log.Info("security event created",
		"event", ev.ID, "type", ev.Type, "severity", ev.Severity,
		"multiplier", res.Multiplier, "rules", res.TriggeredBy)
	return Outcome{Created: true, Event: ev, Actor: content.Actor, Evaluation: res}
}

func (o *Orchestrator) skip(reason SkipReason, res Result) Outcome {
	metrics.GenerationSkips.WithLabelValues(string(reason)).Inc()
	return Outcome{Skip: reason, Evaluation: res}
}
