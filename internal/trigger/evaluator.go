package trigger

import (
	"math"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/entropy"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// Result is the outcome of one trigger evaluation. TriggeredBy lists every
// fired rule in catalog order, including rules whose multiplier lost the
// composition; analysts read it off persisted events to see the full
// pressure picture.
type Result struct {
	ShouldGenerate bool     `json:"should_generate"`
	Multiplier     float64  `json:"multiplier"`
	TriggeredBy    []string `json:"triggered_by"`
}

// Evaluator decides, for one snapshot, whether a security event should be
// generated. It is stateless between calls and safe for concurrent use as
// long as its entropy source is.
type Evaluator struct {
	catalog Catalog
	cfg     Config
	rand    entropy.Source
}

// NewEvaluator builds an evaluator over the given catalog. A nil source
// falls back to crypto entropy.
func NewEvaluator(catalog Catalog, cfg Config, rand entropy.Source) *Evaluator {
	if rand == nil {
		rand = entropy.Crypto()
	}
	return &Evaluator{catalog: catalog, cfg: cfg, rand: rand}
}

// Catalog returns the rule set this evaluator runs.
func (e *Evaluator) Catalog() Catalog { return e.catalog }

// Evaluate runs every rule against snap and makes exactly one probability
// draw.
//
// Multipliers compose by maximum, never by sum or product: the effective
// multiplier is the single strongest fired rule, so probability stays a
// statement about the worst condition rather than an unbounded pile-up.
// With no fired rules the multiplier is 1.0 and the draw proceeds at the
// bare base probability, so quiet countries still see rare baseline events.
func (e *Evaluator) Evaluate(snap country.Snapshot) Result {
	mult := 1.0
	var fired []string

	for _, r := range e.catalog.Thresholds {
		if !r.Fires(snap) {
			continue
		}
		fired = append(fired, r.Name)
		mult = math.Max(mult, r.Multiplier)
	}
	for _, r := range e.catalog.Cascades {
		if !r.Fires(snap) {
			continue
		}
		fired = append(fired, r.Name)
		mult = math.Max(mult, r.Multiplier)
	}

	p := e.cfg.BaseProbability * mult
	if p > 1 {
		p = 1
	}
	return Result{
		ShouldGenerate: e.rand.Float() < p,
		Multiplier:     mult,
		TriggeredBy:    fired,
	}
}

// EligibleTypes resolves which event types the fired rules allow. A roll
// that passed with no fired rules (the baseline case) is unconstrained, so
// the full event vocabulary comes back.
func (e *Evaluator) EligibleTypes(firedRules []string) []secevent.Type {
	if len(firedRules) == 0 {
		return secevent.AllTypes()
	}
	types := e.catalog.EligibleTypes(firedRules)
	if len(types) == 0 {
		return secevent.AllTypes()
	}
	return types
}
