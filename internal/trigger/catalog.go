package trigger

import (
	"fmt"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// BuiltinCatalogVersion identifies the shipped rule set. Bump it whenever a
// builtin rule, threshold, or multiplier changes so persisted events can be
// traced back to the catalog that produced them.
const BuiltinCatalogVersion = "2026.2"

// Catalog is an immutable, versioned set of trigger rules. Evaluators hold
// one catalog for their lifetime; swapping rule sets means building a new
// evaluator.
type Catalog struct {
	Version    string
	Thresholds []ThresholdRule
	Cascades   []CascadeRule
}

// Builtin returns the shipped rule catalog.
//
// Threshold multipliers are calibrated against the 0.15 base probability so
// that a single tripped gauge lands in the 30-48% band per evaluation, and
// cascades in the 45-68% band. Cascade multipliers always exceed those of
// the threshold rules they overlap with, so a compounding crisis dominates
// composition.
func Builtin() Catalog {
	return Catalog{
		Version: BuiltinCatalogVersion,
		Thresholds: []ThresholdRule{
			{
				Name:        "critical-instability",
				Description: "Overall stability has collapsed below the critical floor.",
				EventTypes:  []secevent.Type{secevent.TypeCivilUnrest, secevent.TypeCoupAttempt, secevent.TypeInsurgency},
				Multiplier:  3.0,
				Condition:   func(s country.Snapshot) bool { return s.Stability.StabilityScore < 30 },
			},
			{
				Name:        "political-crisis",
				Description: "The governing apparatus is near breakdown.",
				EventTypes:  []secevent.Type{secevent.TypeCoupAttempt, secevent.TypeAssassination, secevent.TypeCivilUnrest},
				Multiplier:  3.2,
				Condition:   func(s country.Snapshot) bool { return s.Politics.PoliticalStability < 25 },
			},
			{
				Name:        "ethnic-powder-keg",
				Description: "Intercommunal tension is high enough to ignite on contact.",
				EventTypes:  []secevent.Type{secevent.TypeCivilUnrest, secevent.TypeInsurgency, secevent.TypeTerrorism},
				Multiplier:  2.8,
				Condition:   func(s country.Snapshot) bool { return s.Stability.EthnicTension > 75 },
			},
			{
				Name:        "extreme-polarization",
				Description: "Political camps no longer share a civic arena.",
				EventTypes:  []secevent.Type{secevent.TypeCivilUnrest, secevent.TypeAssassination, secevent.TypeTerrorism},
				Multiplier:  2.6,
				Condition:   func(s country.Snapshot) bool { return s.Politics.Polarization > 80 },
			},
			{
				Name:        "severe-crime-wave",
				Description: "Violent crime is running far past policing capacity.",
				EventTypes:  []secevent.Type{secevent.TypeOrganizedCrime, secevent.TypeAssassination},
				Multiplier:  2.5,
				Condition:   func(s country.Snapshot) bool { return s.Stability.CrimeRate > 800 },
			},
			{
				Name:        "boiling-point",
				Description: "Street anger is one spark away from mass riots.",
				EventTypes:  []secevent.Type{secevent.TypeCivilUnrest},
				Multiplier:  2.5,
				Condition:   func(s country.Snapshot) bool { return s.Stability.RiotRisk > 70 },
			},
			{
				Name:        "economic-desperation",
				Description: "Poverty has pushed a large bloc of citizens outside the formal economy.",
				EventTypes:  []secevent.Type{secevent.TypeCivilUnrest, secevent.TypeOrganizedCrime, secevent.TypeInsurgency},
				Multiplier:  2.4,
				Condition:   func(s country.Snapshot) bool { return s.Economy.PovertyRate > 45 },
			},
			{
				Name:        "cyber-vulnerability",
				Description: "Digital defenses lag well behind known intrusion capability.",
				EventTypes:  []secevent.Type{secevent.TypeCyberAttack},
				Multiplier:  2.3,
				Condition:   func(s country.Snapshot) bool { return s.Military.Cybersecurity < 35 },
			},
			{
				Name:        "readiness-collapse",
				Description: "The armed forces cannot respond to a fast-moving incident.",
				EventTypes:  []secevent.Type{secevent.TypeBorderIncident, secevent.TypeInsurgency, secevent.TypeTerrorism},
				Multiplier:  2.2,
				Condition:   func(s country.Snapshot) bool { return s.Military.AverageReadiness < 35 },
			},
			{
				Name:        "porous-borders",
				Description: "Frontier control is too weak to interdict hostile movement.",
				EventTypes:  []secevent.Type{secevent.TypeBorderIncident, secevent.TypeTerrorism, secevent.TypeOrganizedCrime},
				Multiplier:  2.0,
				Condition:   func(s country.Snapshot) bool { return s.Military.BorderSecurity < 40 },
			},
		},
		Cascades: []CascadeRule{
			{
				Name:             "failed-state-spiral",
				Description:      "Governance, legitimacy, and the economy are failing together.",
				EventTypes:       []secevent.Type{secevent.TypeCoupAttempt, secevent.TypeInsurgency, secevent.TypeCivilUnrest},
				Multiplier:       4.5,
				MinConditionsMet: 3,
				Conditions: []Condition{
					func(s country.Snapshot) bool { return s.Politics.PoliticalStability < 30 },
					func(s country.Snapshot) bool { return s.Politics.Corruption > 70 },
					func(s country.Snapshot) bool { return s.Stability.SocialCohesion < 35 },
					func(s country.Snapshot) bool { return s.Economy.GDPPerCapita < 2000 },
				},
			},
			{
				Name:             "perfect-storm",
				Description:      "Multiple independent pressure gauges are redlining at once.",
				EventTypes:       []secevent.Type{secevent.TypeCivilUnrest, secevent.TypeCoupAttempt, secevent.TypeTerrorism},
				Multiplier:       4.0,
				MinConditionsMet: 3,
				Conditions: []Condition{
					func(s country.Snapshot) bool { return s.Stability.StabilityScore < 40 },
					func(s country.Snapshot) bool { return s.Economy.UnemploymentRate > 15 },
					func(s country.Snapshot) bool { return s.Military.AverageReadiness < 60 },
					func(s country.Snapshot) bool { return s.Politics.Polarization > 70 },
					func(s country.Snapshot) bool { return s.Stability.TrustInGovernment < 40 },
				},
			},
			{
				Name:             "security-vacuum",
				Description:      "State security organs have ceded ground to armed networks.",
				EventTypes:       []secevent.Type{secevent.TypeTerrorism, secevent.TypeOrganizedCrime, secevent.TypeBorderIncident},
				Multiplier:       3.5,
				MinConditionsMet: 2,
				Conditions: []Condition{
					func(s country.Snapshot) bool { return s.Military.BorderSecurity < 45 },
					func(s country.Snapshot) bool { return s.Military.CounterTerrorism < 40 },
					func(s country.Snapshot) bool { return s.Stability.OrganizedCrimeLevel > 65 },
				},
			},
			{
				Name:             "digital-exposure",
				Description:      "Weak cyber defenses plus a proven hostile capability.",
				EventTypes:       []secevent.Type{secevent.TypeCyberAttack, secevent.TypeTerrorism},
				Multiplier:       3.0,
				MinConditionsMet: 2,
				Conditions: []Condition{
					func(s country.Snapshot) bool { return s.Military.Cybersecurity < 40 },
					func(s country.Snapshot) bool { return s.Military.CounterTerrorism < 45 },
					func(s country.Snapshot) bool { return s.RecentEvents.SuccessfulAttacksLast90Days >= 1 },
				},
			},
		},
	}
}

// Extend returns a copy of the catalog with extra rules appended, tagging
// the version so events record that custom rules were in play. The receiver
// is not modified.
func (c Catalog) Extend(thresholds []ThresholdRule, cascades []CascadeRule) Catalog {
	out := Catalog{
		Version:    c.Version,
		Thresholds: append(append([]ThresholdRule(nil), c.Thresholds...), thresholds...),
		Cascades:   append(append([]CascadeRule(nil), c.Cascades...), cascades...),
	}
	if len(thresholds) > 0 || len(cascades) > 0 {
		out.Version += "+custom"
	}
	return out
}

// RuleCount returns how many rules the catalog holds.
func (c Catalog) RuleCount() int {
	return len(c.Thresholds) + len(c.Cascades)
}

// EligibleTypes resolves the event types made eligible by the named fired
// rules, deduplicated in catalog order. An empty result means no named rule
// exists in this catalog.
func (c Catalog) EligibleTypes(ruleNames []string) []secevent.Type {
	if len(ruleNames) == 0 {
		return nil
	}
	fired := make(map[string]bool, len(ruleNames))
	for _, n := range ruleNames {
		fired[n] = true
	}
	seen := make(map[secevent.Type]bool)
	var types []secevent.Type
	add := func(name string, ts []secevent.Type) {
		if !fired[name] {
			return
		}
		for _, t := range ts {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	for _, r := range c.Thresholds {
		add(r.Name, r.EventTypes)
	}
	for _, r := range c.Cascades {
		add(r.Name, r.EventTypes)
	}
	return types
}

// Validate checks the structural invariants every catalog must satisfy:
// unique non-empty rule names, multipliers of at least 1.0, at least one
// eligible event type per rule, and cascade bounds that can actually fire.
func (c Catalog) Validate() error {
	names := make(map[string]bool, c.RuleCount())
	check := func(name string, mult float64, types []secevent.Type) error {
		if name == "" {
			return fmt.Errorf("rule with empty name")
		}
		if names[name] {
			return fmt.Errorf("duplicate rule name %q", name)
		}
		names[name] = true
		if mult < 1.0 {
			return fmt.Errorf("rule %q: multiplier %.2f would dampen the base probability", name, mult)
		}
		if len(types) == 0 {
			return fmt.Errorf("rule %q: no eligible event types", name)
		}
		return nil
	}
	for _, r := range c.Thresholds {
		if err := check(r.Name, r.Multiplier, r.EventTypes); err != nil {
			return err
		}
		if r.Condition == nil {
			return fmt.Errorf("rule %q: nil condition", r.Name)
		}
	}
	for _, r := range c.Cascades {
		if err := check(r.Name, r.Multiplier, r.EventTypes); err != nil {
			return err
		}
		if len(r.Conditions) == 0 {
			return fmt.Errorf("rule %q: no conditions", r.Name)
		}
		if r.MinConditionsMet < 1 || r.MinConditionsMet > len(r.Conditions) {
			return fmt.Errorf("rule %q: min conditions met %d out of range 1..%d",
				r.Name, r.MinConditionsMet, len(r.Conditions))
		}
		for i, cond := range r.Conditions {
			if cond == nil {
				return fmt.Errorf("rule %q: nil condition at index %d", r.Name, i)
			}
		}
	}
	return nil
}
