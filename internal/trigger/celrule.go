package trigger

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// Custom rule kinds accepted in configuration.
const (
	KindThreshold = "threshold"
	KindCascade   = "cascade"
)

// CustomRuleSpec is an operator-defined rule loaded from configuration.
// Conditions are CEL expressions over the snapshot's metric groups, e.g.
//
//	stability.stability_score < 30.0 && politics.corruption > 70.0
//
// Threshold specs carry one expression; cascade specs carry several plus
// the minimum that must hold.
type CustomRuleSpec struct {
	Name             string          `koanf:"name" json:"name"`
	Description      string          `koanf:"description" json:"description"`
	Kind             string          `koanf:"kind" json:"kind"`
	Expression       string          `koanf:"expression" json:"expression,omitempty"`
	Expressions      []string        `koanf:"expressions" json:"expressions,omitempty"`
	MinConditionsMet int             `koanf:"min_conditions_met" json:"min_conditions_met,omitempty"`
	Multiplier       float64         `koanf:"multiplier" json:"multiplier"`
	EventTypes       []secevent.Type `koanf:"event_types" json:"event_types"`
}

func (s CustomRuleSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("custom rule with empty name")
	}
	if s.Multiplier < 1.0 {
		return fmt.Errorf("custom rule %q: multiplier %.2f below 1.0", s.Name, s.Multiplier)
	}
	if len(s.EventTypes) == 0 {
		return fmt.Errorf("custom rule %q: no event types", s.Name)
	}
	for _, t := range s.EventTypes {
		if !secevent.KnownType(t) {
			return fmt.Errorf("custom rule %q: unknown event type %q", s.Name, t)
		}
	}
	switch s.Kind {
	case KindThreshold:
		if s.Expression == "" {
			return fmt.Errorf("custom rule %q: threshold rule needs an expression", s.Name)
		}
	case KindCascade:
		if len(s.Expressions) == 0 {
			return fmt.Errorf("custom rule %q: cascade rule needs expressions", s.Name)
		}
		if s.MinConditionsMet < 1 || s.MinConditionsMet > len(s.Expressions) {
			return fmt.Errorf("custom rule %q: min conditions met %d out of range 1..%d",
				s.Name, s.MinConditionsMet, len(s.Expressions))
		}
	default:
		return fmt.Errorf("custom rule %q: unknown kind %q", s.Name, s.Kind)
	}
	return nil
}

// CompileCustomRules type-checks and compiles operator-defined rules into
// catalog rules. Compilation failures are configuration errors and abort
// startup; runtime evaluation errors inside a compiled expression are
// treated as condition-not-met, matching the builtin defect policy.
func CompileCustomRules(specs []CustomRuleSpec) ([]ThresholdRule, []CascadeRule, error) {
	if len(specs) == 0 {
		return nil, nil, nil
	}
	env, err := newRuleEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("build rule environment: %w", err)
	}

	var thresholds []ThresholdRule
	var cascades []CascadeRule
	for _, spec := range specs {
		if err := spec.validate(); err != nil {
			return nil, nil, err
		}
		switch spec.Kind {
		case KindThreshold:
			cond, err := compileCondition(env, spec.Name, spec.Expression)
			if err != nil {
				return nil, nil, err
			}
			thresholds = append(thresholds, ThresholdRule{
				Name:        spec.Name,
				Description: spec.Description,
				EventTypes:  spec.EventTypes,
				Multiplier:  spec.Multiplier,
				Condition:   cond,
			})
		case KindCascade:
			conds := make([]Condition, 0, len(spec.Expressions))
			for i, expr := range spec.Expressions {
				cond, err := compileCondition(env, fmt.Sprintf("%s[%d]", spec.Name, i), expr)
				if err != nil {
					return nil, nil, err
				}
				conds = append(conds, cond)
			}
			cascades = append(cascades, CascadeRule{
				Name:             spec.Name,
				Description:      spec.Description,
				EventTypes:       spec.EventTypes,
				Multiplier:       spec.Multiplier,
				MinConditionsMet: spec.MinConditionsMet,
				Conditions:       conds,
			})
		}
	}
	return thresholds, cascades, nil
}

// newRuleEnv declares one CEL variable per snapshot metric group. Dyn
// typing keeps expressions free of casts while the activation stays a
// plain map.
func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("stability", cel.DynType),
		cel.Variable("military", cel.DynType),
		cel.Variable("economy", cel.DynType),
		cel.Variable("politics", cel.DynType),
		cel.Variable("recent", cel.DynType),
	)
}

func compileCondition(env *cel.Env, name, expr string) (Condition, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("custom rule %q: compile: %w", name, issues.Err())
	}
	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10_000),
	)
	if err != nil {
		return nil, fmt.Errorf("custom rule %q: program: %w", name, err)
	}
	return func(snap country.Snapshot) bool {
		out, _, err := prg.Eval(snapshotActivation(snap))
		if err != nil {
			slog.Warn("custom rule evaluation failed, treated as not met",
				"rule", name, "country", snap.CountryID, "error", err)
			return false
		}
		held, ok := out.Value().(bool)
		if !ok {
			slog.Warn("custom rule returned non-boolean, treated as not met",
				"rule", name, "country", snap.CountryID)
			return false
		}
		return held
	}, nil
}

// snapshotActivation flattens a snapshot into the CEL activation. Keys
// mirror the snapshot's JSON field names so rule authors can read them off
// the API.
func snapshotActivation(s country.Snapshot) map[string]any {
	return map[string]any{
		"stability": map[string]any{
			"stability_score":       s.Stability.StabilityScore,
			"crime_rate":            s.Stability.CrimeRate,
			"organized_crime_level": s.Stability.OrganizedCrimeLevel,
			"riot_risk":             s.Stability.RiotRisk,
			"ethnic_tension":        s.Stability.EthnicTension,
			"protest_frequency":     s.Stability.ProtestFrequency,
			"trust_in_government":   s.Stability.TrustInGovernment,
			"social_cohesion":       s.Stability.SocialCohesion,
		},
		"military": map[string]any{
			"average_readiness": s.Military.AverageReadiness,
			"military_strength": s.Military.MilitaryStrength,
			"border_security":   s.Military.BorderSecurity,
			"counter_terrorism": s.Military.CounterTerrorism,
			"cybersecurity":     s.Military.Cybersecurity,
		},
		"economy": map[string]any{
			"gdp_per_capita":    s.Economy.GDPPerCapita,
			"unemployment_rate": s.Economy.UnemploymentRate,
			"inequality_gini":   s.Economy.InequalityGini,
			"poverty_rate":      s.Economy.PovertyRate,
			"economic_growth":   s.Economy.EconomicGrowth,
		},
		"politics": map[string]any{
			"democracy_level":     s.Politics.DemocracyLevel,
			"political_stability": s.Politics.PoliticalStability,
			"corruption":          s.Politics.Corruption,
			"polarization":        s.Politics.Polarization,
		},
		"recent": map[string]any{
			"events_last_30_days":             s.RecentEvents.EventsLast30Days,
			"major_crises_last_90_days":       s.RecentEvents.MajorCrisesLast90Days,
			"successful_attacks_last_90_days": s.RecentEvents.SuccessfulAttacksLast90Days,
		},
	}
}
