// Package trigger implements the security event trigger engine: a versioned
// rule catalog evaluated against country snapshots, probability composition,
// cooldown guarding, per-country orchestration, and batch fan-out.
package trigger

import (
	"fmt"
	"log/slog"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

// Condition is a pure predicate over a country snapshot. Conditions must be
// deterministic and side-effect-free; composition happens in the evaluator,
// never between rules.
type Condition func(country.Snapshot) bool

// ThresholdRule fires whenever its single condition holds, amplifying the
// base trigger probability by Multiplier and making EventTypes eligible.
type ThresholdRule struct {
	Name        string
	Description string
	EventTypes  []secevent.Type
	Multiplier  float64
	Condition   Condition
}

// Fires reports whether the rule's condition holds for snap. A panicking
// condition counts as not met.
func (r ThresholdRule) Fires(snap country.Snapshot) bool {
	return safeEval(r.Name, r.Condition, snap)
}

// CascadeRule fires when at least MinConditionsMet of its conditions hold
// simultaneously, modeling compounding crises. Cascade multipliers exceed
// the threshold multipliers they overlap with.
type CascadeRule struct {
	Name             string
	Description      string
	EventTypes       []secevent.Type
	Multiplier       float64
	MinConditionsMet int
	Conditions       []Condition
}

// MetCount returns how many of the rule's conditions hold for snap.
func (r CascadeRule) MetCount(snap country.Snapshot) int {
	met := 0
	for i, cond := range r.Conditions {
		if safeEval(fmt.Sprintf("%s[%d]", r.Name, i), cond, snap) {
			met++
		}
	}
	return met
}

// Fires reports whether enough conditions hold.
func (r CascadeRule) Fires(snap country.Snapshot) bool {
	return r.MetCount(snap) >= r.MinConditionsMet
}

// safeEval runs one condition, treating a panic as condition-not-met so a
// single defective rule cannot suppress evaluation of the rest of the
// catalog.
func safeEval(ruleName string, cond Condition, snap country.Snapshot) (met bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("rule condition panicked, treated as not met",
				"rule", ruleName, "country", snap.CountryID, "panic", r)
			met = false
		}
	}()
	if cond == nil {
		return false
	}
	return cond(snap)
}
