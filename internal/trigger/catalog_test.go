package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/secevent"
)

func TestBuiltinCatalogIsValid(t *testing.T) {
	cat := Builtin()
	require.NoError(t, cat.Validate())
	assert.GreaterOrEqual(t, len(cat.Thresholds), 10)
	assert.GreaterOrEqual(t, len(cat.Cascades), 4)
	assert.Equal(t, BuiltinCatalogVersion, cat.Version)
}

// Every cascade must out-multiply the threshold rules it shares event types
// with, so a compounding crisis always dominates composition.
func TestCascadesDominateOverlappingThresholds(t *testing.T) {
	cat := Builtin()
	for _, c := range cat.Cascades {
		cascadeTypes := make(map[secevent.Type]bool)
		for _, ty := range c.EventTypes {
			cascadeTypes[ty] = true
		}
		for _, th := range cat.Thresholds {
			overlaps := false
			for _, ty := range th.EventTypes {
				if cascadeTypes[ty] {
					overlaps = true
					break
				}
			}
			if overlaps {
				assert.Greater(t, c.Multiplier, th.Multiplier,
					"cascade %s must exceed overlapping threshold %s", c.Name, th.Name)
			}
		}
	}
}

func TestCatalogValidateRejectsDefects(t *testing.T) {
	base := Builtin()

	cases := []struct {
		name   string
		mutate func(*Catalog)
	}{
		{"empty name", func(c *Catalog) { c.Thresholds[0].Name = "" }},
		{"duplicate name", func(c *Catalog) { c.Thresholds[1].Name = c.Thresholds[0].Name }},
		{"multiplier below 1", func(c *Catalog) { c.Thresholds[0].Multiplier = 0.5 }},
		{"no event types", func(c *Catalog) { c.Thresholds[0].EventTypes = nil }},
		{"nil condition", func(c *Catalog) { c.Thresholds[0].Condition = nil }},
		{"cascade no conditions", func(c *Catalog) { c.Cascades[0].Conditions = nil }},
		{"min met zero", func(c *Catalog) { c.Cascades[0].MinConditionsMet = 0 }},
		{"min met too high", func(c *Catalog) {
			c.Cascades[0].MinConditionsMet = len(c.Cascades[0].Conditions) + 1
		}},
		{"cascade nil condition", func(c *Catalog) { c.Cascades[0].Conditions[1] = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := Builtin()
			tc.mutate(&cat)
			assert.Error(t, cat.Validate())
		})
	}

	// The unmutated catalog stays valid throughout.
	require.NoError(t, base.Validate())
}

func TestEligibleTypesDeduplicatesInCatalogOrder(t *testing.T) {
	cat := Builtin()

	// critical-instability and political-crisis share civil_unrest and
	// coup_attempt; the union must list each type once, first-seen order.
	types := cat.EligibleTypes([]string{"critical-instability", "political-crisis"})
	assert.Equal(t, []secevent.Type{
		secevent.TypeCivilUnrest,
		secevent.TypeCoupAttempt,
		secevent.TypeInsurgency,
		secevent.TypeAssassination,
	}, types)

	assert.Nil(t, cat.EligibleTypes(nil))
	assert.Nil(t, cat.EligibleTypes([]string{"no-such-rule"}))
}

func TestExtendAppendsAndTagsVersion(t *testing.T) {
	cat := Builtin()
	extra := ThresholdRule{
		Name:       "custom-rule",
		EventTypes: []secevent.Type{secevent.TypeTerrorism},
		Multiplier: 1.5,
		Condition:  func(s country.Snapshot) bool { return false },
	}

	out := cat.Extend([]ThresholdRule{extra}, nil)
	assert.Equal(t, cat.RuleCount()+1, out.RuleCount())
	assert.Equal(t, BuiltinCatalogVersion+"+custom", out.Version)
	require.NoError(t, out.Validate())

	// The original catalog is untouched.
	assert.Equal(t, BuiltinCatalogVersion, cat.Version)
	assert.Len(t, cat.Thresholds, len(out.Thresholds)-1)

	// Extending with nothing keeps the version clean.
	same := cat.Extend(nil, nil)
	assert.Equal(t, BuiltinCatalogVersion, same.Version)
}

func TestPanickingConditionCountsAsNotMet(t *testing.T) {
	broken := ThresholdRule{
		Name:       "broken",
		EventTypes: []secevent.Type{secevent.TypeTerrorism},
		Multiplier: 2.0,
		Condition:  func(s country.Snapshot) bool { panic("boom") },
	}
	assert.False(t, broken.Fires(country.Neutral("x")))

	cascade := CascadeRule{
		Name:             "half-broken",
		EventTypes:       []secevent.Type{secevent.TypeTerrorism},
		Multiplier:       2.0,
		MinConditionsMet: 1,
		Conditions: []Condition{
			func(s country.Snapshot) bool { panic("boom") },
			func(s country.Snapshot) bool { return true },
		},
	}
	// The panicking condition is skipped, the healthy one still counts.
	assert.Equal(t, 1, cascade.MetCount(country.Neutral("x")))
	assert.True(t, cascade.Fires(country.Neutral("x")))
}
