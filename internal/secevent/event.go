// Package secevent defines the security event records the trigger engine
// emits and the vocabulary (types, severities, statuses) shared by the rule
// catalog, the content generator, persistence, and notifications.
package secevent

import (
	"time"

	"github.com/calderasim/flashpoint/internal/country"
)

// Type tags a security event category. Rules declare which types they make
// eligible; the content generator picks one from the eligible set.
type Type string

const (
	TypeTerrorism      Type = "terrorism"
	TypeInsurgency     Type = "insurgency"
	TypeCyberAttack    Type = "cyber_attack"
	TypeCivilUnrest    Type = "civil_unrest"
	TypeCoupAttempt    Type = "coup_attempt"
	TypeOrganizedCrime Type = "organized_crime"
	TypeBorderIncident Type = "border_incident"
	TypeAssassination  Type = "assassination"
)

// AllTypes lists every built-in event type in a stable order.
func AllTypes() []Type {
	return []Type{
		TypeTerrorism,
		TypeInsurgency,
		TypeCyberAttack,
		TypeCivilUnrest,
		TypeCoupAttempt,
		TypeOrganizedCrime,
		TypeBorderIncident,
		TypeAssassination,
	}
}

// KnownType reports whether t is one of the built-in event types.
func KnownType(t Type) bool {
	for _, k := range AllTypes() {
		if t == k {
			return true
		}
	}
	return false
}

// Severity grades an event's intensity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status tracks an event's lifecycle. The engine only ever writes "active";
// downstream systems advance it.
type Status string

const (
	StatusActive    Status = "active"
	StatusContained Status = "contained"
	StatusResolved  Status = "resolved"
)

// Event is one persisted security event. TriggerFactors records the names of
// the rules that fired when the event was generated, for audit.
type Event struct {
	ID                 string     `json:"id"`
	CountryID          country.ID `json:"country_id"`
	Type               Type       `json:"event_type"`
	Severity           Severity   `json:"severity"`
	Title              string     `json:"title"`
	Summary            string     `json:"summary,omitempty"`
	Casualties         int        `json:"casualties"`
	EconomicImpactMUSD float64    `json:"economic_impact_musd"`
	StabilityImpact    float64    `json:"stability_impact"`
	Status             Status     `json:"status"`
	TriggerFactors     []string   `json:"trigger_factors"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ThreatActor is the profile attached to a generated event. The engine
// treats it as opaque content; it is produced by the content generator and
// carried through outcomes and notifications.
type ThreatActor struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`   // "organization", "cell", "lone_actor", "state_proxy"
	Origin     string `json:"origin"` // "domestic" or "foreign"
	Motivation string `json:"motivation,omitempty"`
}
