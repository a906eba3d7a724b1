// Package content produces the narrative payload for triggered security
// events: type selection, severity, headline, summary, impact figures, and
// a threat actor profile. Generation is fully procedural so the engine
// works without any external narrative service.
package content

import (
	"context"
	"fmt"
	"math"

	"github.com/calderasim/flashpoint/internal/entropy"
	"github.com/calderasim/flashpoint/internal/secevent"
	"github.com/calderasim/flashpoint/internal/trigger"
)

// Generator is the built-in ContentGenerator. It picks an event type from
// the eligible set, grades severity by how hard the rules fired, and dresses
// the event from per-type narrative pools.
type Generator struct {
	rand entropy.Source
}

var _ trigger.ContentGenerator = (*Generator)(nil)

// NewGenerator builds a generator. A nil source falls back to crypto
// entropy.
func NewGenerator(rand entropy.Source) *Generator {
	if rand == nil {
		rand = entropy.Crypto()
	}
	return &Generator{rand: rand}
}

// Generate picks one eligible type and fills in the narrative. It returns
// (nil, nil) when no eligible type has a profile, which the orchestrator
// treats as a clean no-event outcome rather than a fault.
func (g *Generator) Generate(ctx context.Context, req trigger.ContentRequest) (*trigger.EventContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var candidates []secevent.Type
	for _, t := range req.EligibleTypes {
		if _, ok := profiles[t]; ok {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	t := candidates[g.intn(len(candidates))]
	p := profiles[t]

	severity := g.rollSeverity(req.Multiplier)
	scale := severityScale[severity]

	actor := &secevent.ThreatActor{
		Name:       g.pick(p.actorNames),
		Kind:       g.pick(p.actorKinds),
		Origin:     "domestic",
		Motivation: g.pick(p.motivations),
	}
	if g.rand.Float() < p.foreignOdds {
		actor.Origin = "foreign"
	}

	return &trigger.EventContent{
		Type:               t,
		Severity:           severity,
		Title:              g.pick(p.titles),
		Summary:            fmt.Sprintf(g.pick(p.summaries), actor.Name),
		Casualties:         int(math.Round(g.randRange(p.casualties) * scale)),
		EconomicImpactMUSD: round1(g.randRange(p.economicMUSD) * scale),
		StabilityImpact:    -round1(g.randRange(p.stabilityHit) * scale),
		Actor:              actor,
	}, nil
}

// rollSeverity grades the event. Stronger multipliers mean the country's
// gauges were further into the red, so the distribution shifts toward high
// and critical.
func (g *Generator) rollSeverity(multiplier float64) secevent.Severity {
	r := g.rand.Float()
	switch {
	case multiplier >= 4.0:
		switch {
		case r < 0.05:
			return secevent.SeverityLow
		case r < 0.30:
			return secevent.SeverityMedium
		case r < 0.75:
			return secevent.SeverityHigh
		default:
			return secevent.SeverityCritical
		}
	case multiplier >= 2.5:
		switch {
		case r < 0.15:
			return secevent.SeverityLow
		case r < 0.55:
			return secevent.SeverityMedium
		case r < 0.90:
			return secevent.SeverityHigh
		default:
			return secevent.SeverityCritical
		}
	default:
		switch {
		case r < 0.35:
			return secevent.SeverityLow
		case r < 0.80:
			return secevent.SeverityMedium
		case r < 0.97:
			return secevent.SeverityHigh
		default:
			return secevent.SeverityCritical
		}
	}
}

func (g *Generator) intn(n int) int {
	i := int(g.rand.Float() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func (g *Generator) pick(pool []string) string {
	return pool[g.intn(len(pool))]
}

func (g *Generator) randRange(r [2]float64) float64 {
	return r[0] + g.rand.Float()*(r[1]-r[0])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// severityScale stretches the medium-severity impact bands per grade.
var severityScale = map[secevent.Severity]float64{
	secevent.SeverityLow:      0.25,
	secevent.SeverityMedium:   1.0,
	secevent.SeverityHigh:     2.5,
	secevent.SeverityCritical: 6.0,
}

// profile holds one event type's narrative pools and medium-severity impact
// bands. Summaries carry exactly one %s for the actor name.
type profile struct {
	titles       []string
	summaries    []string
	actorKinds   []string
	actorNames   []string
	motivations  []string
	foreignOdds  float64
	casualties   [2]float64
	economicMUSD [2]float64
	stabilityHit [2]float64
}

var profiles = map[secevent.Type]profile{
	secevent.TypeTerrorism: {
		titles: []string{
			"Coordinated bombing strikes crowded transit hub",
			"Suicide attack hits security checkpoint",
			"Car bomb detonates outside government complex",
			"Gunmen storm hotel district in coordinated assault",
		},
		summaries: []string{
			"Initial claims of responsibility point to %s; casualty figures are still being reconciled across hospitals.",
			"%s claimed the attack within hours and warned of further operations against state targets.",
			"Investigators recovered materials linking the cell to %s, raising fears of a wider network.",
		},
		actorKinds: []string{"organization", "cell", "cell"},
		actorNames: []string{
			"Sons of the Red Dawn", "Martyrs of the Sixth Flame", "National Purification Front",
			"The Covenant of Ash", "Black September Revival", "Legion of the Forgotten",
		},
		motivations:  []string{"sectarian", "separatist", "anti-government", "ideological"},
		foreignOdds:  0.35,
		casualties:   [2]float64{5, 40},
		economicMUSD: [2]float64{10, 120},
		stabilityHit: [2]float64{1.5, 4},
	},
	secevent.TypeInsurgency: {
		titles: []string{
			"Armed fighters overrun provincial garrison",
			"Insurgent column seizes highway junction town",
			"Rebel cell ambushes army patrol in the highlands",
		},
		summaries: []string{
			"Fighters aligned with %s held the position for hours before regular forces counterattacked.",
			"%s released footage of captured materiel and called on local units to defect.",
			"The ambush bears the signature of %s, which has been expanding from its rural strongholds.",
		},
		actorKinds: []string{"organization"},
		actorNames: []string{
			"People's Liberation Vanguard", "Free Highlands Army", "Revolutionary Unity Command",
			"The Mountain Brigades", "Popular Resistance Front",
		},
		motivations:  []string{"separatist", "anti-government", "ethnic autonomy", "ideological"},
		foreignOdds:  0.25,
		casualties:   [2]float64{8, 60},
		economicMUSD: [2]float64{15, 150},
		stabilityHit: [2]float64{2, 5},
	},
	secevent.TypeCyberAttack: {
		titles: []string{
			"Ransomware cripples national payment backbone",
			"Intrusion takes power grid operators offline",
			"Data wipe hits government identity registry",
		},
		summaries: []string{
			"Forensics attribute the intrusion to %s based on tooling overlap with earlier campaigns.",
			"%s posted proof-of-access hours before systems began failing, demanding concessions.",
			"Recovery teams estimate weeks of degraded service; %s is the leading suspect.",
		},
		actorKinds: []string{"cell", "state_proxy", "state_proxy"},
		actorNames: []string{
			"Null Sector", "Ghost Protocol Collective", "Unit 77", "Crimson Lotus Group",
			"The Basilisk Syndicate", "Zero Horizon",
		},
		motivations:  []string{"economic", "foreign interference", "ideological", "extortion"},
		foreignOdds:  0.65,
		casualties:   [2]float64{0, 2},
		economicMUSD: [2]float64{40, 400},
		stabilityHit: [2]float64{1, 3},
	},
	secevent.TypeCivilUnrest: {
		titles: []string{
			"Mass protests spiral into street battles",
			"General strike paralyzes the capital",
			"Riots erupt after fuel subsidy cut",
			"Security forces fire on crowds outside parliament",
		},
		summaries: []string{
			"Marches organized by %s swelled past policing capacity before nightfall.",
			"%s called the action open-ended, and neighborhood committees are building barricades.",
			"What began as a rally led by %s turned violent after a disputed arrest.",
		},
		actorKinds: []string{"organization"},
		actorNames: []string{
			"October Bloc", "United Streets Movement", "Committee of Public Grievances",
			"The General Assembly", "Bread and Lights Coalition",
		},
		motivations:  []string{"economic", "anti-government", "electoral grievance"},
		foreignOdds:  0.1,
		casualties:   [2]float64{2, 25},
		economicMUSD: [2]float64{20, 200},
		stabilityHit: [2]float64{1.5, 4},
	},
	secevent.TypeCoupAttempt: {
		titles: []string{
			"Army faction moves on the presidential palace",
			"Officers seize state broadcaster in pre-dawn putsch",
			"Palace guard splits as plotters detain ministers",
		},
		summaries: []string{
			"A communique from %s declared the constitution suspended; loyalist units are converging on the capital.",
			"%s claims control of key ministries, though the president's whereabouts are disputed.",
			"The plot traced to %s collapsed within hours, but the officer corps is visibly fractured.",
		},
		actorKinds: []string{"organization", "cell"},
		actorNames: []string{
			"Council of National Salvation", "The Patriotic Officers' Circle",
			"Committee for the Restoration of Order", "Third Army Directorate",
		},
		motivations:  []string{"anti-government", "factional", "ideological"},
		foreignOdds:  0.2,
		casualties:   [2]float64{3, 30},
		economicMUSD: [2]float64{50, 500},
		stabilityHit: [2]float64{3, 8},
	},
	secevent.TypeOrganizedCrime: {
		titles: []string{
			"Cartel gunmen execute rivals in daylight ambush",
			"Port seizure exposes industrial-scale smuggling ring",
			"Crime syndicate assassinates lead prosecutor",
		},
		summaries: []string{
			"The killings mark a new phase in %s's push to control the corridor.",
			"Dock manifests tie the operation to %s, which has been buying influence in the port authority.",
			"%s had been named in sealed indictments due to be unsealed this month.",
		},
		actorKinds: []string{"organization"},
		actorNames: []string{
			"The Harbor Cartel", "Ninth Circle Syndicate", "Sombra Network",
			"The Ledger Brotherhood", "Kessler Ring",
		},
		motivations:  []string{"economic", "territorial", "extortion"},
		foreignOdds:  0.3,
		casualties:   [2]float64{2, 20},
		economicMUSD: [2]float64{10, 100},
		stabilityHit: [2]float64{1, 3},
	},
	secevent.TypeBorderIncident: {
		titles: []string{
			"Cross-border shelling wounds frontier villagers",
			"Armed incursion probes northern frontier posts",
			"Patrol clash escalates along disputed boundary",
		},
		summaries: []string{
			"Border command blames %s for the incursion; reinforcements are moving to the sector.",
			"Intercepted communications suggest %s staged the raid to test response times.",
			"The exchange follows weeks of provocation attributed to %s along the demarcation line.",
		},
		actorKinds: []string{"state_proxy", "organization"},
		actorNames: []string{
			"Frontier Wolves", "42nd Irregular Battalion", "The Borderland Command",
			"Gray Line Detachment",
		},
		motivations:  []string{"territorial", "foreign interference", "resource control"},
		foreignOdds:  0.8,
		casualties:   [2]float64{1, 15},
		economicMUSD: [2]float64{5, 60},
		stabilityHit: [2]float64{1, 3},
	},
	secevent.TypeAssassination: {
		titles: []string{
			"Opposition figure gunned down outside rally",
			"Car bomb kills senior justice official",
			"Sniper kills regional governor at public ceremony",
		},
		summaries: []string{
			"Early evidence points to a hit arranged by %s, though no claim has been made.",
			"%s denied involvement even as its slogans appeared at the scene.",
			"The victim had received threats traced to %s for months before the killing.",
		},
		actorKinds: []string{"lone_actor", "cell", "organization"},
		actorNames: []string{
			"The Quiet Hand", "Order of the Final Writ", "Directorate K",
			"The Vindicators", "Silent Accord",
		},
		motivations:  []string{"political", "sectarian", "factional", "foreign interference"},
		foreignOdds:  0.4,
		casualties:   [2]float64{1, 6},
		economicMUSD: [2]float64{5, 50},
		stabilityHit: [2]float64{2, 5},
	},
}
