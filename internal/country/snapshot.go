// Package country defines the per-country context snapshot the trigger
// engine evaluates, plus the sources that assemble snapshots from
// collaborators.
package country

// ID is an opaque country identifier assigned by the platform.
type ID string

// Snapshot is the complete read-only metric bundle for one country at
// evaluation time. It is rebuilt every cycle by a SnapshotSource and is
// never mutated by the engine. All gauges are finite; absent upstream data
// is replaced with neutral defaults by the source, never by the engine.
type Snapshot struct {
	CountryID ID `json:"country_id"`

	Stability    Stability    `json:"stability"`
	Military     Military     `json:"military"`
	Economy      Economy      `json:"economy"`
	Politics     Politics     `json:"politics"`
	RecentEvents RecentEvents `json:"recent_events"`
}

// Stability holds internal-security gauges. All 0–100 except CrimeRate,
// which is a raw per-100k figure (typically 0–2000).
type Stability struct {
	StabilityScore      float64 `json:"stability_score"`
	CrimeRate           float64 `json:"crime_rate"`
	OrganizedCrimeLevel float64 `json:"organized_crime_level"`
	RiotRisk            float64 `json:"riot_risk"`
	EthnicTension       float64 `json:"ethnic_tension"`
	ProtestFrequency    float64 `json:"protest_frequency"`
	TrustInGovernment   float64 `json:"trust_in_government"`
	SocialCohesion      float64 `json:"social_cohesion"`
}

// Military holds defense-posture gauges, 0–100.
type Military struct {
	AverageReadiness float64 `json:"average_readiness"`
	MilitaryStrength float64 `json:"military_strength"`
	BorderSecurity   float64 `json:"border_security"`
	CounterTerrorism float64 `json:"counter_terrorism"`
	Cybersecurity    float64 `json:"cybersecurity"`
}

// Economy holds macroeconomic gauges on their natural scales.
type Economy struct {
	GDPPerCapita     float64 `json:"gdp_per_capita"`
	UnemploymentRate float64 `json:"unemployment_rate"`
	InequalityGini   float64 `json:"inequality_gini"`
	PovertyRate      float64 `json:"poverty_rate"`
	EconomicGrowth   float64 `json:"economic_growth"`
}

// Politics holds governance gauges, 0–100.
type Politics struct {
	DemocracyLevel     float64 `json:"democracy_level"`
	PoliticalStability float64 `json:"political_stability"`
	Corruption         float64 `json:"corruption"`
	Polarization       float64 `json:"polarization"`
}

// RecentEvents holds derived counters over trailing windows, maintained by
// the platform rather than recomputed from raw history.
type RecentEvents struct {
	EventsLast30Days            int `json:"events_last_30_days"`
	MajorCrisesLast90Days       int `json:"major_crises_last_90_days"`
	SuccessfulAttacksLast90Days int `json:"successful_attacks_last_90_days"`
}

// Neutral returns a snapshot populated with neutral defaults: values that
// sit comfortably inside every healthy band, so a country with missing
// upstream data neither trips rules nor suppresses them. Sources overlay
// whatever the platform actually reports on top of this.
func Neutral(id ID) Snapshot {
	return Snapshot{
		CountryID: id,
		Stability: Stability{
			StabilityScore:      50,
			CrimeRate:           250,
			OrganizedCrimeLevel: 30,
			RiotRisk:            20,
			EthnicTension:       30,
			ProtestFrequency:    20,
			TrustInGovernment:   50,
			SocialCohesion:      50,
		},
		Military: Military{
			AverageReadiness: 65,
			MilitaryStrength: 50,
			BorderSecurity:   55,
			CounterTerrorism: 50,
			Cybersecurity:    50,
		},
		Economy: Economy{
			GDPPerCapita:     12000,
			UnemploymentRate: 6,
			InequalityGini:   35,
			PovertyRate:      15,
			EconomicGrowth:   2,
		},
		Politics: Politics{
			DemocracyLevel:     50,
			PoliticalStability: 50,
			Corruption:         40,
			Polarization:       40,
		},
	}
}
