package country

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APISource assembles snapshots from the platform's country API. Metrics
// the platform does not report come back as JSON nulls and are overlaid on
// Neutral defaults, so partial data never reads as a crisis or as perfect
// health.
type APISource struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewAPISource targets the given platform base URL. A zero timeout means
// 10 seconds.
func NewAPISource(baseURL, apiKey string, timeout time.Duration) *APISource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &APISource{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Countries lists the simulation roster.
func (s *APISource) Countries(ctx context.Context) ([]ID, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	if err := s.fetchJSON(ctx, "/api/v1/countries", &rows); err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	ids := make([]ID, 0, len(rows))
	for _, r := range rows {
		if r.ID != "" {
			ids = append(ids, ID(r.ID))
		}
	}
	return ids, nil
}

// Snapshot fetches one country's metric bundle.
func (s *APISource) Snapshot(ctx context.Context, id ID) (Snapshot, error) {
	var w wireSnapshot
	path := "/api/v1/countries/" + url.PathEscape(string(id)) + "/snapshot"
	if err := s.fetchJSON(ctx, path, &w); err != nil {
		return Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", id, err)
	}
	return w.overlay(id), nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (s *APISource) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Wire types use pointers so a null or missing metric is distinguishable
// from a reported zero.
type wireSnapshot struct {
	Stability *wireStability `json:"stability"`
	Military  *wireMilitary  `json:"military"`
	Economy   *wireEconomy   `json:"economy"`
	Politics  *wirePolitics  `json:"politics"`
	Recent    *wireRecent    `json:"recent_events"`
}

type wireStability struct {
	StabilityScore      *float64 `json:"stability_score"`
	CrimeRate           *float64 `json:"crime_rate"`
	OrganizedCrimeLevel *float64 `json:"organized_crime_level"`
	RiotRisk            *float64 `json:"riot_risk"`
	EthnicTension       *float64 `json:"ethnic_tension"`
	ProtestFrequency    *float64 `json:"protest_frequency"`
	TrustInGovernment   *float64 `json:"trust_in_government"`
	SocialCohesion      *float64 `json:"social_cohesion"`
}

type wireMilitary struct {
	AverageReadiness *float64 `json:"average_readiness"`
	MilitaryStrength *float64 `json:"military_strength"`
	BorderSecurity   *float64 `json:"border_security"`
	CounterTerrorism *float64 `json:"counter_terrorism"`
	Cybersecurity    *float64 `json:"cybersecurity"`
}

type wireEconomy struct {
	GDPPerCapita     *float64 `json:"gdp_per_capita"`
	UnemploymentRate *float64 `json:"unemployment_rate"`
	InequalityGini   *float64 `json:"inequality_gini"`
	PovertyRate      *float64 `json:"poverty_rate"`
	EconomicGrowth   *float64 `json:"economic_growth"`
}

type wirePolitics struct {
	DemocracyLevel     *float64 `json:"democracy_level"`
	PoliticalStability *float64 `json:"political_stability"`
	Corruption         *float64 `json:"corruption"`
	Polarization       *float64 `json:"polarization"`
}

type wireRecent struct {
	EventsLast30Days            *int `json:"events_last_30_days"`
	MajorCrisesLast90Days       *int `json:"major_crises_last_90_days"`
	SuccessfulAttacksLast90Days *int `json:"successful_attacks_last_90_days"`
}

// overlay applies every reported metric on top of the neutral snapshot.
func (w wireSnapshot) overlay(id ID) Snapshot {
	snap := Neutral(id)

	if s := w.Stability; s != nil {
		setF(&snap.Stability.StabilityScore, s.StabilityScore)
		setF(&snap.Stability.CrimeRate, s.CrimeRate)
		setF(&snap.Stability.OrganizedCrimeLevel, s.OrganizedCrimeLevel)
		setF(&snap.Stability.RiotRisk, s.RiotRisk)
		setF(&snap.Stability.EthnicTension, s.EthnicTension)
		setF(&snap.Stability.ProtestFrequency, s.ProtestFrequency)
		setF(&snap.Stability.TrustInGovernment, s.TrustInGovernment)
		setF(&snap.Stability.SocialCohesion, s.SocialCohesion)
	}
	if m := w.Military; m != nil {
		setF(&snap.Military.AverageReadiness, m.AverageReadiness)
		setF(&snap.Military.MilitaryStrength, m.MilitaryStrength)
		setF(&snap.Military.BorderSecurity, m.BorderSecurity)
		setF(&snap.Military.CounterTerrorism, m.CounterTerrorism)
		setF(&snap.Military.Cybersecurity, m.Cybersecurity)
	}
	if e := w.Economy; e != nil {
		setF(&snap.Economy.GDPPerCapita, e.GDPPerCapita)
		setF(&snap.Economy.UnemploymentRate, e.UnemploymentRate)
		setF(&snap.Economy.InequalityGini, e.InequalityGini)
		setF(&snap.Economy.PovertyRate, e.PovertyRate)
		setF(&snap.Economy.EconomicGrowth, e.EconomicGrowth)
	}
	if p := w.Politics; p != nil {
		setF(&snap.Politics.DemocracyLevel, p.DemocracyLevel)
		setF(&snap.Politics.PoliticalStability, p.PoliticalStability)
		setF(&snap.Politics.Corruption, p.Corruption)
		setF(&snap.Politics.Polarization, p.Polarization)
	}
	if r := w.Recent; r != nil {
		setI(&snap.RecentEvents.EventsLast30Days, r.EventsLast30Days)
		setI(&snap.RecentEvents.MajorCrisesLast90Days, r.MajorCrisesLast90Days)
		setI(&snap.RecentEvents.SuccessfulAttacksLast90Days, r.SuccessfulAttacksLast90Days)
	}
	return snap
}

func setF(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setI(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
