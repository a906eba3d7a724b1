// Package sim provides a synthetic world of countries whose gauges drift
// through layered simplex noise. It stands in for the platform API during
// development and drives the wargame tuning harness, where the trigger
// engine needs months of plausible metric movement without a live platform.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/calderasim/flashpoint/internal/country"
)

// countrySpacing decorrelates countries along the noise field's first axis.
const countrySpacing = 7.3

// World generates country snapshots from layered noise. Each country has a
// static fragility drawn from its own noise sample: fragile countries sit
// with low stability centers and high pressure centers, so a realistic
// share of the roster actually trips rules.
type World struct {
	clock *Clock
	start time.Time

	mu  sync.Mutex
	ids []country.ID
	idx map[country.ID]int

	profile   opensimplex.Noise
	stability opensimplex.Noise
	military  opensimplex.Noise
	economy   opensimplex.Noise
	politics  opensimplex.Noise
}

// NewWorld creates a synthetic world of n countries. Seed 0 picks a random
// one. The world's clock starts at start and only moves when Advance is
// called.
func NewWorld(seed int64, n int, start time.Time) *World {
	if seed == 0 {
		seed = rand.Int63()
	}
	if n < 1 {
		n = 1
	}
	if n > len(countryNames) {
		n = len(countryNames)
	}

	rng := rand.New(rand.NewSource(seed))
	names := append([]string(nil), countryNames...)
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	w := &World{
		clock:     NewClock(start),
		start:     start,
		idx:       make(map[country.ID]int, n),
		profile:   opensimplex.NewNormalized(seed),
		stability: opensimplex.NewNormalized(seed + 1),
		military:  opensimplex.NewNormalized(seed + 2),
		economy:   opensimplex.NewNormalized(seed + 3),
		politics:  opensimplex.NewNormalized(seed + 4),
	}
	for i := 0; i < n; i++ {
		id := country.ID(names[i])
		w.ids = append(w.ids, id)
		w.idx[id] = i
	}
	return w
}

// Clock exposes the world's simulated clock so the guard, orchestrator, and
// history store can share it.
func (w *World) Clock() *Clock { return w.clock }

// Advance moves the whole world forward in time.
func (w *World) Advance(d time.Duration) { w.clock.Advance(d) }

// Countries lists the synthetic roster.
func (w *World) Countries(_ context.Context) ([]country.ID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]country.ID(nil), w.ids...), nil
}

// Snapshot samples every gauge at the current simulated instant. The same
// id at the same instant always yields the same snapshot.
func (w *World) Snapshot(_ context.Context, id country.ID) (country.Snapshot, error) {
	w.mu.Lock()
	i, ok := w.idx[id]
	w.mu.Unlock()
	if !ok {
		return country.Snapshot{}, fmt.Errorf("unknown country %q", id)
	}

	x := float64(i) * countrySpacing
	t := w.clock.Now().Sub(w.start).Hours() / 24.0

	// Static fragility in [0,1]; the time axis is pinned so it never moves.
	frag := octave(w.profile, x, 0, 4, 0.15, 0.5)

	snap := country.Neutral(id)

	snap.Stability.StabilityScore = w.gauge(w.stability, x, t, 75-55*frag, 30, 0, 100)
	snap.Stability.CrimeRate = w.gauge(w.stability, x+0.7, t, 150+900*frag, 400, 0, 2000)
	snap.Stability.OrganizedCrimeLevel = w.gauge(w.stability, x+1.4, t, 20+55*frag, 30, 0, 100)
	snap.Stability.RiotRisk = w.gauge(w.stability, x+2.1, t, 10+60*frag, 40, 0, 100)
	snap.Stability.EthnicTension = w.gauge(w.stability, x+2.8, t, 20+55*frag, 35, 0, 100)
	snap.Stability.ProtestFrequency = w.gauge(w.stability, x+3.5, t, 15+50*frag, 35, 0, 100)
	snap.Stability.TrustInGovernment = w.gauge(w.stability, x+4.2, t, 70-50*frag, 30, 0, 100)
	snap.Stability.SocialCohesion = w.gauge(w.stability, x+4.9, t, 70-45*frag, 25, 0, 100)

	snap.Military.AverageReadiness = w.gauge(w.military, x, t, 70-40*frag, 30, 0, 100)
	snap.Military.MilitaryStrength = w.gauge(w.military, x+0.7, t, 50, 40, 0, 100)
	snap.Military.BorderSecurity = w.gauge(w.military, x+1.4, t, 70-45*frag, 30, 0, 100)
	snap.Military.CounterTerrorism = w.gauge(w.military, x+2.1, t, 65-40*frag, 30, 0, 100)
	snap.Military.Cybersecurity = w.gauge(w.military, x+2.8, t, 60-35*frag, 30, 0, 100)

	snap.Economy.GDPPerCapita = w.gauge(w.economy, x, t, 28000-26000*frag, 8000, 300, 90000)
	snap.Economy.UnemploymentRate = w.gauge(w.economy, x+0.7, t, 4+18*frag, 8, 0, 60)
	snap.Economy.InequalityGini = w.gauge(w.economy, x+1.4, t, 30+25*frag, 10, 20, 65)
	snap.Economy.PovertyRate = w.gauge(w.economy, x+2.1, t, 8+45*frag, 15, 0, 90)
	snap.Economy.EconomicGrowth = w.gauge(w.economy, x+2.8, t, 3-5*frag, 6, -10, 12)

	snap.Politics.DemocracyLevel = w.gauge(w.politics, x, t, 70-45*frag, 25, 0, 100)
	snap.Politics.PoliticalStability = w.gauge(w.politics, x+0.7, t, 70-50*frag, 30, 0, 100)
	snap.Politics.Corruption = w.gauge(w.politics, x+1.4, t, 25+50*frag, 25, 0, 100)
	snap.Politics.Polarization = w.gauge(w.politics, x+2.1, t, 30+40*frag, 30, 0, 100)

	// Recent-activity counters: thresholded noise, fragile countries see
	// more of everything.
	act := octave(w.stability, x+5.6, t, 3, 0.25, 0.5)
	snap.RecentEvents.EventsLast30Days = int(act * (2 + 6*frag))
	snap.RecentEvents.MajorCrisesLast90Days = int(act * (1 + 3*frag))
	if act*frag > 0.35 {
		snap.RecentEvents.SuccessfulAttacksLast90Days = 1 + int(act*2)
	}

	return snap, nil
}

// gauge samples one metric: a fragility-derived center plus a noise wobble,
// clamped to the metric's scale.
func (w *World) gauge(n opensimplex.Noise, x, t, center, spread, lo, hi float64) float64 {
	wobble := octave(n, x, t, 3, 0.2, 0.5)
	return clamp(center+(wobble-0.5)*spread, lo, hi)
}

// octave layers multiple noise frequencies, matching terrain-style fractal
// sampling.
func octave(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// countryNames is the pool of synthetic nations, used directly as ids.
var countryNames = []string{
	"velmara", "ostrau", "kessland", "dorvania", "almirek", "tessaly",
	"brundova", "cindralis", "ferromont", "galtara", "hestovia", "ilmarren",
	"jorveth", "lumidor", "maraval", "norvek", "ostania", "pellastra",
	"quorvath", "rhodmark", "sundvall", "tarkhan", "ulbria", "vantessa",
	"wrenmoor", "yassuria", "zembala", "ardishal", "bastovar", "corvalle",
	"drelgard", "entovia", "fennmark", "grestonia", "halvora", "ivenska",
	"jalbreth", "koralev", "lestrava", "morvalen",
}
