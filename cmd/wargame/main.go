// Command wargame replays the trigger engine against a synthetic world for
// a simulated stretch of time and reports how often each rule fires, what
// events come out, and how hard the cooldowns bite. Runs are deterministic
// for a given seed, which makes it the tool for tuning rule cut points and
// multipliers before they ship.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/calderasim/flashpoint/internal/content"
	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/entropy"
	"github.com/calderasim/flashpoint/internal/history"
	"github.com/calderasim/flashpoint/internal/secevent"
	"github.com/calderasim/flashpoint/internal/sim"
	"github.com/calderasim/flashpoint/internal/trigger"
)

func main() {
	countries := flag.Int("countries", 24, "size of the synthetic roster")
	days := flag.Int("days", 180, "simulated days to run")
	seed := flag.Int64("seed", 42, "deterministic seed for world and rolls")
	intervalHours := flag.Int("interval-hours", 24, "simulated hours between sweeps")
	concurrency := flag.Int("concurrency", 4, "parallel countries per sweep")
	verbose := flag.Bool("v", false, "log individual events as they happen")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	world := sim.NewWorld(*seed, *countries, start)
	clock := world.Clock()

	store, err := history.Open(":memory:")
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer store.Close()
	store.Now = clock.Now

	cfg := trigger.DefaultConfig()
	catalog := trigger.Builtin()
	rolls := entropy.Locked(entropy.Seeded(*seed))

	guard := trigger.NewGuard(store, cfg)
	guard.Now = clock.Now

	orch := &trigger.Orchestrator{
		Guard:     guard,
		Evaluator: trigger.NewEvaluator(catalog, cfg, rolls),
		Generator: content.NewGenerator(entropy.Locked(entropy.Seeded(*seed + 1))),
		Store:     store,
		Notifier:  nil,
		Now:       clock.Now,
	}
	runner := &trigger.Runner{
		Source:       world,
		Orchestrator: orch,
		Concurrency:  *concurrency,
	}

	tally := newTally()
	interval := time.Duration(*intervalHours) * time.Hour
	sweeps := *days * 24 / *intervalHours

	fmt.Printf("wargame: %d countries, %d simulated days, sweep every %dh, seed %d\n",
		*countries, *days, *intervalHours, *seed)

	ctx := context.Background()
	for i := 0; i < sweeps; i++ {
		results, err := runner.RunAll(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sweep failed:", err)
			os.Exit(1)
		}
		tally.record(results)
		world.Advance(interval)
	}

	tally.report(os.Stdout, catalog, sweeps, *countries)
}

// tally accumulates sweep outcomes across the whole run.
type tally struct {
	evaluations int
	created     int
	ruleFires   map[string]int
	byType      map[secevent.Type]int
	bySeverity  map[secevent.Severity]int
	skips       map[trigger.SkipReason]int
	casualties  int
	economicHit float64
}

func newTally() *tally {
	return &tally{
		ruleFires:  make(map[string]int),
		byType:     make(map[secevent.Type]int),
		bySeverity: make(map[secevent.Severity]int),
		skips:      make(map[trigger.SkipReason]int),
	}
}

func (t *tally) record(results map[country.ID]trigger.BatchResult) {
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		t.evaluations++
		for _, rule := range res.Outcome.Evaluation.TriggeredBy {
			t.ruleFires[rule]++
		}
		if res.Created() {
			ev := res.Outcome.Event
			t.created++
			t.byType[ev.Type]++
			t.bySeverity[ev.Severity]++
			t.casualties += ev.Casualties
			t.economicHit += ev.EconomicImpactMUSD
		} else {
			t.skips[res.Outcome.Skip]++
		}
	}
}

func (t *tally) report(w *os.File, catalog trigger.Catalog, sweeps, countries int) {
	fmt.Fprintf(w, "\n── rule fires (%s evaluations) ──\n", humanize.Comma(int64(t.evaluations)))
	for _, r := range catalog.Thresholds {
		t.ruleLine(w, r.Name, "threshold", r.Multiplier)
	}
	for _, r := range catalog.Cascades {
		t.ruleLine(w, r.Name, "cascade", r.Multiplier)
	}

	fmt.Fprintf(w, "\n── events created: %s (%.1f%% of evaluations) ──\n",
		humanize.Comma(int64(t.created)), pct(t.created, t.evaluations))
	for _, ty := range secevent.AllTypes() {
		if n := t.byType[ty]; n > 0 {
			fmt.Fprintf(w, "  %-18s %5d\n", ty, n)
		}
	}

	fmt.Fprintf(w, "\n── severity ──\n")
	for _, sev := range []secevent.Severity{
		secevent.SeverityLow, secevent.SeverityMedium,
		secevent.SeverityHigh, secevent.SeverityCritical,
	} {
		fmt.Fprintf(w, "  %-10s %5d\n", sev, t.bySeverity[sev])
	}

	fmt.Fprintf(w, "\n── skips ──\n")
	reasons := make([]string, 0, len(t.skips))
	for r := range t.skips {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  %-12s %6s\n", r, humanize.Comma(int64(t.skips[trigger.SkipReason(r)])))
	}

	fmt.Fprintf(w, "\n── totals ──\n")
	fmt.Fprintf(w, "  sweeps                %d over %d countries\n", sweeps, countries)
	fmt.Fprintf(w, "  casualties            %s\n", humanize.Comma(int64(t.casualties)))
	fmt.Fprintf(w, "  economic impact       $%s M\n", humanize.CommafWithDigits(t.economicHit, 1))
	fmt.Fprintf(w, "  events per country    %.2f\n", float64(t.created)/float64(countries))
}

func (t *tally) ruleLine(w *os.File, name, kind string, mult float64) {
	n := t.ruleFires[name]
	fmt.Fprintf(w, "  %-22s %-9s ×%.1f  %6s fires (%.1f%%)\n",
		name, kind, mult, humanize.Comma(int64(n)), pct(n, t.evaluations))
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
