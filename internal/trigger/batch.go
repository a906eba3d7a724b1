package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/metrics"
)

// DefaultConcurrency bounds parallel country processing when the runner is
// built without an explicit limit.
const DefaultConcurrency = 8

// DefaultCountryTimeout caps how long one country may hold a worker slot.
const DefaultCountryTimeout = 30 * time.Second

// SnapshotSource enumerates the countries under simulation and assembles
// their evaluation snapshots.
type SnapshotSource interface {
	Countries(ctx context.Context) ([]country.ID, error)
	Snapshot(ctx context.Context, id country.ID) (country.Snapshot, error)
}

// BatchResult is one country's result within a sweep. Err is set when the
// country could not be processed at all (snapshot fetch failed, worker
// panicked, sweep cancelled first); otherwise Outcome says what happened.
type BatchResult struct {
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// Created reports whether the country got a new security event.
func (r BatchResult) Created() bool {
	return r.Err == nil && r.Outcome.Created
}

// CreatedMap flattens batch results into the created-or-not view consumed
// by scheduler integrations.
func CreatedMap(results map[country.ID]BatchResult) map[country.ID]bool {
	out := make(map[country.ID]bool, len(results))
	for id, r := range results {
		out[id] = r.Created()
	}
	return out
}

// Summary describes the last completed sweep, for the operator API.
type Summary struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Countries int           `json:"countries"`
	Created   int           `json:"created"`
	Errors    int           `json:"errors"`
}

// Runner fans one orchestrator out across many countries. Countries are
// fully isolated from each other: a failure, panic, or cooldown in one
// never affects the rest of the sweep.
type Runner struct {
	Source       SnapshotSource
	Orchestrator *Orchestrator

	// Concurrency bounds parallel workers; zero means DefaultConcurrency.
	Concurrency int
	// CountryTimeout caps one country's processing; zero means
	// DefaultCountryTimeout.
	CountryTimeout time.Duration

	mu   sync.Mutex
	last *Summary
}

// RunAll discovers the roster from the source and sweeps it. It fails
// outright only when the roster itself cannot be listed.
func (r *Runner) RunAll(ctx context.Context) (map[country.ID]BatchResult, error) {
	ids, err := r.Source.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return r.Run(ctx, ids), nil
}

// Run sweeps the given countries and returns exactly one entry per distinct
// id, even under cancellation: countries the sweep never reached carry the
// context error. Results for countries that finished before cancellation
// are kept as-is.
func (r *Runner) Run(ctx context.Context, ids []country.ID) map[country.ID]BatchResult {
	start := time.Now()
	results := make(map[country.ID]BatchResult, len(ids))
	var mu sync.Mutex

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			var res BatchResult
			if ctx.Err() != nil {
				res = BatchResult{Err: ctx.Err()}
			} else {
				res = r.processOne(ctx, id)
			}
			mu.Lock()
			results[id] = res
			mu.Unlock()
			return nil // never fail the group; errors stay per-country
		})
	}
	_ = g.Wait()

	sum := Summary{StartedAt: start.UTC(), Duration: time.Since(start), Countries: len(results)}
	for _, res := range results {
		switch {
		case res.Err != nil:
			sum.Errors++
		case res.Created():
			sum.Created++
		}
	}
	r.mu.Lock()
	r.last = &sum
	r.mu.Unlock()

	metrics.BatchRuns.Inc()
	metrics.BatchDuration.Observe(sum.Duration.Seconds())
	slog.Info("batch sweep finished",
		"countries", sum.Countries, "created", sum.Created,
		"errors", sum.Errors, "duration", sum.Duration.Round(time.Millisecond))
	return results
}

// processOne handles a single country, converting panics into per-country
// errors so a defective collaborator cannot kill the sweep's worker pool.
func (r *Runner) processOne(ctx context.Context, id country.ID) (res BatchResult) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("country processing panicked", "country", id, "panic", p)
			metrics.CountryErrors.Inc()
			res = BatchResult{Err: fmt.Errorf("process %s: panic: %v", id, p)}
		}
	}()

	timeout := r.CountryTimeout
	if timeout <= 0 {
		timeout = DefaultCountryTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := r.Source.Snapshot(cctx, id)
	if err != nil {
		slog.Error("snapshot fetch failed", "country", id, "error", err)
		metrics.CountryErrors.Inc()
		return BatchResult{Err: fmt.Errorf("fetch snapshot for %s: %w", id, err)}
	}

	out := r.Orchestrator.Process(cctx, id, snap)
	metrics.CountriesProcessed.Inc()
	return BatchResult{Outcome: out}
}

// LastSummary returns the most recent completed sweep, if any.
func (r *Runner) LastSummary() (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Summary{}, false
	}
	return *r.last, true
}
