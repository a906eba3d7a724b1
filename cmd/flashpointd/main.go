// Command flashpointd runs the security event trigger engine: periodic
// sweeps over the country roster, an operator HTTP API, and webhook
// announcements for generated events.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calderasim/flashpoint/internal/api"
	"github.com/calderasim/flashpoint/internal/config"
	"github.com/calderasim/flashpoint/internal/content"
	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/entropy"
	"github.com/calderasim/flashpoint/internal/history"
	"github.com/calderasim/flashpoint/internal/notify"
	"github.com/calderasim/flashpoint/internal/sim"
	"github.com/calderasim/flashpoint/internal/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	slog.Info("Flashpoint — security event trigger engine")

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		os.MkdirAll(dir, 0755)
	}
	store, err := history.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open event database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("event database opened", "path", cfg.Database.Path)

	// ── Rule catalog ──────────────────────────────────────────────────
	catalog := trigger.Builtin()
	customT, customC, err := trigger.CompileCustomRules(cfg.CustomRules)
	if err != nil {
		slog.Error("custom rules rejected", "error", err)
		os.Exit(1)
	}
	catalog = catalog.Extend(customT, customC)
	if err := catalog.Validate(); err != nil {
		slog.Error("rule catalog invalid", "error", err)
		os.Exit(1)
	}
	slog.Info("rule catalog ready",
		"version", catalog.Version,
		"rules", catalog.RuleCount(),
		"custom", len(cfg.CustomRules),
	)

	// ── Entropy ───────────────────────────────────────────────────────
	var src entropy.Source
	switch {
	case cfg.Entropy.Seed != 0:
		src = entropy.Locked(entropy.Seeded(cfg.Entropy.Seed))
		slog.Warn("deterministic entropy in use", "seed", cfg.Entropy.Seed)
	case cfg.Entropy.RandomOrgKey != "":
		src = entropy.NewClient(cfg.Entropy.RandomOrgKey)
		slog.Info("random.org entropy pool enabled")
	default:
		src = entropy.Crypto()
	}

	// ── Snapshot source ───────────────────────────────────────────────
	var source trigger.SnapshotSource
	if cfg.Source.Mode == config.SourceModeAPI {
		source = country.NewAPISource(cfg.Source.BaseURL, cfg.Source.APIKey, cfg.Source.Timeout)
		slog.Info("platform snapshot source", "base_url", cfg.Source.BaseURL)
	} else {
		source = sim.NewWorld(cfg.Entropy.Seed, cfg.Source.SimCountries, time.Now())
		slog.Warn("synthetic snapshot source in use", "countries", cfg.Source.SimCountries)
	}

	// ── Engine ────────────────────────────────────────────────────────
	guard := trigger.NewGuard(store, cfg.Trigger)
	evaluator := trigger.NewEvaluator(catalog, cfg.Trigger, src)
	generator := content.NewGenerator(src)

	var notifier trigger.Notifier = notify.Log{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.Multi{
			notify.Log{},
			notify.NewWebhook(notify.WebhookConfig{
				URL:        cfg.Notify.WebhookURL,
				AuthToken:  cfg.Notify.WebhookToken,
				Timeout:    cfg.Notify.WebhookTimeout,
				RatePerSec: cfg.Notify.RatePerSec,
				Burst:      cfg.Notify.Burst,
			}),
		}
		slog.Info("webhook notifier enabled", "url", cfg.Notify.WebhookURL)
	}

	orch := &trigger.Orchestrator{
		Guard:     guard,
		Evaluator: evaluator,
		Generator: generator,
		Store:     store,
		Notifier:  notifier,
	}
	runner := &trigger.Runner{
		Source:         source,
		Orchestrator:   orch,
		Concurrency:    cfg.Batch.Concurrency,
		CountryTimeout: cfg.Batch.CountryTimeout,
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("admin key not set — POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Runner:   runner,
		Guard:    guard,
		Store:    store,
		Source:   source,
		Catalog:  catalog,
		Config:   cfg.Trigger,
		Port:     cfg.Server.Port,
		AdminKey: cfg.Server.AdminKey,
	}
	apiServer.Start()

	// ── Sweep loop ────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	fmt.Printf("\nFlashpoint armed: %d rules watching the roster every %s.\n",
		catalog.RuleCount(), cfg.Batch.Interval)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	fmt.Println("Running... (Ctrl+C to stop)")

	sweepLoop(ctx, runner, cfg.Batch.Interval)

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := apiServer.Shutdown(shCtx); err != nil {
		slog.Error("API shutdown", "error", err)
	}
	fmt.Println("Flashpoint stopped.")
}

// sweepLoop runs one sweep immediately, then one per interval until the
// context is cancelled.
func sweepLoop(ctx context.Context, runner *trigger.Runner, interval time.Duration) {
	if _, err := runner.RunAll(ctx); err != nil {
		slog.Error("sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := runner.RunAll(ctx); err != nil {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
