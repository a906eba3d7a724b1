// Package api provides the operator HTTP API for the trigger engine.
// GET endpoints are public (read-only observation of rules, events, and
// cooldowns). POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calderasim/flashpoint/internal/country"
	"github.com/calderasim/flashpoint/internal/history"
	"github.com/calderasim/flashpoint/internal/secevent"
	"github.com/calderasim/flashpoint/internal/trigger"
)

// Server serves engine state over HTTP.
type Server struct {
	Runner   *trigger.Runner
	Guard    *trigger.Guard
	Store    *history.Store
	Source   trigger.SnapshotSource
	Catalog  trigger.Catalog
	Config   trigger.Config
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	startedAt time.Time
	sweepMu   sync.Mutex // one manual sweep at a time
	httpSrv   *http.Server
}

var validate = validator.New()

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.startedAt = time.Now()

	// Manual sweeps do real work; budget them per client.
	runLimiter := newRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/rules", s.handleRules)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/event/", s.handleEventDetail)
	mux.HandleFunc("/api/v1/countries", s.handleCountries)
	mux.HandleFunc("/api/v1/country/", s.handleCountryRoutes)
	mux.HandleFunc("/api/v1/cooldown/", s.handleCooldown)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/run", s.adminOnly(rateLimit(runLimiter, s.handleRun)))

	// Prometheus scrape endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", s.Port)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.Store.Count(r.Context())
	if err != nil {
		http.Error(w, "count events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	status := map[string]any{
		"service":         "flashpoint",
		"catalog_version": s.Catalog.Version,
		"rules":           s.Catalog.RuleCount(),
		"events_total":    total,
		"started":         humanize.Time(s.startedAt),
		"config":          s.Config,
	}
	if sum, ok := s.Runner.LastSummary(); ok {
		status["last_sweep"] = sum
		status["last_sweep_ago"] = humanize.Time(sum.StartedAt)
	}
	writeJSON(w, status)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	type ruleInfo struct {
		Name             string          `json:"name"`
		Kind             string          `json:"kind"`
		Description      string          `json:"description"`
		Multiplier       float64         `json:"multiplier"`
		EventTypes       []secevent.Type `json:"event_types"`
		Conditions       int             `json:"conditions,omitempty"`
		MinConditionsMet int             `json:"min_conditions_met,omitempty"`
	}

	rules := make([]ruleInfo, 0, s.Catalog.RuleCount())
	for _, tr := range s.Catalog.Thresholds {
		rules = append(rules, ruleInfo{
			Name:        tr.Name,
			Kind:        "threshold",
			Description: tr.Description,
			Multiplier:  tr.Multiplier,
			EventTypes:  tr.EventTypes,
		})
	}
	for _, cr := range s.Catalog.Cascades {
		rules = append(rules, ruleInfo{
			Name:             cr.Name,
			Kind:             "cascade",
			Description:      cr.Description,
			Multiplier:       cr.Multiplier,
			EventTypes:       cr.EventTypes,
			Conditions:       len(cr.Conditions),
			MinConditionsMet: cr.MinConditionsMet,
		})
	}

	writeJSON(w, map[string]any{
		"version": s.Catalog.Version,
		"rules":   rules,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []secevent.Event
	var err error
	if c := r.URL.Query().Get("country"); c != "" {
		events, err = s.Store.ByCountry(r.Context(), country.ID(c), limit)
	} else {
		events, err = s.Store.Recent(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, "query events: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/event/")
	if id == "" {
		http.Error(w, "event id required", http.StatusBadRequest)
		return
	}
	ev, err := s.Store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "event not found", http.StatusNotFound)
		return
	}
	writeJSON(w, ev)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Source.Countries(r.Context())
	if err != nil {
		http.Error(w, "list countries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, ids)
}

// handleCountryRoutes serves GET /api/v1/country/{id}/snapshot.
func (s *Server) handleCountryRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/country/")
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		http.Error(w, "country id required", http.StatusBadRequest)
		return
	}
	if len(parts) != 2 || parts[1] != "snapshot" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	snap, err := s.Source.Snapshot(r.Context(), country.ID(parts[0]))
	if err != nil {
		http.Error(w, "fetch snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleCooldown(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/cooldown/")
	if id == "" {
		http.Error(w, "country id required", http.StatusBadRequest)
		return
	}
	st, err := s.Guard.Status(r.Context(), country.ID(id))
	if err != nil {
		http.Error(w, "cooldown status: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

// handleRun kicks off a sweep immediately, either over the full roster or a
// requested subset, and reports per-country outcomes.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Countries []string `json:"countries,omitempty" validate:"omitempty,max=500,dive,min=1"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	var results map[country.ID]trigger.BatchResult
	if len(req.Countries) > 0 {
		ids := make([]country.ID, len(req.Countries))
		for i, c := range req.Countries {
			ids[i] = country.ID(c)
		}
		results = s.Runner.Run(r.Context(), ids)
	} else {
		var err error
		results, err = s.Runner.RunAll(r.Context())
		if err != nil {
			http.Error(w, "sweep failed: "+err.Error(), http.StatusBadGateway)
			return
		}
	}

	writeJSON(w, buildRunResponse(results))
}

type runEntry struct {
	Created bool               `json:"created"`
	Skip    trigger.SkipReason `json:"skip_reason,omitempty"`
	EventID string             `json:"event_id,omitempty"`
	Type    secevent.Type      `json:"event_type,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func buildRunResponse(results map[country.ID]trigger.BatchResult) map[string]any {
	entries := make(map[country.ID]runEntry, len(results))
	created, errs := 0, 0
	for id, res := range results {
		e := runEntry{Created: res.Created(), Skip: res.Outcome.Skip}
		if res.Err != nil {
			e.Error = res.Err.Error()
			errs++
		}
		if res.Created() {
			e.EventID = res.Outcome.Event.ID
			e.Type = res.Outcome.Event.Type
			created++
		}
		entries[id] = e
	}
	return map[string]any{
		"countries": len(results),
		"created":   created,
		"errors":    errs,
		"results":   entries,
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
