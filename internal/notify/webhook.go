package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/calderasim/flashpoint/internal/trigger"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	defaultWebhookRate    = 5 // announcements per second
	defaultWebhookBurst   = 10
)

// WebhookConfig configures an outbound webhook notifier.
type WebhookConfig struct {
	URL string
	// AuthToken, when set, is sent as a bearer token.
	AuthToken string
	// Timeout bounds one delivery attempt; zero means 10s.
	Timeout time.Duration
	// RatePerSec and Burst bound delivery throughput; zero means 5/s with
	// a burst of 10.
	RatePerSec float64
	Burst      int
}

// Webhook POSTs announcements as JSON to a single URL. Deliveries are rate
// limited, and a circuit breaker sheds load while the receiver is down so a
// dead endpoint cannot slow batch sweeps to a crawl.
type Webhook struct {
	cfg     WebhookConfig
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[struct{}]
}

var _ trigger.Notifier = (*Webhook)(nil)

// NewWebhook builds a webhook notifier for the given endpoint.
func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultWebhookRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultWebhookBurst
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "event-webhook",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("webhook circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Webhook{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cb:      cb,
	}
}

// Notify delivers one announcement. It blocks on the rate limiter, then
// attempts a single POST through the circuit breaker; there are no retries,
// missed announcements are tolerated by contract.
func (w *Webhook) Notify(ctx context.Context, a trigger.Announcement) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate wait: %w", err)
	}
	_, err := w.cb.Execute(func() (struct{}, error) {
		return struct{}{}, w.post(ctx, a)
	})
	return err
}

func (w *Webhook) post(ctx context.Context, a trigger.Announcement) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.AuthToken)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver announcement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
