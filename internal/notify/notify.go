// Package notify delivers announcements about created security events to
// downstream consumers. Delivery is strictly best-effort: the orchestrator
// has already persisted the event by the time a notifier runs.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/calderasim/flashpoint/internal/trigger"
)

// Log announces events to the process log. It is the default notifier and
// never fails.
type Log struct{}

var _ trigger.Notifier = Log{}

// Notify writes one structured log line per event.
func (Log) Notify(_ context.Context, a trigger.Announcement) error {
	slog.Info("security event announced",
		"event", a.EventID,
		"country", a.CountryID,
		"type", a.Type,
		"severity", a.Severity,
		"title", a.Title,
		"rules", a.TriggeredBy,
	)
	return nil
}

// Multi fans one announcement out to several notifiers. Every notifier gets
// the announcement even when earlier ones fail; the joined error reports
// all failures.
type Multi []trigger.Notifier

var _ trigger.Notifier = Multi(nil)

func (m Multi) Notify(ctx context.Context, a trigger.Announcement) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
