// Package notify delivers operator alerts raised by the trading engine —
// signing failures, kill-switch trips, daily-loss breaches — to Telegram and
// Discord, filtered by event type so operators receive only the alerts they
// care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Alert is one operator notification: the engine event that raised it plus
// the rendered title and body. Senders decide how to lay it out per channel.
type Alert struct {
	Event string // machine name, e.g. "signing_failure"
	Title string
	Body  string
	At    time.Time
}

// Sender is one delivery channel for alerts.
type Sender interface {
	Send(ctx context.Context, a Alert) error
	// Name identifies the channel (e.g. "telegram") in logs.
	Name() string
}

// Notifier dispatches alerts to one or more Senders. It maintains a set of
// allowed event types; Notify only forwards events in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice are forwarded. An empty
// events slice allows everything.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends an alert to all senders if the event type is allowed. The
// event name doubles as the alert title.
func (n *Notifier) Notify(ctx context.Context, event string, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, Alert{
		Event: event,
		Title: titleFor(event),
		Body:  message,
		At:    time.Now().UTC(),
	})
}

// NotifyAll sends an alert to all senders regardless of the event filter.
// Used for operator-initiated messages like startup and shutdown notices.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, Alert{
		Event: "operator",
		Title: title,
		Body:  message,
		At:    time.Now().UTC(),
	})
}

// dispatch iterates over all senders. Errors from individual senders are
// collected and returned combined; one sender failing does not prevent
// delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, a Alert) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, a); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// titleFor renders an event name like "signing_failure" as "Signing Failure".
func titleFor(event string) string {
	words := strings.Split(event, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var _ domain.Notifier = (*Notifier)(nil)
