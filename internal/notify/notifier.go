// Package notify delivers dashboard digests to chat channels. A Notifier fans
// each message out to every configured Sender (Telegram, Discord) and can be
// restricted to a subset of event types.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// Event types understood by Notifier.
const (
	EventFocus       = "focus"
	EventFetchFailed = "fetch_failed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders, filtered by
// event type.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. If
// events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether at least one sender is configured.
func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

// NotifyFocus sends the focus digest for snap. Nothing is sent when both
// focus slots are empty.
func (n *Notifier) NotifyFocus(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Focus.Empty() {
		n.logger.DebugContext(ctx, "notifier: no focus picks, digest skipped")
		return nil
	}
	title, body := FormatDigest(snap)
	return n.Notify(ctx, EventFocus, title, body)
}

// NotifyFetchFailed reports a failed refresh cycle.
func (n *Notifier) NotifyFetchFailed(ctx context.Context, maxHours float64, cause error) error {
	msg := fmt.Sprintf("Refresh for the %gh window failed: %v", maxHours, cause)
	return n.Notify(ctx, EventFetchFailed, "Market fetch failed", msg)
}

// Notify sends a notification to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "notifier: event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// dispatch sends to every sender. A single sender failure does not prevent
// delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "notifier: sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notifier: sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
