package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"audaxtracker/internal/format"
	"audaxtracker/internal/i18n"
	"audaxtracker/internal/metrics"
	"audaxtracker/internal/state"
)

// ErrRecipientUnreachable reports that the chat transport could not
// deliver to a recipient because they are gone for good (blocked the
// bot, deleted their account, or the chat no longer exists). Delivery is
// never retried for such recipients; their subscription is removed.
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// Messenger is the outbound chat transport used by the sync pipeline.
// Implementations must return errors wrapping [ErrRecipientUnreachable]
// for permanently undeliverable recipients.
type Messenger interface {
	// SendMessage delivers fully rendered HTML text to the given chat.
	SendMessage(ctx context.Context, chatID string, text string) error
}

// Engine runs the fetch-diff-notify pipeline and the configuration
// reload against the store.
//
// Engine implements [state.RemovalObserver], notifying subscribers whose
// participants disappeared from the start list after a reload.
type Engine struct {
	store     *state.Store
	client    *Client
	messenger Messenger
	formatter *format.Formatter
	cat       *i18n.Catalog
	logger    *slog.Logger
}

// NewEngine wires the sync pipeline together.
func NewEngine(store *state.Store, client *Client, messenger Messenger, formatter *format.Formatter, cat *i18n.Catalog, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		client:    client,
		messenger: messenger,
		formatter: formatter,
		cat:       cat,
		logger:    logger,
	}
}

// RunCycle executes one polling cycle: fetch updates from the stored
// cursor, merge them into the participant set, notify each affected
// subscriber with one combined message, then persist the new cursor.
//
// Soft remote failures abort the cycle without mutating state and return
// nil; the next cycle retries from the same cursor. A non-nil error is a
// fault the scheduler must treat as a circuit-breaker condition.
func (e *Engine) RunCycle(ctx context.Context) error {
	var since *string
	if cursor, ok := e.store.LastFetchCursor(); ok {
		since = &cursor
	}

	resp, err := e.client.TrackingUpdates(ctx, since)
	if errors.Is(err, ErrRemote) {
		// Soft failure: logged by the client, cursor untouched, retried
		// next cycle.
		metrics.FetchCycles.WithLabelValues("soft_failure").Inc()
		return nil
	}
	if err != nil {
		metrics.FetchCycles.WithLabelValues("fault").Inc()
		return fmt.Errorf("fetching tracking updates: %w", err)
	}

	e.logger.Info("got tracking updates", "count", len(resp.Updates))

	// Merge every record through the monotonicity guard. Records for the
	// same participant within one response are unordered; the guard is
	// the sole ordering authority.
	changed := make(map[string]bool)
	for _, update := range resp.Updates {
		wasNewer, err := e.store.SetParticipantLastKnownStatusIfNewer(
			update.FramePlateNumber, string(update.Control), update.CheckinTime)
		if err != nil {
			metrics.FetchCycles.WithLabelValues("fault").Inc()
			return fmt.Errorf("recording checkin for %s: %w", update.FramePlateNumber, err)
		}
		if wasNewer {
			changed[update.FramePlateNumber] = true
			metrics.UpdatesApplied.Inc()
		}
	}

	if err := e.notifySubscribers(ctx, changed); err != nil {
		metrics.FetchCycles.WithLabelValues("fault").Inc()
		return err
	}

	// Commit progress even if some deliveries failed: delivery failures
	// are subscriber-specific, not data-specific.
	if err := e.store.SetLastFetchCursor(resp.NextSince); err != nil {
		metrics.FetchCycles.WithLabelValues("fault").Inc()
		return fmt.Errorf("persisting fetch cursor: %w", err)
	}

	metrics.FetchCycles.WithLabelValues("ok").Inc()
	return nil
}

// notifySubscribers sends each subscriber with changed participants one
// combined update message. Delivery failures are isolated per
// subscriber; unreachable recipients lose their subscription entirely.
func (e *Engine) notifySubscribers(ctx context.Context, changed map[string]bool) error {
	if len(changed) == 0 {
		return nil
	}

	for _, sub := range e.store.Subscriptions() {
		var bundle []state.Participant
		for _, number := range sub.Numbers {
			if !changed[number] {
				continue
			}
			if p, ok := e.store.Participant(number); ok {
				bundle = append(bundle, p)
			}
		}
		if len(bundle) == 0 {
			continue
		}

		lang := e.cat.Resolve(sub.Lang)
		err := e.messenger.SendMessage(ctx, sub.SubscriberID, e.formatter.UpdateMessage(lang, bundle))
		switch {
		case err == nil:
			metrics.NotificationsSent.Inc()
		case errors.Is(err, ErrRecipientUnreachable):
			e.logger.Info("subscriber unreachable, dropping their subscription", "subscriber", sub.SubscriberID)
			metrics.DeliveryFailures.WithLabelValues("unreachable").Inc()
			metrics.SubscriptionsRemoved.WithLabelValues("unreachable").Inc()
			if err := e.store.RemoveSubscriber(sub.SubscriberID); err != nil {
				return fmt.Errorf("removing unreachable subscriber %s: %w", sub.SubscriberID, err)
			}
		default:
			e.logger.Error("failed to deliver update", "subscriber", sub.SubscriberID, "error", err)
			metrics.DeliveryFailures.WithLabelValues("other").Inc()
		}
	}
	return nil
}

// ReloadConfiguration replaces the event, control, and participant
// reference data wholesale from the endpoint, reconciling subscriptions
// against removed participants. Reports whether the reload succeeded;
// failures are logged, never raised to the caller.
func (e *Engine) ReloadConfiguration(ctx context.Context) bool {
	resp, err := e.client.Configuration(ctx)
	if err != nil {
		e.logger.Error("configuration reload failed", "error", err)
		return false
	}

	if err := e.store.SetEvent(resp.Event.Name, resp.Event.Start, resp.Event.Finish); err != nil {
		e.logger.Error("failed to store event", "error", err)
		return false
	}

	controls := make(map[string]state.ControlData, len(resp.Controls))
	for id, c := range resp.Controls {
		controls[id] = state.ControlData{Name: c.Name, Distance: c.Distance, Finish: c.Finish}
	}
	if err := e.store.SetControls(controls); err != nil {
		e.logger.Error("failed to store controls", "error", err)
		return false
	}

	if err := e.store.SetParticipants(ctx, resp.Participants); err != nil {
		e.logger.Error("failed to store participants", "error", err)
		return false
	}

	e.logger.Info("configuration reloaded",
		"controls", e.store.ControlCount(),
		"participants", e.store.ParticipantCount())
	return true
}

// ParticipantsRemoved tells each affected subscriber which of their
// participants disappeared from the start list. Their subscriptions are
// already reconciled by the time this runs; delivery failures are only
// logged.
func (e *Engine) ParticipantsRemoved(ctx context.Context, removed map[string]state.Removal) {
	for subscriberID, pkg := range removed {
		metrics.SubscriptionsRemoved.WithLabelValues("participant_removed").Add(float64(len(pkg.Participants)))

		lang := e.cat.Resolve(pkg.Lang)
		err := e.messenger.SendMessage(ctx, subscriberID, e.formatter.RemovedNotice(lang, pkg.Participants))
		if err != nil {
			e.logger.Error("failed to deliver removal notice", "subscriber", subscriberID, "error", err)
		}
	}
}
