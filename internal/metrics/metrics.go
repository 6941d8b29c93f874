// Package metrics exposes Prometheus counters for the fetch pipeline and
// the notification path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchCycles counts completed fetch cycles by outcome:
	// "ok", "soft_failure", or "fault".
	FetchCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audaxtracker_fetch_cycles_total",
			Help: "Total number of fetch cycles by outcome",
		},
		[]string{"outcome"},
	)

	// UpdatesApplied counts checkin updates that changed a participant's
	// last known status.
	UpdatesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audaxtracker_updates_applied_total",
			Help: "Total number of checkin updates that changed stored state",
		},
	)

	// NotificationsSent counts update messages delivered to subscribers.
	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audaxtracker_notifications_sent_total",
			Help: "Total number of update messages sent to subscribers",
		},
	)

	// DeliveryFailures counts failed message deliveries by kind:
	// "unreachable" or "other".
	DeliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audaxtracker_delivery_failures_total",
			Help: "Total number of failed message deliveries by kind",
		},
		[]string{"kind"},
	)

	// SubscriptionsRemoved counts subscription removals by reason:
	// "unsubscribed", "unreachable", or "participant_removed".
	SubscriptionsRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audaxtracker_subscriptions_removed_total",
			Help: "Total number of subscription removals by reason",
		},
		[]string{"reason"},
	)

	// FetchingActive reports whether the periodic fetch schedule is running.
	FetchingActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "audaxtracker_fetching_active",
			Help: "Whether the periodic fetch schedule is active (1 = active)",
		},
	)
)

func init() {
	prometheus.MustRegister(FetchCycles)
	prometheus.MustRegister(UpdatesApplied)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(DeliveryFailures)
	prometheus.MustRegister(SubscriptionsRemoved)
	prometheus.MustRegister(FetchingActive)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
