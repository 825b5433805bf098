package handler

import (
	"fmt"
	"net/http"

	"github.com/groupsub/groupsub/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "groupsub_subscriptions_total{status=\"completed\"} %d\n", snap.SubscriptionsCompleted)
	writeMetric(w, "groupsub_subscriptions_total{status=\"failed\"} %d\n", snap.SubscriptionsFailed)
	writeMetric(w, "groupsub_subscriptions_total{status=\"rejected\"} %d\n", snap.SubscriptionsRejected)

	writeMetric(w, "groupsub_subscription_duration_seconds_count %d\n", snap.SubscriptionDurationCount)
	writeMetric(w, "groupsub_subscription_duration_seconds_sum %.6f\n", float64(snap.SubscriptionDurationTotalNs)/1e9)

	writeMetric(w, "groupsub_poll_attempts_count %d\n", snap.PollAttemptsCount)
	writeMetric(w, "groupsub_poll_attempts_sum %d\n", snap.PollAttemptsTotal)

	writeMetric(w, "groupsub_rate_limited_total %d\n", snap.RateLimited)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
