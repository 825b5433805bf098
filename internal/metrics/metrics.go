// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Subscription outcome labels.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// IncSubscription counts one workflow outcome.
	// status: "completed", "failed" or "rejected".
	IncSubscription(status string)

	// ObserveSubscriptionDuration records the full workflow duration.
	ObserveSubscriptionDuration(duration time.Duration)

	// ObservePollAttempts records how many lookup attempts a run needed.
	ObservePollAttempts(attempts int)

	// IncRateLimited counts form submissions refused by the rate limiter.
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
