package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscription is a no-op.
func (n *NoopRecorder) IncSubscription(status string) {}

// ObserveSubscriptionDuration is a no-op.
func (n *NoopRecorder) ObserveSubscriptionDuration(duration time.Duration) {}

// ObservePollAttempts is a no-op.
func (n *NoopRecorder) ObservePollAttempts(attempts int) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
