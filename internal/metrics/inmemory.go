package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubscriptionsCompleted      uint64
	SubscriptionsFailed         uint64
	SubscriptionsRejected       uint64
	SubscriptionDurationCount   uint64
	SubscriptionDurationTotalNs int64
	PollAttemptsCount           uint64
	PollAttemptsTotal           uint64
	RateLimited                 uint64
}

// InMemoryRecorder stores metrics in memory using atomic counters.
type InMemoryRecorder struct {
	subscriptionsCompleted      uint64
	subscriptionsFailed         uint64
	subscriptionsRejected       uint64
	subscriptionDurationCount   uint64
	subscriptionDurationTotalNs int64
	pollAttemptsCount           uint64
	pollAttemptsTotal           uint64
	rateLimited                 uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SubscriptionsCompleted:      atomic.LoadUint64(&m.subscriptionsCompleted),
		SubscriptionsFailed:         atomic.LoadUint64(&m.subscriptionsFailed),
		SubscriptionsRejected:       atomic.LoadUint64(&m.subscriptionsRejected),
		SubscriptionDurationCount:   atomic.LoadUint64(&m.subscriptionDurationCount),
		SubscriptionDurationTotalNs: atomic.LoadInt64(&m.subscriptionDurationTotalNs),
		PollAttemptsCount:           atomic.LoadUint64(&m.pollAttemptsCount),
		PollAttemptsTotal:           atomic.LoadUint64(&m.pollAttemptsTotal),
		RateLimited:                 atomic.LoadUint64(&m.rateLimited),
	}
}

// IncSubscription counts one workflow outcome.
func (m *InMemoryRecorder) IncSubscription(status string) {
	switch status {
	case StatusCompleted:
		atomic.AddUint64(&m.subscriptionsCompleted, 1)
	case StatusFailed:
		atomic.AddUint64(&m.subscriptionsFailed, 1)
	case StatusRejected:
		atomic.AddUint64(&m.subscriptionsRejected, 1)
	}
}

// ObserveSubscriptionDuration records the full workflow duration.
func (m *InMemoryRecorder) ObserveSubscriptionDuration(duration time.Duration) {
	atomic.AddUint64(&m.subscriptionDurationCount, 1)
	atomic.AddInt64(&m.subscriptionDurationTotalNs, duration.Nanoseconds())
}

// ObservePollAttempts records how many lookup attempts a run needed.
func (m *InMemoryRecorder) ObservePollAttempts(attempts int) {
	if attempts < 0 {
		return
	}
	atomic.AddUint64(&m.pollAttemptsCount, 1)
	atomic.AddUint64(&m.pollAttemptsTotal, uint64(attempts))
}

// IncRateLimited counts refused form submissions.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}
