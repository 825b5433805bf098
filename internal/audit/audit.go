// Package audit records subscription workflow outcomes.
// Recording is best-effort: a failed write is logged by the caller and
// never fails the inbound request.
package audit

import (
	"context"
	"time"
)

// Entry statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Workflow step names, in execution order.
const (
	StepMailTriggered = "mail_triggered"
	StepUserFound     = "user_found"
	StepGroupUpdated  = "group_updated"
)

// Entry describes one workflow run.
type Entry struct {
	Email        string
	Username     string
	Status       string
	Detail       string
	Steps        []string
	PollAttempts int
	Duration     time.Duration
	StartedAt    time.Time
}

// Recorder persists workflow entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type noopRecorder struct{}

// NewNoop returns a Recorder that discards all entries.
func NewNoop() Recorder {
	return noopRecorder{}
}

func (noopRecorder) Record(ctx context.Context, entry Entry) error {
	return nil
}
