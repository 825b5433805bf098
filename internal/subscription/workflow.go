// Package subscription orchestrates the subscribe workflow against a
// Discourse forum: trigger account creation by simulated inbound mail,
// poll until the user record becomes visible, add the user to a group.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/groupsub/groupsub/internal/audit"
	"github.com/groupsub/groupsub/internal/config"
	"github.com/groupsub/groupsub/internal/discourse"
	"github.com/groupsub/groupsub/internal/metrics"
)

const (
	// DefaultPollAttempts is how many times the user lookup is tried.
	DefaultPollAttempts = 10
	// DefaultPollDelay is the wall-clock sleep between lookup attempts.
	DefaultPollDelay = 1500 * time.Millisecond
	// auditTimeout bounds the best-effort audit write at workflow end.
	auditTimeout = 2 * time.Second
)

// Result describes a completed workflow run.
type Result struct {
	Email        string
	Username     string
	PollAttempts int
}

// Workflow runs the three-step subscribe sequence. Safe for concurrent
// use; per-request credentials arrive with each Run call.
type Workflow struct {
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      metrics.Recorder
	audit        audit.Recorder
	pollAttempts int
	pollDelay    time.Duration
}

// New creates a Workflow with default polling behavior.
func New(logger *slog.Logger, recorder metrics.Recorder, auditRecorder audit.Recorder) *Workflow {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if auditRecorder == nil {
		auditRecorder = audit.NewNoop()
	}
	return &Workflow{
		httpClient:   discourse.NewHTTPClient(),
		logger:       logger.With("component", "subscription.workflow"),
		metrics:      recorder,
		audit:        auditRecorder,
		pollAttempts: DefaultPollAttempts,
		pollDelay:    DefaultPollDelay,
	}
}

// SetPollAttempts overrides the default attempt count.
func (w *Workflow) SetPollAttempts(attempts int) {
	if attempts > 0 {
		w.pollAttempts = attempts
	}
}

// SetPollDelay overrides the default inter-attempt delay.
func (w *Workflow) SetPollDelay(delay time.Duration) {
	if delay > 0 {
		w.pollDelay = delay
	}
}

// Run executes the workflow for one submitted email. There is no
// compensation: a failure after the mail trigger leaves the upstream
// account created but ungrouped, and only the error is reported.
func (w *Workflow) Run(ctx context.Context, cfg *config.Discourse, email string) (*Result, error) {
	start := time.Now()
	client := discourse.New(w.httpClient, cfg.BaseURL, cfg.APIKey, cfg.APIUser)

	entry := audit.Entry{
		Email:     email,
		Status:    audit.StatusCompleted,
		StartedAt: start,
	}

	result, err := w.run(ctx, client, cfg, email, &entry)

	entry.Duration = time.Since(start)
	if err != nil {
		entry.Status = audit.StatusFailed
		entry.Detail = err.Error()
		w.metrics.IncSubscription(metrics.StatusFailed)
	} else {
		entry.Username = result.Username
		w.metrics.IncSubscription(metrics.StatusCompleted)
	}
	w.metrics.ObserveSubscriptionDuration(entry.Duration)

	w.record(ctx, entry)

	return result, err
}

func (w *Workflow) run(ctx context.Context, client *discourse.Client, cfg *config.Discourse, email string, entry *audit.Entry) (*Result, error) {
	if err := client.HandleMail(ctx, email, cfg.ToAddress); err != nil {
		return nil, err
	}
	entry.Steps = append(entry.Steps, audit.StepMailTriggered)
	w.logger.Info("mail trigger accepted", "email", email)

	user, attempts, err := w.awaitUser(ctx, client, email)
	entry.PollAttempts = attempts
	if err != nil {
		return nil, err
	}
	entry.Steps = append(entry.Steps, audit.StepUserFound)
	w.metrics.ObservePollAttempts(attempts)
	w.logger.Info("user record visible",
		"email", email,
		"username", user.Username,
		"attempts", attempts,
	)

	if _, err := client.AddGroupMember(ctx, cfg.GroupID, user.Username); err != nil {
		return nil, err
	}
	entry.Steps = append(entry.Steps, audit.StepGroupUpdated)
	w.logger.Info("user added to group",
		"username", user.Username,
		"group_id", cfg.GroupID,
	)

	return &Result{
		Email:        email,
		Username:     user.Username,
		PollAttempts: attempts,
	}, nil
}

// awaitUser polls the active-user listing until a record matching the
// email appears. It returns the attempt count alongside the match.
func (w *Workflow) awaitUser(ctx context.Context, client *discourse.Client, email string) (*discourse.User, int, error) {
	for attempt := 1; attempt <= w.pollAttempts; attempt++ {
		user, err := client.FindActiveUser(ctx, email)
		if err != nil {
			return nil, attempt, err
		}
		if user != nil {
			return user, attempt, nil
		}
		if attempt == w.pollAttempts {
			break
		}

		w.logger.Debug("user not visible yet", "email", email, "attempt", attempt)
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(w.pollDelay):
		}
	}

	return nil, w.pollAttempts, fmt.Errorf("no user with email %s found after %d attempts", email, w.pollAttempts)
}

// record writes the audit entry on a detached context so a cancelled
// request cannot drop it. Failures are logged, never surfaced.
func (w *Workflow) record(ctx context.Context, entry audit.Entry) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := w.audit.Record(recordCtx, entry); err != nil {
		w.logger.Warn("audit record failed", "email", entry.Email, "error", err)
	}
}
