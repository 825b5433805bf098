package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/groupsub/groupsub/internal/config"
	"github.com/groupsub/groupsub/internal/metrics"
	"github.com/groupsub/groupsub/internal/middleware"
	"github.com/groupsub/groupsub/internal/subscription"
)

const instructionsText = `This service subscribes an email address to the forum announcement group.

POST a form with an "email" field to subscribe, for example:

    curl -d "email=you@example.com" https://<this host>/
`

// WorkflowRunner runs the subscribe workflow for one email address.
type WorkflowRunner interface {
	Run(ctx context.Context, cfg *config.Discourse, email string) (*subscription.Result, error)
}

// SubscribeHandler serves the subscription form endpoints.
type SubscribeHandler struct {
	workflow WorkflowRunner
	logger   *slog.Logger
	metrics  metrics.Recorder
	homeURL  string
}

// NewSubscribeHandler creates a new SubscribeHandler.
func NewSubscribeHandler(workflow WorkflowRunner, logger *slog.Logger, recorder metrics.Recorder, homeURL string) *SubscribeHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if homeURL == "" {
		homeURL = "/"
	}
	return &SubscribeHandler{
		workflow: workflow,
		logger:   logger,
		metrics:  recorder,
		homeURL:  homeURL,
	}
}

// Instructions handles GET requests on any path.
func (h *SubscribeHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, instructionsText)
}

// Submit handles the form POST and runs the full workflow. The request
// stays open for the duration, up to the poll-loop worst case.
func (h *SubscribeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !isFormContentType(r) {
		h.metrics.IncSubscription(metrics.StatusRejected)
		writeText(w, http.StatusBadRequest, "Expected form submission")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		h.metrics.IncSubscription(metrics.StatusRejected)
		writeText(w, http.StatusBadRequest, "Missing email")
		return
	}

	// Workflow credentials are re-read per request so key rotation
	// takes effect without a restart.
	cfg, err := config.LoadDiscourse()
	if err != nil {
		h.logger.Error("discourse config invalid", "error", err)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := h.workflow.Run(r.Context(), cfg, email)
	if err != nil {
		h.logger.Error("subscription failed",
			"email", email,
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("subscription completed",
		"email", result.Email,
		"username", result.Username,
		"poll_attempts", result.PollAttempts,
	)
	h.renderSuccess(w, result.Email)
}

// MethodNotAllowed handles verbs other than GET and POST.
func (h *SubscribeHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, GET")
	writeText(w, http.StatusMethodNotAllowed, "Method not allowed. Use GET for instructions or POST to subscribe.")
}

// isFormContentType reports whether the body is a form submission,
// URL-encoded or multipart.
func isFormContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}
