package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/groupsub/groupsub/internal/config"
	"github.com/groupsub/groupsub/internal/subscription"
)

// stubRunner records the workflow invocation and returns canned results.
type stubRunner struct {
	gotEmail string
	gotCfg   *config.Discourse
	result   *subscription.Result
	err      error
}

func (s *stubRunner) Run(ctx context.Context, cfg *config.Discourse, email string) (*subscription.Result, error) {
	s.gotEmail = email
	s.gotCfg = cfg
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &subscription.Result{Email: email, Username: "someone", PollAttempts: 1}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setDiscourseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "k")
	t.Setenv("BASE_URL", "https://forum.example.org")
	t.Setenv("API_USER", "system")
	t.Setenv("TO_ADDRESS", "in@forum.example.org")
	t.Setenv("GROUP_ID", "42")
}

func formRequest(email string) *http.Request {
	form := url.Values{"email": {email}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubscribe_Instructions(t *testing.T) {
	h := NewSubscribeHandler(&stubRunner{}, discardLogger(), nil, "/")

	req := httptest.NewRequest(http.MethodGet, "/any/path/at/all", nil)
	rec := httptest.NewRecorder()
	h.Instructions(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected plain text, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "email") {
		t.Errorf("instructions should mention the email field: %s", rec.Body.String())
	}
}

func TestSubscribe_RejectsNonFormContentType(t *testing.T) {
	runner := &stubRunner{}
	h := NewSubscribeHandler(runner, discardLogger(), nil, "/")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"jane@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "Expected form submission" {
		t.Errorf("unexpected body: %q", body)
	}
	if runner.gotEmail != "" {
		t.Error("workflow must not run for non-form submissions")
	}
}

func TestSubscribe_RejectsMissingEmail(t *testing.T) {
	for _, email := range []string{"", "   ", "\t\n"} {
		runner := &stubRunner{}
		h := NewSubscribeHandler(runner, discardLogger(), nil, "/")

		rec := httptest.NewRecorder()
		h.Submit(rec, formRequest(email))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("email %q: expected status 400, got %d", email, rec.Code)
		}
		if body := rec.Body.String(); body != "Missing email" {
			t.Errorf("email %q: unexpected body: %q", email, body)
		}
		if runner.gotEmail != "" {
			t.Errorf("email %q: workflow must not run", email)
		}
	}
}

func TestSubscribe_MissingConfigNamesVariable(t *testing.T) {
	setDiscourseEnv(t)
	os.Unsetenv("API_KEY") // t.Setenv above restores it on cleanup

	h := NewSubscribeHandler(&stubRunner{}, discardLogger(), nil, "/")

	rec := httptest.NewRecorder()
	h.Submit(rec, formRequest("jane@example.com"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "API_KEY") {
		t.Errorf("body %q should name the missing variable", rec.Body.String())
	}
}

func TestSubscribe_TrimsEmailAndRunsWorkflow(t *testing.T) {
	setDiscourseEnv(t)

	runner := &stubRunner{result: &subscription.Result{Email: "Jane@Example.com", Username: "jane", PollAttempts: 2}}
	h := NewSubscribeHandler(runner, discardLogger(), nil, "https://forum.example.org")

	rec := httptest.NewRecorder()
	h.Submit(rec, formRequest("  Jane@Example.com  "))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if runner.gotEmail != "Jane@Example.com" {
		t.Errorf("workflow email = %q, want trimmed value", runner.gotEmail)
	}
	if runner.gotCfg == nil || runner.gotCfg.GroupID != 42 {
		t.Errorf("workflow config not loaded from environment: %+v", runner.gotCfg)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Jane@Example.com") {
		t.Errorf("success page should show the submitted email: %s", body)
	}
	if !strings.Contains(body, `href="https://forum.example.org"`) {
		t.Errorf("success page should link home: %s", body)
	}
}

func TestSubscribe_SuccessPageEscapesEmail(t *testing.T) {
	setDiscourseEnv(t)

	h := NewSubscribeHandler(&stubRunner{}, discardLogger(), nil, "/")

	hostile := `"<script>alert('x')</script>&co"@example.com`
	rec := httptest.NewRecorder()
	h.Submit(rec, formRequest(hostile))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("raw input markup must not reach the page")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("page should contain the escaped form of the email: %s", body)
	}
}

func TestSubscribe_AcceptsMultipartForm(t *testing.T) {
	setDiscourseEnv(t)

	runner := &stubRunner{}
	h := NewSubscribeHandler(runner, discardLogger(), nil, "/")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("email", "jane@example.com"); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if runner.gotEmail != "jane@example.com" {
		t.Errorf("workflow email = %q", runner.gotEmail)
	}
}

func TestSubscribe_WorkflowFailureSurfacedVerbatim(t *testing.T) {
	setDiscourseEnv(t)

	runner := &stubRunner{err: errors.New("no user with email jane@example.com found after 10 attempts")}
	h := NewSubscribeHandler(runner, discardLogger(), nil, "/")

	rec := httptest.NewRecorder()
	h.Submit(rec, formRequest("jane@example.com"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "10 attempts") || !strings.Contains(body, "jane@example.com") {
		t.Errorf("failure body should carry the workflow error verbatim: %q", body)
	}
}

func TestSubscribe_MethodNotAllowed(t *testing.T) {
	h := NewSubscribeHandler(&stubRunner{}, discardLogger(), nil, "/")

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "POST, GET" {
		t.Errorf("Allow = %q, want 'POST, GET'", allow)
	}
}
