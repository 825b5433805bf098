package discourse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAddGroupMember_Request(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `{"success":"OK"}`)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	body, err := c.AddGroupMember(context.Background(), 42, "jane doe")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotPath != "/groups/42/members.json" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected content type: %s", gotContentType)
	}
	// Form encoding must escape the username.
	if gotBody != "usernames=jane+doe" {
		t.Errorf("body = %q, want URL-encoded usernames field", gotBody)
	}
	if body != `{"success":"OK"}` {
		t.Errorf("unexpected response body: %s", body)
	}
}

func TestAddGroupMember_UpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"errors":["already a member"]}`)
	}))
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	_, err := c.AddGroupMember(context.Background(), 42, "jane")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "already a member") {
		t.Errorf("error %q should carry status and body", err.Error())
	}
}
