package discourse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func usersServer(t *testing.T, status int, body string, capture *http.Request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = *r
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestFindActiveUser_QueryParameters(t *testing.T) {
	t.Parallel()

	var got http.Request
	srv := usersServer(t, http.StatusOK, `[]`, &got)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	if _, err := c.FindActiveUser(context.Background(), "jane@example.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.URL.Path != "/admin/users/list/active.json" {
		t.Errorf("unexpected path: %s", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("filter") != "jane@example.com" {
		t.Errorf("filter = %q, want the searched email", q.Get("filter"))
	}
	if q.Get("show_emails") != "true" {
		t.Errorf("show_emails = %q, want true", q.Get("show_emails"))
	}
}

func TestFindActiveUser_NotFoundYet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"object instead of array", `{"status":"pending"}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := usersServer(t, http.StatusOK, tt.body, nil)
			defer srv.Close()

			c := New(srv.Client(), srv.URL, "k", "system")
			user, err := c.FindActiveUser(context.Background(), "jane@example.com")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user != nil {
				t.Errorf("expected no match, got %+v", user)
			}
		})
	}
}

func TestFindActiveUser_PrefersCaseInsensitiveEmailMatch(t *testing.T) {
	t.Parallel()

	body := `[
		{"id":1,"username":"janedoe1","email":"jane.doe@example.com"},
		{"id":2,"username":"jane","email":"JANE@example.com"},
		{"id":3,"username":"janet","email":"janet@example.com"}
	]`
	srv := usersServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	user, err := c.FindActiveUser(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user == nil {
		t.Fatal("expected a match")
	}
	if user.Username != "jane" {
		t.Errorf("expected the exact email match, got %s", user.Username)
	}
}

func TestFindActiveUser_FallsBackToFirstResult(t *testing.T) {
	t.Parallel()

	body := `[
		{"id":1,"username":"janedoe1","email":"jane.doe@example.com"},
		{"id":2,"username":"janedoe2","email":"jane.doe2@example.com"}
	]`
	srv := usersServer(t, http.StatusOK, body, nil)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	user, err := c.FindActiveUser(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user == nil || user.Username != "janedoe1" {
		t.Errorf("expected fallback to first result, got %+v", user)
	}
}

func TestFindActiveUser_UpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := usersServer(t, http.StatusForbidden, `invalid key`, nil)
	defer srv.Close()

	c := New(srv.Client(), srv.URL, "k", "system")
	_, err := c.FindActiveUser(context.Background(), "jane@example.com")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("unexpected status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "invalid key") {
		t.Errorf("error %q should carry the response body", err.Error())
	}
}
