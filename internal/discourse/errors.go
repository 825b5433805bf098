package discourse

import "fmt"

// APIError describes a non-2xx response from the Discourse API.
// The upstream status code and response body are preserved verbatim so
// callers can surface them unchanged.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discourse: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}
