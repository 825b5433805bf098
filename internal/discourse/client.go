// Package discourse implements a minimal client for the Discourse admin API.
// Only the calls used by the subscription workflow are exposed: inbound
// mail ingestion, active-user lookup, and group membership updates.
package discourse

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// Authentication headers expected by the Discourse admin API.
const (
	HeaderAPIKey      = "Api-Key"
	HeaderAPIUsername = "Api-Username"
)

// NewHTTPClient creates an HTTP client configured for admin API calls.
// It has appropriate timeouts and does not follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Client issues authenticated requests against one Discourse instance.
// It is cheap to construct; the underlying http.Client is shared.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	apiUser string
}

// New creates a Client for the given instance and credentials.
// If httpClient is nil a default one is created.
func New(httpClient *http.Client, baseURL, apiKey, apiUser string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		apiUser: apiUser,
	}
}

// url joins an API path onto the instance base URL.
func (c *Client) url(path string) string {
	return c.baseURL + path
}

// newRequest builds a request with the admin authentication headers applied.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(HeaderAPIKey, c.apiKey)
	req.Header.Set(HeaderAPIUsername, c.apiUser)
	req.Header.Set("User-Agent", "groupsub/1.0")
	return req, nil
}

// do sends the request and returns the response body. A non-2xx status
// is returned as an *APIError carrying the status code and body verbatim.
func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     req.Method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}
