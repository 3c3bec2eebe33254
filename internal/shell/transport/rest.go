// Package transport provides the HTTP clients used to talk to hosting
// platform APIs. The REST client covers Vercel, Netlify and Render; the
// GraphQL client covers Railway and Fly.io.
//
// Transports report failures verbatim (*StatusError, *GraphQLError) and
// never classify them. Mapping a failure onto the error taxonomy is the
// provider adapter's job, since the same status code can mean different
// things on different platforms.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client is a JSON-over-HTTP client bound to one platform API base URL.
// Credentials are passed per request, not held by the client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds transport configuration.
type Config struct {
	BaseURL string // Platform API base URL, e.g., "https://api.vercel.com"
	Timeout time.Duration
}

// NewClient creates a new REST client for a platform API.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API base URL the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// Request / Response Types
// =============================================================================

// Request describes one API call. Body is JSON-marshaled when set; RawBody
// is sent as-is with ContentType for non-JSON payloads such as zip uploads.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Token       string
	Body        any
	RawBody     []byte
	ContentType string
}

// Response holds the status and raw body of a completed call.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError is returned for any non-2xx response. The body is kept
// verbatim so adapters can surface the platform's own message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// =============================================================================
// Operations
// =============================================================================

// Do executes the request and returns the response. Non-2xx statuses are
// returned as a *StatusError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	var body io.Reader
	contentType := r.ContentType

	switch {
	case r.RawBody != nil:
		body = bytes.NewReader(r.RawBody)
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	u := c.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api call",
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// DecodeJSON unmarshals a response body into out.
func DecodeJSON(resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
