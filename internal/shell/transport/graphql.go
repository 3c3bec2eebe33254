package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// GraphQLClient executes queries against a single GraphQL endpoint.
// Railway and Fly.io expose their control planes this way.
type GraphQLClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGraphQLClient creates a GraphQL client for a platform API. The
// configured BaseURL is the full endpoint URL, including the path.
func NewGraphQLClient(cfg Config, logger *slog.Logger) *GraphQLClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GraphQLClient{
		endpoint: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Endpoint returns the endpoint URL the client is bound to.
func (c *GraphQLClient) Endpoint() string {
	return c.endpoint
}

// GraphQLErrorEntry is one entry of a GraphQL errors array.
type GraphQLErrorEntry struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// GraphQLError is returned when a response carries a non-empty errors
// array. GraphQL APIs report most failures this way under HTTP 200, so a
// 2xx status alone never means success.
type GraphQLError struct {
	Entries []GraphQLErrorEntry
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		msgs = append(msgs, entry.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Code returns the first extension code carried by the error, if any.
func (e *GraphQLError) Code() string {
	for _, entry := range e.Entries {
		if entry.Extensions.Code != "" {
			return entry.Extensions.Code
		}
	}
	return ""
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage     `json:"data"`
	Errors []GraphQLErrorEntry `json:"errors"`
}

// Execute runs a query and unmarshals the data field into out. Transport
// failures and non-2xx statuses come back as with the REST client; a
// non-empty errors array comes back as a *GraphQLError.
func (c *GraphQLClient) Execute(ctx context.Context, token, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("graphql call",
		"endpoint", c.endpoint,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return &GraphQLError{Entries: envelope.Errors}
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
