package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/artpar/miniploy/internal/core/domain"
	"github.com/artpar/miniploy/internal/shell/transport"
)

// =============================================================================
// Error Classification
// =============================================================================

// Adapters classify every transport failure into the domain taxonomy before
// returning it. Cancellation passes through unclassified so the caller can
// tell an aborted deploy from a failed one.

// classifyREST maps a REST transport failure onto the taxonomy.
func classifyREST(platformID, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		kind := domain.ErrValidation
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			kind = domain.ErrAuth
		case statusErr.StatusCode == http.StatusTooManyRequests:
			kind = domain.ErrRateLimited
		case statusErr.StatusCode >= 500:
			kind = domain.ErrTransient
		}
		return domain.NewPlatformError(platformID, op, kind, statusErr.StatusCode, platformMessage(statusErr.Body))
	}

	return domain.NewPlatformError(platformID, op, domain.ErrTransient, 0, err.Error())
}

// classifyGraphQL maps a GraphQL failure onto the taxonomy. A non-empty
// errors array arrives under HTTP 200, so classification reads the error
// code and message rather than the status.
func classifyGraphQL(platformID, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gqlErr *transport.GraphQLError
	if errors.As(err, &gqlErr) {
		kind := domain.ErrValidation
		code := gqlErr.Code()
		msg := strings.ToLower(gqlErr.Error())
		switch {
		case code == "UNAUTHORIZED" || code == "UNAUTHENTICATED" ||
			strings.Contains(msg, "not authorized") || strings.Contains(msg, "unauthenticated"):
			kind = domain.ErrAuth
		case code == "RATE_LIMITED" || strings.Contains(msg, "rate limit"):
			kind = domain.ErrRateLimited
		}
		return domain.NewPlatformError(platformID, op, kind, http.StatusOK, gqlErr.Error())
	}

	return classifyREST(platformID, op, err)
}

// classifyIdentity narrows an already classified discovery failure. A 403
// means the token is valid but lacks the discovery scope; that is an
// identity failure, not an auth failure. Retryable kinds pass through so
// backoff still applies to rate limits during discovery.
func classifyIdentity(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if domain.Retryable(err) {
		return err
	}

	var platformErr *domain.PlatformError
	if errors.As(err, &platformErr) {
		if errors.Is(err, domain.ErrAuth) && platformErr.StatusCode == http.StatusUnauthorized {
			return err
		}
		return domain.NewPlatformError(platformErr.Platform, platformErr.Op, domain.ErrIdentity, platformErr.StatusCode, platformErr.Message)
	}
	return err
}

// platformMessage extracts the human-readable message from a platform error
// body. Vercel nests it under error.message; Netlify and Render use a
// top-level message. The raw body is the fallback.
func platformMessage(body string) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &nested); err == nil {
		if nested.Error.Message != "" {
			return nested.Error.Message
		}
		if nested.Message != "" {
			return nested.Message
		}
	}
	return strings.TrimSpace(body)
}
