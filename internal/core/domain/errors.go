package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Failure Taxonomy
// =============================================================================

// Every remote failure is classified into exactly one of these kinds before
// it leaves a platform adapter. Retry decisions look only at the kind, never
// at raw status codes.
var (
	// ErrAuth means the token is bad or expired. Non-retryable; the user
	// must supply a new token.
	ErrAuth = errors.New("authentication failed")

	// ErrIdentity means the account/workspace/organization discovery call
	// failed. Distinct from ErrAuth: the token may be valid but lack the
	// scope needed for discovery, or the account may have no workspace.
	ErrIdentity = errors.New("identity resolution failed")

	// ErrRateLimited is retryable with backoff up to a bounded attempt count.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient covers 5xx responses and network-level failures.
	// Retryable with the same backoff policy as ErrRateLimited.
	ErrTransient = errors.New("transient network failure")

	// ErrValidation means the platform rejected the request (bad artifact
	// set, name conflict, malformed payload). Non-retryable; the platform
	// message is surfaced verbatim.
	ErrValidation = errors.New("request rejected")

	// ErrTimeout means polling exceeded its bound. Reported as a Failed
	// result, never as a crash.
	ErrTimeout = errors.New("timed out waiting for deployment")

	// ErrInvalidTransition guards the deployment state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PlatformError wraps a platform API failure with classification context.
type PlatformError struct {
	Platform   string // platform id (vercel, netlify, ...)
	Op         string // operation that failed
	StatusCode int    // HTTP status, 0 if the request never completed
	Message    string // platform-provided detail, safe to show the user
	Err        error  // always one of the sentinel kinds above
}

func (e *PlatformError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %v: %s", e.Platform, e.Op, e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError creates a classified platform error.
func NewPlatformError(platform, op string, kind error, statusCode int, message string) *PlatformError {
	return &PlatformError{
		Platform:   platform,
		Op:         op,
		StatusCode: statusCode,
		Message:    message,
		Err:        kind,
	}
}

// Retryable reports whether a classified error may be retried.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
