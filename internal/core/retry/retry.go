// Package retry defines the backoff schedule for retryable platform calls.
//
// The policy is pure decision logic: given an attempt number it yields a
// delay. Sleeping and cancellation are the orchestrator's job.
package retry

import "time"

// Policy is a bounded exponential backoff schedule.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the schedule.
	MaxDelay time.Duration

	// Multiplier grows the delay between consecutive retries.
	Multiplier float64
}

// DefaultPolicy is the schedule applied to rate-limited and transient
// failures: 500ms, 1s, 2s, ... capped at 8s, four attempts total.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the wait before retry number n (1-based: Delay(1) precedes
// the second attempt).
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}

	d := float64(p.BaseDelay)
	for i := 1; i < n; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.MaxDelay {
			return p.MaxDelay
		}
	}

	if time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Exhausted reports whether attempt number n (1-based) was the last one
// allowed.
func (p Policy) Exhausted(n int) bool {
	return n >= p.MaxAttempts
}
