// internal/dispatch/retry.go
package dispatch

import "time"

// RetryPolicy bounds how often a retryable delivery failure is re-driven.
// It lives here rather than on the queue so the bound holds no matter what
// transport carries the tasks, and so exhaustion can surface as a FAILED
// terminal state instead of a notification left pending forever.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the delivery contract: five attempts with a
// fixed five-minute backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Delay:       300 * time.Second,
	}
}

// Backoff returns the delay before the next attempt. The schedule is fixed;
// attempt is accepted so a growing schedule stays a local change.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.Delay
}

// Exhausted reports whether the attempt budget is used up.
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
