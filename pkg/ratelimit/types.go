package ratelimit

import (
	"context"
	"time"
)

// Policy defines one request-rate ceiling: at most Limit actions per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if p.Limit <= 0 {
		return ErrInvalidLimit
	}
	if p.Window <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the action may proceed.
	Allowed bool

	// Limit is the policy ceiling the check was evaluated against.
	Limit int

	// Remaining is the number of actions left in the current window.
	// Zero when denied.
	Remaining int

	// ResetAt is when capacity becomes available again.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next attempt.
// Returns 0 if the current action was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is the interface sensitive route handlers call before performing
// their own work.
type Limiter interface {
	// Check records one action for identifier under the policy and
	// reports whether it is allowed.
	Check(ctx context.Context, identifier string, policy Policy) (*Result, error)
}
