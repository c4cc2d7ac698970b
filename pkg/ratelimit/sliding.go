package ratelimit

import (
	"context"
	"time"
)

// WindowStore performs the storage side of one sliding-window check. The
// Record call is the critical section: trim, insert, and count must act as a
// single atomic step so that interleaved checks from concurrent callers (or
// other processes, for shared backends) cannot both observe the pre-insert
// count.
type WindowStore interface {
	// Record drops members older than windowStart, records one member at
	// now, refreshes the key's expiry to ttl, and returns the member count
	// within the window after the insert.
	Record(ctx context.Context, key string, now, windowStart time.Time, ttl time.Duration) (int, error)

	// OldestInWindow returns the timestamp of the oldest surviving member,
	// or the zero time when the key holds none.
	OldestInWindow(ctx context.Context, key string) (time.Time, error)

	// Delete clears all members for the key.
	Delete(ctx context.Context, key string) error
}

// SlidingLimiter enforces true sliding-window semantics over a WindowStore:
// no more than policy.Limit actions succeed within any window-wide interval,
// not just within fixed window boundaries.
type SlidingLimiter struct {
	store WindowStore
}

// NewSlidingLimiter creates a limiter over the given store.
func NewSlidingLimiter(store WindowStore) *SlidingLimiter {
	return &SlidingLimiter{store: store}
}

// Check implements Limiter. The denied action's member stays recorded, so
// hammering a denied identifier keeps pushing its reset time out.
func (l *SlidingLimiter) Check(ctx context.Context, identifier string, policy Policy) (*Result, error) {
	if identifier == "" {
		return nil, ErrKeyRequired
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	now := time.Now()

	count, err := l.store.Record(ctx, identifier, now, now.Add(-policy.Window), policy.Window)
	if err != nil {
		return nil, err
	}

	allowed := count <= policy.Limit

	remaining := policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(policy.Window)
	if !allowed {
		if oldest, err := l.store.OldestInWindow(ctx, identifier); err == nil && !oldest.IsZero() {
			// Capacity frees up when the oldest surviving member
			// slides out of the window.
			resetAt = oldest.Add(policy.Window)
		}
	}

	return &Result{
		Allowed:   allowed,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the window for an identifier.
func (l *SlidingLimiter) Reset(ctx context.Context, identifier string) error {
	return l.store.Delete(ctx, identifier)
}
