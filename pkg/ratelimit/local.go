package ratelimit

import (
	"context"
	"sync"
	"time"
)

// defaultSweepInterval is how often the local limiter drops expired entries.
// The sweep is advisory only: an unswept expired entry is still treated as
// expired on its next read.
const defaultSweepInterval = 5 * time.Minute

type localEntry struct {
	count   int
	resetAt time.Time
}

// LocalLimiter is the per-process fixed-window backend. It never returns an
// error, which makes it the safe floor for the failover limiter.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// LocalOption configures a LocalLimiter.
type LocalOption func(*LocalLimiter)

// WithSweepInterval overrides the expired-entry sweep interval.
// Set to 0 to disable the sweep.
func WithSweepInterval(interval time.Duration) LocalOption {
	return func(l *LocalLimiter) {
		l.sweepInterval = interval
	}
}

// NewLocalLimiter creates an in-process fixed-window limiter.
func NewLocalLimiter(opts ...LocalOption) *LocalLimiter {
	l := &LocalLimiter{
		entries:       make(map[string]*localEntry),
		sweepInterval: defaultSweepInterval,
		stop:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.sweepInterval > 0 {
		go l.sweep()
	}

	return l
}

// Check implements Limiter. Entries are independent, so a single lock around
// the map is all the coordination the fixed window needs.
func (l *LocalLimiter) Check(ctx context.Context, identifier string, policy Policy) (*Result, error) {
	if identifier == "" {
		return nil, ErrKeyRequired
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || now.After(e.resetAt) {
		// First action in a fresh window, replace-on-write.
		e = &localEntry{count: 1, resetAt: now.Add(policy.Window)}
		l.entries[identifier] = e
		return &Result{
			Allowed:   true,
			Limit:     policy.Limit,
			Remaining: policy.Limit - 1,
			ResetAt:   e.resetAt,
		}, nil
	}

	if e.count >= policy.Limit {
		return &Result{
			Allowed:   false,
			Limit:     policy.Limit,
			Remaining: 0,
			ResetAt:   e.resetAt,
		}, nil
	}

	e.count++
	return &Result{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit - e.count,
		ResetAt:   e.resetAt,
	}, nil
}

// Reset clears the window for an identifier.
func (l *LocalLimiter) Reset(ctx context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, identifier)
	return nil
}

func (l *LocalLimiter) sweep() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, e := range l.entries {
				if now.After(e.resetAt) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (l *LocalLimiter) Close() error {
	l.stopOnce.Do(func() { close(l.stop) })
	return nil
}
