package ratelimit_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedbackhub/pkg/ratelimit"
)

type brokenLimiter struct {
	calls atomic.Int64
}

func (b *brokenLimiter) Check(ctx context.Context, identifier string, policy ratelimit.Policy) (*ratelimit.Result, error) {
	b.calls.Add(1)
	return nil, errors.Join(ratelimit.ErrStoreUnavailable, errors.New("dial tcp: connection refused"))
}

type fixedLimiter struct {
	result *ratelimit.Result
}

func (f *fixedLimiter) Check(ctx context.Context, identifier string, policy ratelimit.Policy) (*ratelimit.Result, error) {
	return f.result, nil
}

func TestFailover_Check(t *testing.T) {
	t.Parallel()

	t.Run("healthy primary is used as-is", func(t *testing.T) {
		t.Parallel()

		want := &ratelimit.Result{Allowed: true, Limit: 5, Remaining: 4, ResetAt: time.Now().Add(time.Minute)}
		fallback := ratelimit.NewLocalLimiter(ratelimit.WithSweepInterval(0))
		f := ratelimit.NewFailover(&fixedLimiter{result: want}, fallback)

		res, err := f.Check(context.Background(), "a", ratelimit.Login)
		require.NoError(t, err)
		assert.Same(t, want, res)
	})

	t.Run("failing primary falls back to a well-formed local result", func(t *testing.T) {
		t.Parallel()

		primary := &brokenLimiter{}
		fallback := ratelimit.NewLocalLimiter(ratelimit.WithSweepInterval(0))
		f := ratelimit.NewFailover(primary, fallback)
		policy := ratelimit.Policy{Limit: 2, Window: time.Minute}

		res, err := f.Check(context.Background(), "203.0.113.7", policy)
		require.NoError(t, err, "shared-store outage must not surface to the caller")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Limit)
		assert.Equal(t, 1, res.Remaining)
		assert.False(t, res.ResetAt.IsZero())

		// The fallback still enforces the policy on its own.
		_, err = f.Check(context.Background(), "203.0.113.7", policy)
		require.NoError(t, err)
		res, err = f.Check(context.Background(), "203.0.113.7", policy)
		require.NoError(t, err)
		assert.False(t, res.Allowed)

		assert.Equal(t, int64(3), primary.calls.Load(), "primary is retried on every call")
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil client builds a local-only limiter", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.New(nil)
		_, ok := limiter.(*ratelimit.LocalLimiter)
		assert.True(t, ok)

		res, err := limiter.Check(context.Background(), "a", ratelimit.Signup)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, ratelimit.Signup.Limit, res.Limit)
	})
}
