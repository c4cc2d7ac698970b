package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedbackhub/pkg/ratelimit"
)

func TestSlidingLimiter_Check(t *testing.T) {
	t.Parallel()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 3, Window: time.Minute}

		for i := 1; i <= 3; i++ {
			res, err := limiter.Check(context.Background(), "203.0.113.7", policy)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "call %d within the limit must be allowed", i)
			assert.Equal(t, 3-i, res.Remaining)
		}

		res, err := limiter.Check(context.Background(), "203.0.113.7", policy)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Zero(t, res.Remaining)
		assert.Positive(t, res.RetryAfter())
	})

	t.Run("no fresh burst at a window boundary", func(t *testing.T) {
		t.Parallel()

		// A fixed window resets in full once the boundary passes; a
		// sliding window must keep counting every attempt inside the
		// trailing interval, including denied ones.
		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 2, Window: 300 * time.Millisecond}

		check := func() *ratelimit.Result {
			res, err := limiter.Check(context.Background(), "user-1", policy)
			require.NoError(t, err)
			return res
		}

		require.True(t, check().Allowed)
		require.True(t, check().Allowed)

		time.Sleep(100 * time.Millisecond)
		require.False(t, check().Allowed, "third attempt inside the window must be denied")

		// Past the first two attempts' expiry, but the denied attempt at
		// +100ms is still inside the trailing window: exactly one slot is
		// free, not a full fresh limit.
		time.Sleep(250 * time.Millisecond)
		assert.True(t, check().Allowed)
		assert.False(t, check().Allowed)

		// Once the +100ms attempt expires too, a slot opens again.
		time.Sleep(100 * time.Millisecond)
		assert.True(t, check().Allowed)
	})

	t.Run("interleaved concurrent checks never exceed the limit", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 25, Window: time.Minute}

		const goroutines = 20
		const perGoroutine = 10

		var allowed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for range goroutines {
			go func() {
				defer wg.Done()
				for range perGoroutine {
					res, err := limiter.Check(context.Background(), "shared", policy)
					if assert.NoError(t, err) && res.Allowed {
						allowed.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(25), allowed.Load(),
			"all 200 checks fall inside one window, so exactly the limit may pass")
	})

	t.Run("denied reset tracks the oldest surviving attempt", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 1, Window: time.Minute}

		first, err := limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		require.True(t, first.Allowed)

		denied, err := limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		require.False(t, denied.Allowed)

		// Capacity frees when the first attempt leaves the window, so the
		// denial's reset must not be pushed a full window past itself.
		assert.WithinDuration(t, first.ResetAt, denied.ResetAt, 100*time.Millisecond)
	})

	t.Run("identifiers are independent", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 1, Window: time.Minute}

		res, err := limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		require.True(t, res.Allowed)

		res, err = limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		require.False(t, res.Allowed)

		res, err = limiter.Check(context.Background(), "b", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("reset clears the window", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())
		policy := ratelimit.Policy{Limit: 1, Window: time.Minute}

		_, err := limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		require.NoError(t, limiter.Reset(context.Background(), "a"))

		res, err := limiter.Check(context.Background(), "a", policy)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("rejects empty identifier and bad policies", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewSlidingLimiter(ratelimit.NewMemoryWindowStore())

		_, err := limiter.Check(context.Background(), "", ratelimit.Login)
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)

		_, err = limiter.Check(context.Background(), "a", ratelimit.Policy{Limit: 0, Window: time.Minute})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)

		_, err = limiter.Check(context.Background(), "a", ratelimit.Policy{Limit: 1})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
	})
}
