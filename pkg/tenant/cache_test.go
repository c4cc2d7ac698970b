package tenant_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedbackhub/pkg/tenant"
)

func TestDomainCache(t *testing.T) {
	t.Parallel()

	t.Run("stores and retrieves slug", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		defer cache.Close()

		cache.Store("feedback.acme.com", "acme")

		slug, hit := cache.Lookup("feedback.acme.com")
		require.True(t, hit)
		assert.Equal(t, "acme", slug)
	})

	t.Run("reports miss for unknown host", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		defer cache.Close()

		slug, hit := cache.Lookup("nobody.example.com")
		assert.False(t, hit)
		assert.Empty(t, slug)
	})

	t.Run("caches negative results as hits", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		defer cache.Close()

		cache.Store("unknown.example.com", "")

		slug, hit := cache.Lookup("unknown.example.com")
		require.True(t, hit)
		assert.Empty(t, slug)
	})

	t.Run("expires entries after ttl", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache(tenant.WithDomainTTL(20 * time.Millisecond))
		defer cache.Close()

		cache.Store("feedback.acme.com", "acme")

		slug, hit := cache.Lookup("feedback.acme.com")
		require.True(t, hit)
		require.Equal(t, "acme", slug)

		time.Sleep(30 * time.Millisecond)

		_, hit = cache.Lookup("feedback.acme.com")
		assert.False(t, hit, "read past expiry must be a miss")
	})

	t.Run("overwrites existing entries", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		defer cache.Close()

		cache.Store("feedback.acme.com", "acme")
		cache.Store("feedback.acme.com", "globex")

		slug, hit := cache.Lookup("feedback.acme.com")
		require.True(t, hit)
		assert.Equal(t, "globex", slug)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewDomainCache()
		defer cache.Close()

		const goroutines = 50

		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := range goroutines {
			go func(i int) {
				defer wg.Done()
				host := fmt.Sprintf("w%d.example.com", i%10)
				slug := fmt.Sprintf("w%d", i%10)
				for range 200 {
					cache.Store(host, slug)
					if got, hit := cache.Lookup(host); hit {
						assert.Equal(t, slug, got)
					}
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestNoOpDomainCache(t *testing.T) {
	t.Parallel()

	cache := tenant.NewNoOpDomainCache()
	cache.Store("feedback.acme.com", "acme")

	_, hit := cache.Lookup("feedback.acme.com")
	assert.False(t, hit)
	assert.NoError(t, cache.Close())
}
