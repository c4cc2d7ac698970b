package tenant

import (
	"sync"
	"time"
)

// DomainCache shields the authoritative slug source from being hit on every
// request. Implementations must distinguish a cached negative result (the
// domain is known to map to nothing) from a plain miss.
type DomainCache interface {
	// Lookup returns the cached slug for host. hit reports whether any
	// entry was found; a hit with an empty slug is a cached negative.
	Lookup(host string) (slug string, hit bool)

	// Store records the result of an authoritative lookup for host.
	// An empty slug stores a negative entry so repeated requests for an
	// unknown host do not trigger repeated lookups.
	Store(host, slug string)

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultDomainTTL bounds how long a stale domain mapping can be served after
// it changes. A window this small is an accepted trade-off, never a
// correctness violation: an entry is only ever written with the result of a
// lookup keyed by that exact host string.
const DefaultDomainTTL = 60 * time.Second

type domainEntry struct {
	slug      string
	expiresAt time.Time
}

// domainCache is the in-process DomainCache implementation. Entries expire
// lazily on read; the background sweep only bounds memory.
type domainCache struct {
	mu      sync.RWMutex
	entries map[string]domainEntry
	ttl     time.Duration

	stop sync.Once
	quit chan struct{}
}

// DomainCacheOption configures a DomainCache.
type DomainCacheOption func(*domainCache)

// WithDomainTTL overrides the entry TTL. Intended for tests; production
// deployments use DefaultDomainTTL.
func WithDomainTTL(ttl time.Duration) DomainCacheOption {
	return func(c *domainCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewDomainCache creates an in-process domain cache with a periodic sweep of
// expired entries. Callers own the cache and must Close it on shutdown.
func NewDomainCache(opts ...DomainCacheOption) DomainCache {
	c := &domainCache{
		entries: make(map[string]domainEntry),
		ttl:     DefaultDomainTTL,
		quit:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.sweep()

	return c
}

func (c *domainCache) Lookup(host string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[host]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	// A read past expiry is a miss; the entry is dropped so the caller's
	// fresh lookup replaces it.
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[host]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, host)
		}
		c.mu.Unlock()
		return "", false
	}

	return e.slug, true
}

func (c *domainCache) Store(host, slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[host] = domainEntry{
		slug:      slug,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// sweep periodically drops expired entries. Correctness never depends on it;
// it only keeps the map from growing with hosts that are never asked again.
func (c *domainCache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for host, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, host)
				}
			}
			c.mu.Unlock()
		case <-c.quit:
			return
		}
	}
}

func (c *domainCache) Close() error {
	c.stop.Do(func() { close(c.quit) })
	return nil
}

// noOpDomainCache never caches. Every lookup misses, forcing the resolver to
// hit the authoritative source each time. Useful in tests.
type noOpDomainCache struct{}

// NewNoOpDomainCache returns a cache that does not cache.
func NewNoOpDomainCache() DomainCache { return noOpDomainCache{} }

func (noOpDomainCache) Lookup(string) (string, bool) { return "", false }
func (noOpDomainCache) Store(string, string)         {}
func (noOpDomainCache) Close() error                 { return nil }
