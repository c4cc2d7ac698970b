package tenant

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Context is the unit of tenant isolation for one request. It is constructed
// exactly once by the Resolver, held for the request's lifetime, and never
// mutated after construction except for writes into its scratch cache.
type Context struct {
	Kind Kind

	// Workspace is nil unless Kind is KindTenant, or KindSelfHosted with
	// an existing installation.
	Workspace *Workspace

	// Settings and Subscription are the per-request snapshots loaded
	// alongside the workspace. Nil when Workspace is nil.
	Settings     *Settings
	Subscription *Subscription

	// DB is the tenant-scoped database pool. Nil when the kind carries no
	// workspace or no DBProvider is configured.
	DB *pgxpool.Pool

	mu      sync.RWMutex
	scratch map[string]any
}

// NewContext returns a workspace-less context of the given kind. Resolved
// tenant contexts are built by the Resolver.
func NewContext(kind Kind) *Context {
	return &Context{Kind: kind}
}

// HasWorkspace reports whether a workspace is attached.
func (c *Context) HasWorkspace() bool {
	return c != nil && c.Workspace != nil
}

// WorkspaceID returns the attached workspace's ID, or the zero UUID.
func (c *Context) WorkspaceID() uuid.UUID {
	if !c.HasWorkspace() {
		return uuid.UUID{}
	}
	return c.Workspace.ID
}

// Slug returns the attached workspace's slug, or an empty string.
func (c *Context) Slug() string {
	if !c.HasWorkspace() {
		return ""
	}
	return c.Workspace.Slug
}

// CacheGet reads a value from the request-scoped scratch cache.
func (c *Context) CacheGet(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.scratch[key]
	return v, ok
}

// CacheSet writes a value into the request-scoped scratch cache. The cache is
// created lazily, discarded with the context at request end, and safe for
// concurrent sub-requests sharing the same context.
func (c *Context) CacheSet(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scratch == nil {
		c.scratch = make(map[string]any)
	}
	c.scratch[key] = value
}

// CacheGetOrLoad returns the cached value for key, loading and caching it on
// first use. Concurrent callers for the same key may race the load, but only
// one result is kept; load must therefore be idempotent.
func (c *Context) CacheGetOrLoad(key string, load func() (any, error)) (any, error) {
	if v, ok := c.CacheGet(key); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scratch == nil {
		c.scratch = make(map[string]any)
	}
	if existing, ok := c.scratch[key]; ok {
		return existing, nil
	}
	c.scratch[key] = v
	return v, nil
}
