package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DSNFunc returns the dedicated database connection string for a workspace.
type DSNFunc func(ctx context.Context, workspaceID uuid.UUID) (string, error)

// Pools implements tenant.DBProvider: one lazily-opened pgx pool per
// workspace, cached for the process lifetime. A pool is keyed by workspace
// ID and never handed to another workspace's request.
type Pools struct {
	mu    sync.Mutex
	pools map[uuid.UUID]*poolEntry
	dsn   DSNFunc
}

// poolEntry serializes the first open per workspace. The provider lock only
// guards the map, so a slow DSN resolution or pool open for one workspace
// never blocks another workspace's requests.
type poolEntry struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// NewPools creates a pool provider resolving connection strings through dsn.
func NewPools(dsn DSNFunc) *Pools {
	return &Pools{
		pools: make(map[uuid.UUID]*poolEntry),
		dsn:   dsn,
	}
}

// Handle returns the workspace's pool, opening it on first use. Concurrent
// first requests for the same workspace share one open; a failed open is not
// cached, so the next request retries.
func (p *Pools) Handle(ctx context.Context, workspaceID uuid.UUID) (*pgxpool.Pool, error) {
	p.mu.Lock()
	e, ok := p.pools[workspaceID]
	if !ok {
		e = &poolEntry{}
		p.pools[workspaceID] = e
	}
	p.mu.Unlock()

	e.once.Do(func() {
		dsn, err := p.dsn(ctx, workspaceID)
		if err != nil {
			e.err = fmt.Errorf("resolve dsn for workspace %s: %w", workspaceID, err)
			return
		}

		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			e.err = fmt.Errorf("open pool for workspace %s: %w", workspaceID, err)
			return
		}
		e.pool = pool
	})

	if e.err != nil {
		p.mu.Lock()
		if p.pools[workspaceID] == e {
			delete(p.pools, workspaceID)
		}
		p.mu.Unlock()
		return nil, e.err
	}

	return e.pool, nil
}

// Close closes every cached pool. Call on shutdown.
func (p *Pools) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, e := range p.pools {
		if e.pool != nil {
			e.pool.Close()
		}
		delete(p.pools, id)
	}
}
