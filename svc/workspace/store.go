// Package workspace backs the tenant resolver with the control-plane
// database: authoritative domain lookups, workspace snapshots, and
// per-workspace database pools.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/feedbackhub/pkg/pg"
	"github.com/dmitrymomot/feedbackhub/pkg/tenant"
)

// Store implements tenant.SlugSource and tenant.WorkspaceSource over the
// control-plane database.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a workspace store over the given pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// SlugForDomain is the authoritative domain resolution the domain cache
// shields. An unmapped domain is an empty slug, not an error.
func (s *Store) SlugForDomain(ctx context.Context, host string) (string, error) {
	const q = `
		SELECT w.slug
		FROM workspace_domains d
		JOIN workspaces w ON w.id = d.workspace_id
		WHERE d.domain = $1`

	var slug string
	if err := s.db.QueryRow(ctx, q, host).Scan(&slug); err != nil {
		if pg.IsNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("slug for domain %q: %w", host, err)
	}
	return slug, nil
}

// SoleWorkspace returns the single workspace of a self-hosted deployment.
func (s *Store) SoleWorkspace(ctx context.Context) (*tenant.Snapshot, error) {
	const q = `
		SELECT id, slug, name, created_at, settings, subscription
		FROM workspaces
		ORDER BY created_at
		LIMIT 1`

	return s.scanSnapshot(s.db.QueryRow(ctx, q))
}

// WorkspaceBySlug returns the workspace identified by slug together with its
// settings and subscription snapshot in one round trip.
func (s *Store) WorkspaceBySlug(ctx context.Context, slug string) (*tenant.Snapshot, error) {
	const q = `
		SELECT id, slug, name, created_at, settings, subscription
		FROM workspaces
		WHERE slug = $1`

	return s.scanSnapshot(s.db.QueryRow(ctx, q, slug))
}

// DatabaseURL returns the dedicated database connection string for a
// workspace, for use as the Pools DSN source.
func (s *Store) DatabaseURL(ctx context.Context, workspaceID uuid.UUID) (string, error) {
	const q = `SELECT database_url FROM workspaces WHERE id = $1`

	var dsn string
	if err := s.db.QueryRow(ctx, q, workspaceID).Scan(&dsn); err != nil {
		if pg.IsNotFoundError(err) {
			return "", tenant.ErrWorkspaceNotFound
		}
		return "", fmt.Errorf("database url for workspace %s: %w", workspaceID, err)
	}
	return dsn, nil
}

type row interface {
	Scan(dest ...any) error
}

func (s *Store) scanSnapshot(r row) (*tenant.Snapshot, error) {
	var (
		ws               tenant.Workspace
		settingsJSON     []byte
		subscriptionJSON []byte
	)

	if err := r.Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.CreatedAt, &settingsJSON, &subscriptionJSON); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	snap := &tenant.Snapshot{
		Workspace:    &ws,
		Settings:     &tenant.Settings{},
		Subscription: &tenant.Subscription{},
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, snap.Settings); err != nil {
			return nil, fmt.Errorf("decode settings for %q: %w", ws.Slug, err)
		}
	}
	if len(subscriptionJSON) > 0 {
		if err := json.Unmarshal(subscriptionJSON, snap.Subscription); err != nil {
			return nil, fmt.Errorf("decode subscription for %q: %w", ws.Slug, err)
		}
	}

	return snap, nil
}
