package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Kind classifies the outcome of tenant resolution for one request.
type Kind string

const (
	// KindTenant means the request's host resolved to a specific workspace.
	KindTenant Kind = "tenant"

	// KindSelfHosted means the deployment runs in single-tenant mode.
	// The workspace may still be absent on a fresh installation.
	KindSelfHosted Kind = "self_hosted"

	// KindAppDomain means the request landed on the operator's own domain.
	KindAppDomain Kind = "app_domain"

	// KindUnknown means the host matched no workspace. Not an error.
	KindUnknown Kind = "unknown"
)

// Workspace is the minimal identity of one customer's isolated slice of the
// product, loaded once per request during resolution.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings is the workspace configuration snapshot carried by a resolved
// Context. It is loaded once per request and never mutated afterwards.
type Settings struct {
	Locale              string `json:"locale"`
	Private             bool   `json:"private"`
	AllowAnonymousVotes bool   `json:"allow_anonymous_votes"`
	CustomCSS           string `json:"custom_css,omitempty"`
}

// Subscription is the workspace billing snapshot carried by a resolved Context.
type Subscription struct {
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the subscription currently grants access.
func (s *Subscription) Active() bool {
	if s == nil {
		return false
	}
	return s.Status == "active" || s.Status == "trialing"
}

// Snapshot bundles everything the resolver loads for a workspace in a single
// round trip: identity plus the settings and subscription state current at
// the moment of the request.
type Snapshot struct {
	Workspace    *Workspace
	Settings     *Settings
	Subscription *Subscription
}

// SlugSource performs the authoritative domain-to-slug resolution behind the
// domain cache. Implementations return an empty slug (and nil error) when the
// domain maps to no workspace; an error means the lookup itself failed.
type SlugSource interface {
	SlugForDomain(ctx context.Context, host string) (string, error)
}

// WorkspaceSource loads workspace snapshots from the data store.
type WorkspaceSource interface {
	// SoleWorkspace returns the single workspace of a self-hosted
	// deployment, or ErrWorkspaceNotFound on a fresh installation.
	SoleWorkspace(ctx context.Context) (*Snapshot, error)

	// WorkspaceBySlug returns the workspace identified by slug, or
	// ErrWorkspaceNotFound if no such workspace exists.
	WorkspaceBySlug(ctx context.Context, slug string) (*Snapshot, error)
}

// DBProvider hands out the tenant-scoped database pool for a workspace.
// Pools must never be shared across workspaces.
type DBProvider interface {
	Handle(ctx context.Context, workspaceID uuid.UUID) (*pgxpool.Pool, error)
}
