package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config carries the deployment-level settings consumed by the resolver.
type Config struct {
	AppDomain     string        `env:"APP_DOMAIN"`                           // AppDomain is the operator's own marketing/control domain. Required unless SelfHosted.
	SelfHosted    bool          `env:"SELF_HOSTED" envDefault:"false"`       // SelfHosted switches the deployment to single-tenant mode. Never inferred from workspace count.
	LookupTimeout time.Duration `env:"DOMAIN_LOOKUP_TIMEOUT" envDefault:"5s"` // LookupTimeout bounds the authoritative domain lookup.
}

// defaultSkipPrefixes match static-asset and infrastructure paths that bypass
// resolution entirely. A pure performance short-circuit, not a tenant decision.
var defaultSkipPrefixes = []string{
	"/static/",
	"/assets/",
	"/favicon.ico",
	"/robots.txt",
	"/healthz",
}

// Resolver maps an inbound request to a tenant Context. It owns no business
// logic: one cache read, at most one authoritative lookup, at most one
// snapshot load per request, all-or-nothing.
type Resolver struct {
	cfg          Config
	cache        DomainCache
	slugs        SlugSource
	workspaces   WorkspaceSource
	dbs          DBProvider
	skipPrefixes []string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDomainCache sets the domain resolution cache. Defaults to a no-op
// cache, which forces an authoritative lookup per request.
func WithDomainCache(cache DomainCache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithDBProvider sets the provider of tenant-scoped database pools. Without
// one, resolved contexts carry no database handle.
func WithDBProvider(dbs DBProvider) ResolverOption {
	return func(r *Resolver) {
		r.dbs = dbs
	}
}

// WithSkipPrefixes replaces the default static-asset skip patterns.
func WithSkipPrefixes(prefixes []string) ResolverOption {
	return func(r *Resolver) {
		r.skipPrefixes = prefixes
	}
}

// NewResolver creates a resolver for the given deployment configuration.
// Multi-tenant mode without a configured app domain is a configuration error
// and fails here rather than degrading at request time.
func NewResolver(cfg Config, slugs SlugSource, workspaces WorkspaceSource, opts ...ResolverOption) (*Resolver, error) {
	if !cfg.SelfHosted && cfg.AppDomain == "" {
		return nil, ErrMissingAppDomain
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}

	r := &Resolver{
		cfg:          cfg,
		cache:        NewNoOpDomainCache(),
		slugs:        slugs,
		workspaces:   workspaces,
		skipPrefixes: defaultSkipPrefixes,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Resolve produces the tenant Context for one request. It never partially
// succeeds: any lookup or load failure surfaces as a single error wrapping
// ErrResolutionFailed, and an unknown host is a KindUnknown context, not an
// error.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Context, error) {
	if r.skip(req.URL.Path) {
		// Placeholder context for paths that never touch tenant data.
		return NewContext(KindAppDomain), nil
	}

	if r.cfg.SelfHosted {
		return r.resolveSelfHosted(ctx)
	}

	host := stripPort(req.Host)
	if host == "" {
		return NewContext(KindUnknown), nil
	}

	// The operator's own domain never resolves to a workspace, so it is
	// answered before the cache and never stored as a negative entry.
	if strings.EqualFold(host, r.cfg.AppDomain) {
		return NewContext(KindAppDomain), nil
	}

	slug, hit := r.cache.Lookup(host)
	if !hit {
		var err error
		slug, err = r.lookupSlug(ctx, host)
		if err != nil {
			return nil, err
		}
		// Negative results are cached too, so a flood of requests for
		// the same unknown host costs one authoritative lookup per TTL.
		r.cache.Store(host, slug)
	}

	if slug == "" {
		return NewContext(KindUnknown), nil
	}

	return r.buildWorkspaceContext(ctx, KindTenant, slug)
}

// resolveSelfHosted loads the sole workspace of a single-tenant deployment.
// A fresh installation without a workspace row yields a workspace-less
// context that drives first-run setup, not an error.
func (r *Resolver) resolveSelfHosted(ctx context.Context) (*Context, error) {
	snap, err := r.workspaces.SoleWorkspace(ctx)
	if err != nil {
		if errors.Is(err, ErrWorkspaceNotFound) {
			return NewContext(KindSelfHosted), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	return r.attach(ctx, KindSelfHosted, snap)
}

// lookupSlug runs the authoritative lookup under an explicit deadline so
// resolver work cannot accumulate unboundedly under a flood of requests for
// unknown hosts.
func (r *Resolver) lookupSlug(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	slug, err := r.slugs.SlugForDomain(ctx, host)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}
	return slug, nil
}

func (r *Resolver) buildWorkspaceContext(ctx context.Context, kind Kind, slug string) (*Context, error) {
	snap, err := r.workspaces.WorkspaceBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrWorkspaceNotFound) {
			// The domain mapping outlived the workspace; treat the
			// host as unknown rather than failing the request.
			return NewContext(KindUnknown), nil
		}
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	return r.attach(ctx, kind, snap)
}

func (r *Resolver) attach(ctx context.Context, kind Kind, snap *Snapshot) (*Context, error) {
	tc := &Context{
		Kind:         kind,
		Workspace:    snap.Workspace,
		Settings:     snap.Settings,
		Subscription: snap.Subscription,
	}

	if r.dbs != nil && snap.Workspace != nil {
		db, err := r.dbs.Handle(ctx, snap.Workspace.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
		}
		tc.DB = db
	}

	return tc, nil
}

func (r *Resolver) skip(path string) bool {
	for _, prefix := range r.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// stripPort normalizes a host header to its bare host name.
func stripPort(host string) string {
	host = strings.TrimSpace(host)
	// Leave bracketed IPv6 literals without a port intact.
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	return strings.ToLower(host)
}
