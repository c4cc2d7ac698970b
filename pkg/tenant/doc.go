// Package tenant implements the request-entry side of multi-tenancy: deciding
// which workspace an inbound HTTP request belongs to and carrying that decision
// through the rest of the request.
//
// The package is built around three pieces:
//
//  1. Resolver - maps a request's host header to a workspace, using an
//     in-process domain cache in front of an authoritative slug source.
//  2. Context - the immutable per-request result of resolution (workspace
//     identity, settings/subscription snapshot, tenant-scoped database pool,
//     and a request-local scratch cache).
//  3. Middleware - runs the resolver once per request and stores the result
//     in the request's context.Context, from where any code in the request's
//     call graph can read it back with FromContext.
//
// # Resolution outcomes
//
// Resolution always produces a Context with one of four kinds:
//
//   - KindTenant: the host mapped to a workspace; identity, settings,
//     subscription, and database handle are populated.
//   - KindSelfHosted: the deployment runs in single-tenant mode; the sole
//     workspace is used, or none exists yet (first-run setup).
//   - KindAppDomain: the request landed on the operator's own domain; no
//     workspace is attached.
//   - KindUnknown: the host matched nothing. This is a terminal outcome,
//     not an error - RequireWorkspace turns it into a not-found response.
//
// A failed authoritative lookup is the only way Resolve returns an error, and
// the middleware renders it as a generic 500 without leaking which slugs exist.
//
// # Usage
//
//	cache := tenant.NewDomainCache()
//	defer cache.Close()
//
//	resolver, err := tenant.NewResolver(cfg, store, store,
//		tenant.WithDomainCache(cache),
//		tenant.WithDBProvider(pools),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	r.Use(tenant.Middleware(resolver))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		tc := tenant.MustFromContext(r.Context())
//		// tc.Workspace, tc.DB, tc.Settings ...
//	}
//
// # Isolation
//
// The resolved Context travels on the request's context.Context under a
// private key. Two concurrently served requests can never observe each
// other's Context because nothing about resolution is process-global: the
// only shared state is the domain cache, which maps host strings to slugs
// and never holds request-scoped data. MustFromContext panics when called
// outside a resolved request so that a missing middleware shows up as a
// loud failure instead of a silent cross-tenant default.
package tenant
