// Command server wires the request-entry pipeline: configuration, logging,
// the control-plane database, the optional shared rate-limit store, tenant
// resolution, and the HTTP entry points. Feature modules mount their routes
// behind the tenant-scoped group.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/feedbackhub/pkg/config"
	"github.com/dmitrymomot/feedbackhub/pkg/httpserver"
	"github.com/dmitrymomot/feedbackhub/pkg/logger"
	"github.com/dmitrymomot/feedbackhub/pkg/pg"
	"github.com/dmitrymomot/feedbackhub/pkg/ratelimit"
	rds "github.com/dmitrymomot/feedbackhub/pkg/redis"
	"github.com/dmitrymomot/feedbackhub/pkg/tenant"
	"github.com/dmitrymomot/feedbackhub/svc/workspace"
)

func main() {
	var (
		logCfg    logger.Config
		dbCfg     pg.Config
		redisCfg  rds.Config
		tenantCfg tenant.Config
		httpCfg   httpserver.Config
	)
	config.MustLoad(&logCfg)
	config.MustLoad(&dbCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&tenantCfg)
	config.MustLoad(&httpCfg)

	log := logger.NewFromConfig(logCfg,
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)

	ctx := context.Background()

	db, err := pg.Connect(ctx, dbCfg)
	if err != nil {
		log.Error("control-plane database unavailable", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	store := workspace.NewStore(db)
	pools := workspace.NewPools(store.DatabaseURL)
	defer pools.Close()

	// The shared store is optional: without it rate limiting is
	// per-process and domain lookups rely on the in-process cache only.
	checks := []func(context.Context) error{pg.Healthcheck(db)}
	var redisClient *redis.Client
	if redisCfg.Enabled() {
		redisClient, err = rds.Connect(ctx, redisCfg)
		if err != nil {
			log.Warn("shared rate limit store unavailable, running local-only", logger.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			checks = append(checks, rds.Healthcheck(redisClient))
		}
	}
	limiter := newLimiter(redisClient, log)

	cache := tenant.NewDomainCache()
	defer cache.Close()

	resolver, err := tenant.NewResolver(tenantCfg, store, store,
		tenant.WithDomainCache(cache),
		tenant.WithDBProvider(pools),
	)
	if err != nil {
		log.Error("invalid tenant configuration", logger.Error(err))
		os.Exit(1)
	}

	router := newRouter(resolver, store, limiter, log, checks)

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, router); err != nil {
		log.Error("server terminated", logger.Error(err))
		os.Exit(1)
	}
}

// newLimiter keeps the nil check on the concrete pointer: a typed nil stuffed
// into the interface parameter would not compare equal to nil inside New.
func newLimiter(client *redis.Client, log *slog.Logger) ratelimit.Limiter {
	if client == nil {
		return ratelimit.New(nil, ratelimit.WithLogger(log))
	}
	return ratelimit.New(client, ratelimit.WithLogger(log))
}

func newRouter(
	resolver *tenant.Resolver,
	store *workspace.Store,
	limiter ratelimit.Limiter,
	log *slog.Logger,
	checks []func(context.Context) error,
) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, checks...))

	// Trusted-tier only; the deployment must not route it publicly.
	// Deliberately not rate limited: it is the uncached resolution path.
	r.Get("/internal/resolve-domain", tenant.LookupHandler(store, log))

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(resolver, tenant.WithLogger(log)))

		// Coarse per-IP ceiling over the whole public API surface.
		r.Use(ratelimit.Middleware(limiter,
			ratelimit.Policy{Limit: 120, Window: time.Minute},
			ratelimit.ByIP(),
		))

		r.Get("/api/v1/tenant", currentTenantHandler)

		r.Group(func(r chi.Router) {
			r.Use(tenant.RequireWorkspace(nil))

			// Workspace-scoped feature routes (boards, posts, votes)
			// mount here; vote handlers combine the global and
			// per-post policies via limiter.Check before writing.
		})
	})

	return r
}

// currentTenantHandler reports the resolved tenant for the request. Useful
// for edge debugging and as the probe the onboarding flow polls while a
// custom domain propagates.
func currentTenantHandler(w http.ResponseWriter, r *http.Request) {
	tc := tenant.MustFromContext(r.Context())

	resp := struct {
		Kind string `json:"kind"`
		Slug string `json:"slug,omitempty"`
	}{
		Kind: string(tc.Kind),
		Slug: tc.Slug(),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}
