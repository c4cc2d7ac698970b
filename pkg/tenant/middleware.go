package tenant

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrorHandler renders errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// defaultErrorHandler deliberately leaks nothing about which slugs exist:
// resolution failures are a flat 500, a missing workspace is a flat 404.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoContext), errors.Is(err, ErrWorkspaceNotFound):
		http.Error(w, "Workspace not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

type middlewareConfig struct {
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// MiddlewareOption configures the tenant middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithLogger sets a logger for resolution failures.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Middleware resolves the tenant once per request and attaches the result to
// the request context. Every downstream handler, including those serving
// KindUnknown or KindAppDomain requests, can rely on a context being present.
func Middleware(resolver *Resolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		logger:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "tenant resolution failed",
					slog.String("host", r.Host),
					slog.Any("error", err),
				)
				cfg.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), tc)))
		})
	}
}

// RequireWorkspace guards routes that only make sense inside a workspace.
// Unknown hosts, the operator's app domain, and a self-hosted first run all
// get the not-found response; the resolver's state machine stays untouched.
func RequireWorkspace(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := FromContext(r.Context())
			if !ok {
				errorHandler(w, r, ErrNoContext)
				return
			}
			if !tc.HasWorkspace() {
				errorHandler(w, r, ErrWorkspaceNotFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
