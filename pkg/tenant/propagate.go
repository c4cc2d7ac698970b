package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext attaches a resolved tenant context to ctx. The middleware calls
// this once per request; the value is request-scoped and never shared between
// concurrently executing requests.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the tenant context from ctx.
// Returns nil, false when the request was not resolved.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	return tc, ok
}

// MustFromContext retrieves the tenant context from ctx and panics when it is
// missing. Calling it outside a resolved request scope is a programming error
// (a missing Middleware), and defaulting silently would be how one tenant's
// request ends up served with another tenant's state.
func MustFromContext(ctx context.Context) *Context {
	tc, ok := FromContext(ctx)
	if !ok || tc == nil {
		panic("tenant: no tenant context in request scope")
	}
	return tc
}

// WorkspaceIDFromContext retrieves just the workspace ID from ctx.
// Returns the zero UUID and false when no workspace is attached.
func WorkspaceIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tc, ok := FromContext(ctx)
	if !ok || !tc.HasWorkspace() {
		return uuid.UUID{}, false
	}
	return tc.Workspace.ID, true
}

// LoggerExtractor returns a ContextExtractor for the logger that annotates
// records emitted inside a resolved request with the workspace identity.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		tc, ok := FromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		if !tc.HasWorkspace() {
			return slog.String("tenant_kind", string(tc.Kind)), true
		}
		return slog.Group("tenant",
			slog.String("workspace_id", tc.Workspace.ID.String()),
			slog.String("slug", tc.Workspace.Slug),
		), true
	}
}
