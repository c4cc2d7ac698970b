package tenant

import "errors"

var (
	// ErrWorkspaceNotFound is returned by workspace sources when no
	// workspace matches the requested identifier.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrNoContext is returned when a resolved tenant context is required
	// but missing from the request scope.
	ErrNoContext = errors.New("no tenant context in request scope")

	// ErrResolutionFailed wraps authoritative lookup or snapshot load
	// failures. Callers render it as a generic internal error.
	ErrResolutionFailed = errors.New("tenant resolution failed")

	// ErrMissingAppDomain is returned at construction time when a
	// multi-tenant resolver is configured without the operator's domain.
	ErrMissingAppDomain = errors.New("app domain is not configured")

	// ErrInvalidDomain is returned for lookup requests with a missing or
	// malformed domain parameter.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrLookupUnavailable is returned when the internal resolution
	// endpoint cannot be reached or answers with a non-success status.
	ErrLookupUnavailable = errors.New("domain lookup unavailable")
)
