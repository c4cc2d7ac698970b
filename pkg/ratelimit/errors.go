package ratelimit

import "errors"

var (
	// ErrInvalidLimit indicates a policy with a non-positive limit.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrInvalidWindow indicates a policy with a non-positive window.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrKeyRequired indicates a check with an empty identifier.
	ErrKeyRequired = errors.New("identifier is required")

	// ErrStoreUnavailable wraps shared-store failures. The failover
	// limiter recovers from it; it is only visible when no fallback
	// is configured.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
