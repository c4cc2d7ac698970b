package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
)

// setHeaders writes the advisory rate-limit headers emitted on both allowed
// and denied responses.
func setHeaders(w http.ResponseWriter, res *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// Deny renders the standard denial: Retry-After computed from the result and
// a flat 429 body. Exposed for handlers that call Check directly.
func Deny(w http.ResponseWriter, res *Result) {
	setHeaders(w, res)

	retryAfter := int(res.RetryAfter().Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// Middleware enforces policy on every request passing through, keyed by
// keyFunc. Requests without a key pass through unlimited, as do requests
// whose check errors: with a Failover limiter underneath, an error means
// both backends are gone, and denying all traffic then would turn a limiter
// outage into an outage of everything behind it.
//
// A nil keyFunc or an invalid policy panics at wiring time. Letting either
// through would make every Check fail and the error branch wave every
// request past the limit.
func Middleware(limiter Limiter, policy Policy, keyFunc KeyFunc) func(http.Handler) http.Handler {
	if keyFunc == nil {
		panic("ratelimit.Middleware: keyFunc is required")
	}
	if err := policy.validate(); err != nil {
		panic(fmt.Sprintf("ratelimit.Middleware: %v", err))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Check(r.Context(), key, policy)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				Deny(w, res)
				return
			}

			setHeaders(w, res)
			next.ServeHTTP(w, r)
		})
	}
}
