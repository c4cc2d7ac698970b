package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/feedbackhub/pkg/ratelimit"
)

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	t.Run("by ip uses the client address", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "203.0.113.7:51234"

		assert.Equal(t, "203.0.113.7", ratelimit.ByIP()(req))
	})

	t.Run("by ip honors forwarding headers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")

		assert.Equal(t, "198.51.100.4", ratelimit.ByIP()(req))
	})

	t.Run("by header trims and can be empty", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/votes", nil)
		req.Header.Set("X-User-ID", "  u_42  ")

		fn := ratelimit.ByHeader("X-User-ID")
		assert.Equal(t, "u_42", fn(req))

		req.Header.Del("X-User-ID")
		assert.Empty(t, fn(req))
	})

	t.Run("scoped prefixes non-empty keys only", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/votes", nil)
		req.RemoteAddr = "203.0.113.7:51234"

		assert.Equal(t, "vote:203.0.113.7", ratelimit.Scoped("vote", ratelimit.ByIP())(req))

		empty := ratelimit.Scoped("vote", func(*http.Request) string { return "" })
		assert.Empty(t, empty(req), "scope must not produce a key out of nothing")
	})

	t.Run("composite joins parts", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/votes", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		req.Header.Set("X-User-ID", "u_42")

		fn := ratelimit.Composite(ratelimit.ByHeader("X-User-ID"), ratelimit.ByIP())
		assert.Equal(t, "u_42:203.0.113.7", fn(req))
	})

	t.Run("composite skips empty parts", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/votes", nil)
		req.RemoteAddr = "203.0.113.7:51234"

		fn := ratelimit.Composite(ratelimit.ByHeader("X-User-ID"), ratelimit.ByIP())
		assert.Equal(t, "203.0.113.7", fn(req))

		allEmpty := ratelimit.Composite(ratelimit.ByHeader("X-User-ID"))
		assert.Empty(t, allEmpty(req))
	})

	t.Run("long composites hash to a stable bounded key", func(t *testing.T) {
		t.Parallel()

		long := func(*http.Request) string { return strings.Repeat("x", 100) }
		fn := ratelimit.Composite(long, ratelimit.ByIP())

		req := httptest.NewRequest("POST", "/votes", nil)
		req.RemoteAddr = "203.0.113.7:51234"

		first := fn(req)
		assert.Len(t, first, 32)
		assert.Equal(t, first, fn(req), "hashed key must be deterministic")

		other := ratelimit.Composite(long, func(*http.Request) string { return "different" })(req)
		assert.NotEqual(t, first, other)
	})
}
