package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dmitrymomot/feedbackhub/pkg/clientip"
)

// maxKeyLength caps identifier length to keep storage keys bounded in
// backends like Redis. Longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate-limit identifier from an HTTP request.
// An empty return skips limiting for that request.
type KeyFunc func(*http.Request) string

// ByIP keys the limit on the proxy-aware client IP.
func ByIP() KeyFunc {
	return func(r *http.Request) string {
		return clientip.GetIP(r)
	}
}

// ByHeader keys the limit on a request header value, e.g. an authenticated
// user ID injected by the auth layer.
func ByHeader(name string) KeyFunc {
	return func(r *http.Request) string {
		return strings.TrimSpace(r.Header.Get(name))
	}
}

// Scoped prefixes another key with a fixed scope so the same identifier can
// carry independent budgets, e.g. "vote" vs "vote:post:42".
func Scoped(scope string, fn KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		key := fn(r)
		if key == "" {
			return ""
		}
		return scope + ":" + key
	}
}

// Composite joins multiple key functions into one identifier. Composites
// longer than maxKeyLength are SHA-256 hashed to 32 hex chars; 128 bits is
// enough collision resistance for a counter key.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}

		return combined
	}
}
