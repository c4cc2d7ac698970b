// Package clientip extracts the real client IP from HTTP requests served
// behind proxies. Rate-limit identifiers are built on it, so it validates
// every candidate instead of trusting headers blindly.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client's IP address from the request, checking proxy
// headers in priority order before falling back to the socket address:
//
//  1. CF-Connecting-IP (CDN in front of the deployment)
//  2. X-Forwarded-For (standard proxy chain, first valid IP)
//  3. X-Real-IP (reverse proxy)
//  4. RemoteAddr
//
// Returns an empty string only when nothing parses as an IP.
func GetIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for candidate := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, assume it is already a bare IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the input is not a valid IP.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
