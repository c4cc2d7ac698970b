package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// lookupResponse is the wire shape of the internal domain-resolution
// endpoint: {"slug": "acme"} for a known domain, {"slug": null} otherwise.
type lookupResponse struct {
	Slug *string `json:"slug"`
}

type lookupError struct {
	Error string `json:"error"`
}

// validLookupDomain rejects obviously malformed domain parameters before the
// source is consulted. Hostnames only; ports are the caller's job to strip.
func validLookupDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}
	return !strings.ContainsAny(domain, " /\\?#@")
}

// LookupHandler serves the internal domain-resolution endpoint backed by the
// authoritative source. It is meant to be reachable only from the same
// deployment's trusted execution tier, is never rate limited (limiting it
// would create a bootstrapping problem), and must stay cheap: it is the
// uncached path.
func LookupHandler(source SlugSource, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		domain := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("domain")))
		if !validLookupDomain(domain) {
			writeJSON(w, http.StatusBadRequest, lookupError{Error: "invalid domain parameter"})
			return
		}

		slug, err := source.SlugForDomain(r.Context(), domain)
		if err != nil {
			logger.ErrorContext(r.Context(), "domain lookup failed",
				slog.String("domain", domain),
				slog.Any("error", err),
			)
			writeJSON(w, http.StatusInternalServerError, lookupError{Error: "lookup failed"})
			return
		}

		resp := lookupResponse{}
		if slug != "" {
			resp.Slug = &slug
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPSlugSource resolves domains through the internal endpoint instead of a
// direct database connection. It exists for constrained execution tiers that
// cannot open one; everywhere else the store-backed source is the right
// choice.
type HTTPSlugSource struct {
	endpoint string
	client   *http.Client
}

// HTTPSlugSourceOption configures an HTTPSlugSource.
type HTTPSlugSourceOption func(*HTTPSlugSource)

// WithHTTPClient overrides the HTTP client. The client should carry a
// timeout; the default one does.
func WithHTTPClient(client *http.Client) HTTPSlugSourceOption {
	return func(s *HTTPSlugSource) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPSlugSource creates a slug source that calls the internal
// domain-resolution endpoint at the given URL.
func NewHTTPSlugSource(endpoint string, opts ...HTTPSlugSourceOption) *HTTPSlugSource {
	s := &HTTPSlugSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SlugForDomain implements SlugSource over the internal endpoint. An unknown
// domain is an empty slug with a nil error; any transport or server failure
// is an error the resolver turns into a generic failure for that request.
func (s *HTTPSlugSource) SlugForDomain(ctx context.Context, host string) (string, error) {
	if !validLookupDomain(host) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.endpoint+"?domain="+url.QueryEscape(host), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrLookupUnavailable, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}

	if body.Slug == nil {
		return "", nil
	}
	return *body.Slug, nil
}
