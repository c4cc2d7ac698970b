package tenant_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/feedbackhub/pkg/tenant"
)

// TestIsolation_ConcurrentRequests is the core isolation invariant: for hosts
// h1 != h2 served concurrently in the same process, the context observed
// inside h1's request never belongs to h2.
func TestIsolation_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	const workspaces = 20

	slugMap := make(map[string]string, workspaces)
	snapMap := make(map[string]*tenant.Snapshot, workspaces)
	for i := range workspaces {
		slug := fmt.Sprintf("w%d", i)
		host := fmt.Sprintf("feedback.%s.example.com", slug)
		slugMap[host] = slug
		snapMap[slug] = snapshotFor(slug)
	}

	cache := tenant.NewDomainCache()
	defer cache.Close()

	resolver, err := tenant.NewResolver(multiTenantConfig(),
		&stubSlugSource{slugs: slugMap},
		&stubWorkspaceSource{snapshots: snapMap},
		tenant.WithDomainCache(cache),
	)
	require.NoError(t, err)

	// The handler re-reads the context after scheduling points deep in the
	// call graph and checks it still matches the request's own host.
	handler := tenant.Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := slugMap[r.Host]

		tc := tenant.MustFromContext(r.Context())
		assert.Equal(t, want, tc.Slug())

		done := make(chan struct{})
		go func() {
			defer close(done)
			nested := tenant.MustFromContext(r.Context())
			assert.Equal(t, want, nested.Slug())
		}()
		<-done

		again := tenant.MustFromContext(r.Context())
		assert.Equal(t, want, again.Slug())
		assert.Equal(t, snapMap[want].Workspace.ID, again.WorkspaceID())

		w.WriteHeader(http.StatusOK)
	}))

	const goroutines = 100
	const iterations = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := range goroutines {
		go func(g int) {
			defer wg.Done()
			for i := range iterations {
				slug := fmt.Sprintf("w%d", (g+i)%workspaces)
				host := fmt.Sprintf("feedback.%s.example.com", slug)

				req := httptest.NewRequest("GET", "http://"+host+"/posts", nil)
				req.Host = host
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		}(g)
	}
	wg.Wait()
}
