package authstate

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyhub/surveyhub/internal/shared"
)

func newSessionChain(t *testing.T, registry *Registry, next http.Handler) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "surveyhub_session", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return shared.SessionMiddleware(sessions, logger)(Middleware(registry)(next))
}

func TestMiddlewareSkipsCookielessRequests(t *testing.T) {
	registry := NewRegistry(newFakeProvider(), newFakeRoles(), time.Minute, nil)
	defer registry.Close()

	var sawStore bool
	var snap Snapshot
	chain := newSessionChain(t, registry, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawStore = StoreFromContext(r.Context()) != nil
		snap = SnapshotFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 500; i++ {
		rr := httptest.NewRecorder()
		chain.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	assert.Zero(t, registry.Len())
	assert.False(t, sawStore)
	assert.False(t, snap.Loading)
	assert.False(t, snap.SignedIn())
}

func TestMiddlewareBindsStoreForReturningSession(t *testing.T) {
	registry := NewRegistry(newFakeProvider(), newFakeRoles(), time.Minute, nil)
	defer registry.Close()

	var store *Store
	chain := newSessionChain(t, registry, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store = StoreFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	chain.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Nil(t, store)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		chain.ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, store)
		assert.Equal(t, cookies[0].Value, store.Key())
	}
	assert.Equal(t, 1, registry.Len())
}
