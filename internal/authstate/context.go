package authstate

import (
	"context"
	"net/http"

	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

type storeContextKey struct{}

// ContextWithStore attaches store to ctx.
func ContextWithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// StoreFromContext returns the store attached by Middleware, or nil.
func StoreFromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// SnapshotFromContext returns the current snapshot for the request. Without
// a store the request is treated as signed out.
func SnapshotFromContext(ctx context.Context) Snapshot {
	store := StoreFromContext(ctx)
	if store == nil {
		return Snapshot{}
	}
	return store.Snapshot()
}

// Middleware binds the store for the browser session to each request. It
// must run after the session middleware. A session created by the current
// request cannot carry a sign-in yet, so it is served as signed out without
// starting a store.
func Middleware(registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.IsNew() || registry == nil {
				next.ServeHTTP(w, r)
				return
			}
			store := registry.Acquire(sess.ID)
			next.ServeHTTP(w, r.WithContext(ContextWithStore(r.Context(), store)))
		})
	}
}

// ViewerOf converts a snapshot into template-facing data.
func ViewerOf(s Snapshot) view.Viewer {
	v := view.Viewer{
		SignedIn: s.SignedIn(),
		IsAdmin:  s.HasRole(profiles.RoleAdmin),
		Loading:  s.Loading,
	}
	if s.User != nil {
		v.Email = s.User.Email
	}
	return v
}

// ViewerFromContext is ViewerOf for the request's snapshot.
func ViewerFromContext(ctx context.Context) view.Viewer {
	return ViewerOf(SnapshotFromContext(ctx))
}
