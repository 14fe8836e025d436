package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/surveyhub/surveyhub/internal/authstate"
	"github.com/surveyhub/surveyhub/internal/platform/httpx"
	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/internal/view"
)

// pendingRefresh asks the browser to retry while a role lookup is in flight.
const pendingRefresh = "1"

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Templates *view.Engine
	Logger    *slog.Logger
	// State reads the request's auth snapshot; defaults to the authstate
	// store bound to the request.
	State func(ctx context.Context) authstate.Snapshot
}

// PendingData feeds pages/pending.html.
type PendingData struct {
	Target string
}

// RequireRole serves next only once the request's auth state settles on
// role. Visitors without it are redirected to the home page.
func (m Middleware) RequireRole(role profiles.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := m.snapshot(r.Context())
			httpx.NoStore(w)
			switch Decide(snapshot, role) {
			case Allow:
				next.ServeHTTP(w, r)
			case Pending:
				m.renderPending(w, r, snapshot)
			default:
				if m.Logger != nil {
					m.Logger.Debug("rbac deny", slog.String("path", r.URL.Path), slog.String("required", role.String()))
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
		})
	}
}

func (m Middleware) renderPending(w http.ResponseWriter, r *http.Request, snapshot authstate.Snapshot) {
	w.Header().Set("Refresh", pendingRefresh)
	if m.Templates == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Loading..."))
		return
	}
	data := view.TemplateData{
		Title:       "Loading...",
		CurrentPath: r.URL.Path,
		Viewer:      authstate.ViewerOf(snapshot),
		Data:        PendingData{Target: r.URL.RequestURI()},
	}
	if err := m.Templates.Render(w, "pages/pending.html", data); err != nil {
		if m.Logger != nil {
			m.Logger.Error("render pending page", slog.Any("error", err))
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (m Middleware) snapshot(ctx context.Context) authstate.Snapshot {
	if m.State != nil {
		return m.State(ctx)
	}
	return authstate.SnapshotFromContext(ctx)
}
