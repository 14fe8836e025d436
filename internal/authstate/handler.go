package authstate

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/platform/httpx"
)

const streamHeartbeat = 25 * time.Second

// Handler exposes the request's auth state to scripts.
type Handler struct {
	heartbeat time.Duration
}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{heartbeat: streamHeartbeat}
}

// MountRoutes registers the state endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/state", h.showState)
	r.Get("/state/stream", h.streamState)
}

// StateView is the JSON form of a snapshot. It never carries the access token.
type StateView struct {
	User      *auth.Identity `json:"user"`
	Role      *string        `json:"role"`
	Loading   bool           `json:"loading"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
}

// ViewOf converts a snapshot for JSON output.
func ViewOf(s Snapshot) StateView {
	out := StateView{User: s.User, Loading: s.Loading}
	if !s.Role.IsNone() {
		role := s.Role.String()
		out.Role = &role
	}
	if s.Session != nil {
		expires := s.Session.ExpiresAt
		out.ExpiresAt = &expires
	}
	return out
}

func (h *Handler) showState(w http.ResponseWriter, r *http.Request) {
	httpx.NoStore(w)
	httpx.JSON(w, http.StatusOK, ViewOf(SnapshotFromContext(r.Context())))
}

func (h *Handler) streamState(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "auth state unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "streaming unsupported")
		return
	}
	httpx.NoStore(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// The channel only signals a change; the current snapshot is re-read so
	// a dropped signal never leaves the client on a stale state.
	changed := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if err := httpx.Event(w, "state", ViewOf(store.Snapshot())); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-store.Done():
			return
		case <-changed:
			if err := httpx.Event(w, "state", ViewOf(store.Snapshot())); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}
