package profiles

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

const perPage = 25

// Lister reads every profile.
type Lister interface {
	List(ctx context.Context) ([]Profile, error)
}

// Handler renders the admin profile listing.
type Handler struct {
	logger    *slog.Logger
	profiles  Lister
	templates *view.Engine
	csrf      *shared.CSRFManager
	viewer    view.ViewerFunc
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, profiles Lister, templates *view.Engine, csrf *shared.CSRFManager, viewer view.ViewerFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if viewer == nil {
		viewer = view.Anonymous
	}
	return &Handler{logger: logger, profiles: profiles, templates: templates, csrf: csrf, viewer: viewer}
}

// MountRoutes registers the listing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

// ListData feeds pages/profiles.html.
type ListData struct {
	Profiles   []Profile
	Pagination shared.Pagination
	Error      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	data := ListData{}
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.logger.Error("list profiles", slog.Any("error", err))
		data.Error = "Failed to load profiles: " + shared.UserSafeMessage(err)
	} else {
		data.Pagination = shared.NewPagination(shared.ParsePage(r.URL.Query().Get("page")), perPage, len(profiles))
		start, end := data.Pagination.Bounds()
		data.Profiles = profiles[start:end]
	}

	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	if err := h.templates.RenderStatus(w, status, "pages/profiles.html", view.TemplateData{
		Title:       "User Profiles",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render profiles", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
