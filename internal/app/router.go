package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/surveyhub/surveyhub/internal/analytics/http"
	"github.com/surveyhub/surveyhub/internal/auth"
	"github.com/surveyhub/surveyhub/internal/authstate"
	"github.com/surveyhub/surveyhub/internal/contact"
	"github.com/surveyhub/surveyhub/internal/observability"
	"github.com/surveyhub/surveyhub/internal/platform/httpx"
	"github.com/surveyhub/surveyhub/internal/profiles"
	"github.com/surveyhub/surveyhub/internal/rbac"
	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/survey"
	"github.com/surveyhub/surveyhub/internal/view"
	"github.com/surveyhub/surveyhub/jobs"
	"github.com/surveyhub/surveyhub/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthState        *authstate.Registry
	AuthHandler      *auth.Handler
	StateHandler     *authstate.Handler
	SurveyHandler    *survey.Handler
	AnalyticsHandler *analytichttp.Handler
	ContactHandler   *contact.Handler
	ProfilesHandler  *profiles.Handler
	JobHandler       *jobs.Handler
	RBACMiddleware   rbac.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with SurveyHub defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		AuthState:      params.AuthState,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	pages := pageRenderer{templates: params.Templates, csrf: params.CSRFManager, logger: logger}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		pages.render(w, r, http.StatusOK, "pages/home.html", "Home")
	})

	r.Route("/auth", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.StateHandler != nil {
			params.StateHandler.MountRoutes(r)
		}
	})

	if params.SurveyHandler != nil {
		r.Route("/create", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireRole(profiles.RoleAdmin))
			params.SurveyHandler.MountAuthoring(r)
		})
		r.Route("/survey", params.SurveyHandler.MountTaking)
	}
	if params.AnalyticsHandler != nil {
		r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
	}
	if params.ContactHandler != nil {
		r.Route("/contact", params.ContactHandler.MountRoutes)
	}
	if params.ProfilesHandler != nil {
		r.Route("/profiles", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireRole(profiles.RoleAdmin))
			params.ProfilesHandler.MountRoutes(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("route not found", slog.String("path", r.URL.Path))
		pages.render(w, r, http.StatusNotFound, "pages/notfound.html", "Page Not Found")
	})

	return r
}

// pageRenderer renders the static pages owned by the router itself.
type pageRenderer struct {
	templates *view.Engine
	csrf      *shared.CSRFManager
	logger    *slog.Logger
}

func (p pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, name, title string) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		if p.csrf != nil {
			csrfToken, _ = p.csrf.EnsureToken(r.Context(), sess)
		}
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      authstate.ViewerFromContext(r.Context()),
	}
	if err := p.templates.RenderStatus(w, status, name, data); err != nil {
		p.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
