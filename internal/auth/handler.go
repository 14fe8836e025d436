package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

// Flows is the subset of Service the auth pages drive.
type Flows interface {
	SignInWithPassword(ctx context.Context, key, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, redirectTo string) error
	SignOut(ctx context.Context, key string) error
	Verify(ctx context.Context, token string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	flows       Flows
	templates   *view.Engine
	sessions    *shared.SessionManager
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
	publicURL   string
	viewer      view.ViewerFunc
}

// NewHandler constructs a Handler instance. publicURL is the origin that
// verification links point back to.
func NewHandler(logger *slog.Logger, flows Flows, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, publicURL string, viewer view.ViewerFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if viewer == nil {
		viewer = view.Anonymous
	}
	return &Handler{
		logger:      logger,
		flows:       flows,
		templates:   templates,
		sessions:    sessions,
		csrfManager: csrf,
		validator:   validator.New(),
		publicURL:   strings.TrimRight(publicURL, "/"),
		viewer:      viewer,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showAuth)
	r.Post("/signin", h.handleSignIn)
	r.Post("/signup", h.handleSignUp)
	r.Post("/signout", h.handleSignOut)
	r.Get("/verify", h.handleVerify)
}

type signInForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type signUpForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// PageData feeds pages/auth.html.
type PageData struct {
	Tab    string
	Email  string
	Error  string
	Errors map[string]string
}

func (h *Handler) showAuth(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab != "signup" {
		tab = "signin"
	}
	h.render(w, r, http.StatusOK, PageData{Tab: tab})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during sign in")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	form := signInForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := PageData{Tab: "signin", Email: form.Email, Errors: h.validate(form)}
	if len(data.Errors) > 0 {
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	if _, err := h.flows.SignInWithPassword(r.Context(), sess.ID, form.Email, form.Password); err != nil {
		h.logFailure("sign in", err)
		data.Error = "Error signing in: " + Message(err)
		h.render(w, r, http.StatusUnauthorized, data)
		return
	}
	shared.RedirectWithFlash(w, r, "/", "success", "Signed in successfully!")
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := signUpForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := PageData{Tab: "signup", Email: form.Email, Errors: h.validate(form)}
	if len(data.Errors) > 0 {
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	if err := h.flows.SignUp(r.Context(), form.Email, form.Password, h.redirectTo(r)); err != nil {
		h.logFailure("sign up", err)
		data.Error = "Error signing up: " + Message(err)
		status := http.StatusBadRequest
		if !errors.Is(err, ErrEmailTaken) {
			status = http.StatusInternalServerError
		}
		h.render(w, r, status, data)
		return
	}
	shared.RedirectWithFlash(w, r, "/auth", "success", "Sign up successful! Please check your email to verify your account.")
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.flows.SignOut(r.Context(), sess.ID); err != nil {
			h.logger.Warn("sign out", slog.Any("error", err))
		}
		if h.sessions != nil {
			h.sessions.Destroy(sess)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.flows.Verify(r.Context(), token); err != nil {
		h.logFailure("verify", err)
		shared.RedirectWithFlash(w, r, "/auth", "error", Message(err))
		return
	}
	shared.RedirectWithFlash(w, r, "/auth", "success", "Email verified. You can sign in now.")
}

func (h *Handler) validate(form any) map[string]string {
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fieldErrors[fieldErr.Field()] = fieldMessage(fieldErr)
			}
		}
	}
	return fieldErrors
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// redirectTo is the origin verification links return to.
func (h *Handler) redirectTo(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handler) logFailure(op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmailNotConfirmed),
		errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInvalidToken):
		h.logger.Info(op+" rejected", slog.Any("error", err))
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	title := "Sign In"
	if data.Tab == "signup" {
		title = "Sign Up"
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r.Context()),
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, "pages/auth.html", viewData); err != nil {
		h.logger.Error("render auth page", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
