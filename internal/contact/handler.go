package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

const thankYou = "Thank you for your message! We'll get back to you soon."

// Mailer delivers the support message.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Message is a submitted contact form.
type Message struct {
	Name    string `validate:"required,max=120,singleline"`
	Email   string `validate:"required,email"`
	Subject string `validate:"required,max=200,singleline"`
	Body    string `validate:"required,max=5000"`
}

// PageData feeds pages/contact.html.
type PageData struct {
	Form     Message
	Errors   map[string]string
	Error    string
	Channels []Info
	FAQs     []FAQ
}

// Handler renders the contact page and accepts messages.
type Handler struct {
	logger       *slog.Logger
	mailer       Mailer
	templates    *view.Engine
	csrf         *shared.CSRFManager
	viewer       view.ViewerFunc
	supportEmail string
	validator    *validator.Validate
}

// NewHandler constructs a Handler. Messages are sent to supportEmail.
func NewHandler(logger *slog.Logger, mailer Mailer, templates *view.Engine, csrf *shared.CSRFManager, supportEmail string, viewer view.ViewerFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if viewer == nil {
		viewer = view.Anonymous
	}
	return &Handler{
		logger:       logger,
		mailer:       mailer,
		templates:    templates,
		csrf:         csrf,
		viewer:       viewer,
		supportEmail: supportEmail,
		validator:    newValidator(),
	}
}

// newValidator adds "singleline", which rejects CR and LF in fields that
// end up in mail headers.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// MountRoutes registers the contact routes. Submissions are rate limited per client address.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/", h.submit)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, PageData{})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	msg := Message{
		Name:    strings.TrimSpace(r.PostForm.Get("name")),
		Email:   strings.TrimSpace(r.PostForm.Get("email")),
		Subject: strings.TrimSpace(r.PostForm.Get("subject")),
		Body:    strings.TrimSpace(r.PostForm.Get("message")),
	}
	if err := h.validator.Struct(msg); err != nil {
		h.render(w, r, http.StatusBadRequest, PageData{Form: msg, Errors: fieldErrors(err)})
		return
	}
	if h.mailer != nil {
		if err := h.mailer.SendMail(r.Context(), h.supportEmail, "[Contact] "+msg.Subject, supportBody(msg)); err != nil {
			h.logger.Error("queue contact message", slog.Any("error", err))
			h.render(w, r, http.StatusServiceUnavailable, PageData{Form: msg, Error: "We could not send your message. Please try again later."})
			return
		}
	}
	h.logger.Info("contact message received", slog.String("subject", msg.Subject))
	shared.RedirectWithFlash(w, r, "/contact", "success", thankYou)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	data.Channels = Channels(h.supportEmail)
	data.FAQs = FAQs
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	if err := h.templates.RenderStatus(w, status, "pages/contact.html", view.TemplateData{
		Title:       "Contact Us",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render contact", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func supportBody(msg Message) string {
	return fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", msg.Name, msg.Email, msg.Subject, msg.Body)
}

var fieldLabels = map[string]string{
	"Name":    "Full name",
	"Email":   "Email address",
	"Subject": "Subject",
	"Body":    "Message",
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["form"] = "Please check the form and try again."
		return out
	}
	for _, fe := range verrs {
		label := fieldLabels[fe.Field()]
		key := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[key] = label + " is required"
		case "email":
			out[key] = "Enter a valid email address"
		case "max":
			out[key] = fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		case "singleline":
			out[key] = label + " must fit on one line"
		default:
			out[key] = label + " is invalid"
		}
	}
	return out
}
