package survey

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

const requiredNotice = "This question is required to continue"

// Submission is a completed set of answers handed to the reporter.
type Submission struct {
	SurveyID    string         `json:"survey_id"`
	SurveyTitle string         `json:"survey_title"`
	Answers     map[string]any `json:"answers"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Reporter forwards submissions to the external submission endpoint.
type Reporter interface {
	ReportSubmission(ctx context.Context, sub Submission) error
}

// SubmissionObserver counts submissions.
type SubmissionObserver interface {
	ObserveSubmission(surveyID string)
}

// HandlerConfig groups the collaborators of Handler.
type HandlerConfig struct {
	Logger    *slog.Logger
	Catalog   *Catalog
	States    *StateStore
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Viewer    view.ViewerFunc
	Reporter  Reporter
	Observer  SubmissionObserver
}

// Handler serves the survey builder and the survey-taking wizard.
type Handler struct {
	logger    *slog.Logger
	catalog   *Catalog
	states    *StateStore
	templates *view.Engine
	csrf      *shared.CSRFManager
	viewer    view.ViewerFunc
	reporter  Reporter
	observer  SubmissionObserver
	validator *validator.Validate
	now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	viewer := cfg.Viewer
	if viewer == nil {
		viewer = view.Anonymous
	}
	return &Handler{
		logger:    logger,
		catalog:   cfg.Catalog,
		states:    cfg.States,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		viewer:    viewer,
		reporter:  cfg.Reporter,
		observer:  cfg.Observer,
		validator: validator.New(),
		now:       time.Now,
	}
}

// MountAuthoring registers the builder routes. Callers guard them.
func (h *Handler) MountAuthoring(r chi.Router) {
	r.Get("/", h.showDraft)
	r.Get("/preview", h.previewDraft)
	r.Post("/details", h.updateDetails)
	r.Post("/questions", h.addQuestion)
	r.Post("/questions/{qid}", h.updateQuestion)
	r.Post("/questions/{qid}/delete", h.deleteQuestion)
	r.Post("/questions/{qid}/options", h.addOption)
	r.Post("/questions/{qid}/options/{idx}", h.updateOption)
	r.Post("/questions/{qid}/options/{idx}/delete", h.removeOption)
	r.Post("/discard", h.discardDraft)
	r.Post("/publish", h.publishDraft)
}

// MountTaking registers the wizard routes.
func (h *Handler) MountTaking(r chi.Router) {
	r.Get("/{id}", h.showQuestion)
	r.Post("/{id}", h.answerQuestion)
	r.Get("/{id}/thanks", h.showThanks)
}

// CreateData feeds pages/create.html and pages/preview.html.
type CreateData struct {
	Draft Draft
	Types []QuestionType
}

type detailsForm struct {
	Title       string `validate:"max=200"`
	Description string `validate:"max=2000"`
}

func (h *Handler) showDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/create.html", "Create Survey", CreateData{Draft: draft, Types: QuestionTypes})
}

func (h *Handler) previewDraft(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.loadDraft(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "pages/preview.html", "Preview: "+draft.Title, CreateData{Draft: draft, Types: QuestionTypes})
}

func (h *Handler) updateDetails(w http.ResponseWriter, r *http.Request) {
	form := detailsForm{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RedirectWithFlash(w, r, "/create", "error", "Title or description is too long.")
		return
	}
	h.apply(w, r, "", func(d Draft) Draft { return d.WithDetails(form.Title, form.Description) })
}

func (h *Handler) addQuestion(w http.ResponseWriter, r *http.Request) {
	t, err := ParseQuestionType(r.PostFormValue("type"))
	if err != nil {
		shared.RedirectWithFlash(w, r, "/create", "error", "Unknown question type.")
		return
	}
	var added string
	h.apply(w, r, "", func(d Draft) Draft {
		next := d.AddQuestion(t)
		if n := len(next.Questions); n > 0 {
			added = next.Questions[n-1].ID
		}
		return next
	}, func() string { return added })
}

func (h *Handler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "qid")
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	var patch QuestionPatch
	if r.PostForm.Has("title") {
		title := r.PostForm.Get("title")
		patch.Title = &title
	}
	// The editor posts a hidden "off" ahead of the checkbox so that an
	// unchecked box is still sent.
	if values, ok := r.PostForm["required"]; ok {
		required := slices.Contains(values, "on")
		patch.Required = &required
	}
	h.apply(w, r, qid, func(d Draft) Draft {
		return d.UpdateQuestion(qid, patch)
	})
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "qid")
	h.apply(w, r, "", func(d Draft) Draft { return d.DeleteQuestion(qid) })
}

func (h *Handler) addOption(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "qid")
	h.apply(w, r, qid, func(d Draft) Draft { return d.AddOption(qid) })
}

func (h *Handler) updateOption(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "qid")
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	value := r.PostFormValue("value")
	h.apply(w, r, qid, func(d Draft) Draft { return d.UpdateOption(qid, idx, value) })
}

func (h *Handler) removeOption(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "qid")
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.apply(w, r, qid, func(d Draft) Draft { return d.RemoveOption(qid, idx) })
}

func (h *Handler) discardDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := clientKey(w, r)
	if !ok {
		return
	}
	if err := h.states.DeleteDraft(r.Context(), key); err != nil {
		h.logger.Error("discard draft", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	shared.RedirectWithFlash(w, r, "/create", "success", "Draft discarded.")
}

func (h *Handler) publishDraft(w http.ResponseWriter, r *http.Request) {
	shared.RedirectWithFlash(w, r, "/create", "info", "Publishing surveys is not available yet. Your draft is kept for this session.")
}

// apply loads the draft, runs op and stores the result. anchor names the
// question to scroll back to; anchorFn overrides it once op has run.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, anchor string, op func(Draft) Draft, anchorFn ...func() string) {
	key, ok := clientKey(w, r)
	if !ok {
		return
	}
	draft, err := h.states.LoadDraft(r.Context(), key)
	if err != nil {
		h.logger.Error("load draft", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	next := op(draft)
	if err := h.states.SaveDraft(r.Context(), key, next); err != nil {
		h.logger.Error("save draft", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	for _, fn := range anchorFn {
		anchor = fn()
	}
	location := "/create"
	if anchor != "" {
		location += "#q-" + anchor
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	key, ok := clientKey(w, r)
	if !ok {
		return Draft{}, false
	}
	draft, err := h.states.LoadDraft(r.Context(), key)
	if err != nil {
		h.logger.Error("load draft", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Draft{}, false
	}
	return draft, true
}

// TakeData feeds pages/take.html.
type TakeData struct {
	Survey     Survey
	Action     string
	Question   Question
	Answer     Answer
	Number     int
	Total      int
	Progress   int
	IsFirst    bool
	IsLast     bool
	CanProceed bool
	Notice     string
	Ratings    []int
}

func (h *Handler) showQuestion(w http.ResponseWriter, r *http.Request) {
	wizard, ok := h.loadWizard(w, r)
	if !ok {
		return
	}
	h.renderWizard(w, r, http.StatusOK, wizard, "")
}

func (h *Handler) answerQuestion(w http.ResponseWriter, r *http.Request) {
	key, ok := clientKey(w, r)
	if !ok {
		return
	}
	wizard, ok := h.loadWizard(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	current := wizard.Current()
	if r.PostForm.Get("question_id") == current.ID {
		answer, err := ParseAnswer(current, r.PostForm["answer"])
		if err == nil && !answer.Empty() {
			err = wizard.RecordAnswer(current.ID, answer)
		} else if err == nil {
			wizard.ClearAnswer(current.ID)
		}
		if err != nil {
			h.renderWizard(w, r, http.StatusUnprocessableEntity, wizard, answerNotice(err))
			return
		}
	}

	survey := wizard.Survey()
	switch r.PostForm.Get("action") {
	case "previous":
		wizard.GoPrevious()
	case "submit":
		answers, err := wizard.Submit()
		if err != nil {
			h.saveWizard(r.Context(), key, wizard)
			h.renderWizard(w, r, http.StatusUnprocessableEntity, wizard, answerNotice(err))
			return
		}
		sub := Submission{SurveyID: survey.ID, SurveyTitle: survey.Title, Answers: Values(answers), SubmittedAt: h.now().UTC()}
		if err := h.report(r.Context(), sub); err != nil {
			h.logger.Error("report submission", slog.String("survey_id", survey.ID), slog.Any("error", err))
			h.saveWizard(r.Context(), key, wizard)
			h.renderWizard(w, r, http.StatusServiceUnavailable, wizard, "We could not submit your responses. Please try again.")
			return
		}
		if err := h.states.DeleteWizard(r.Context(), key, survey.ID); err != nil {
			h.logger.Warn("clear wizard", slog.Any("error", err))
		}
		http.Redirect(w, r, "/survey/"+chi.URLParam(r, "id")+"/thanks", http.StatusSeeOther)
		return
	default:
		if !wizard.GoNext() && !wizard.IsLast() {
			h.saveWizard(r.Context(), key, wizard)
			h.renderWizard(w, r, http.StatusUnprocessableEntity, wizard, requiredNotice)
			return
		}
	}
	h.saveWizard(r.Context(), key, wizard)
	http.Redirect(w, r, "/survey/"+chi.URLParam(r, "id"), http.StatusSeeOther)
}

func (h *Handler) showThanks(w http.ResponseWriter, r *http.Request) {
	survey := h.catalog.Get(chi.URLParam(r, "id"))
	h.render(w, r, http.StatusOK, "pages/thanks.html", survey.Title, survey)
}

func (h *Handler) report(ctx context.Context, sub Submission) error {
	h.logger.Info("survey submitted", slog.String("survey_id", sub.SurveyID), slog.Int("answers", len(sub.Answers)))
	h.logger.Debug("survey responses", slog.String("survey_id", sub.SurveyID), slog.Any("answers", sub.Answers))
	if h.reporter != nil {
		if err := h.reporter.ReportSubmission(ctx, sub); err != nil {
			return err
		}
	}
	if h.observer != nil {
		h.observer.ObserveSubmission(sub.SurveyID)
	}
	return nil
}

func (h *Handler) loadWizard(w http.ResponseWriter, r *http.Request) (*Wizard, bool) {
	key, ok := clientKey(w, r)
	if !ok {
		return nil, false
	}
	survey := h.catalog.Get(chi.URLParam(r, "id"))
	state, found, err := h.states.LoadWizard(r.Context(), key, survey.ID)
	if err != nil {
		h.logger.Error("load wizard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	if !found {
		return NewWizard(survey), true
	}
	return Resume(survey, state), true
}

func (h *Handler) saveWizard(ctx context.Context, key string, wizard *Wizard) {
	if err := h.states.SaveWizard(ctx, key, wizard.State()); err != nil {
		h.logger.Error("save wizard", slog.Any("error", err))
	}
}

func (h *Handler) renderWizard(w http.ResponseWriter, r *http.Request, status int, wizard *Wizard, notice string) {
	q := wizard.Current()
	answer, _ := wizard.Answer(q.ID)
	if notice == "" && !wizard.CanProceed() {
		notice = requiredNotice
	}
	data := TakeData{
		Survey:     wizard.Survey(),
		Action:     "/survey/" + chi.URLParam(r, "id"),
		Question:   q,
		Answer:     answer,
		Number:     wizard.Index() + 1,
		Total:      wizard.Total(),
		Progress:   wizard.Progress(),
		IsFirst:    wizard.IsFirst(),
		IsLast:     wizard.IsLast(),
		CanProceed: wizard.CanProceed(),
		Notice:     notice,
		Ratings:    []int{1, 2, 3, 4, 5},
	}
	h.render(w, r, status, "pages/take.html", data.Survey.Title, data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		flash = sess.PopFlash()
	}
	if err := h.templates.RenderStatus(w, status, name, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render survey page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func answerNotice(err error) string {
	switch {
	case errors.Is(err, ErrAnswerRequired):
		return requiredNotice
	case errors.Is(err, ErrRatingRange):
		return "Choose a rating from 1 to 5."
	case errors.Is(err, ErrUnknownOption):
		return "Choose one of the listed options."
	case errors.Is(err, ErrNotLastQuestion):
		return "Answer the remaining questions before submitting."
	default:
		return "That answer could not be recorded."
	}
}

func clientKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return "", false
	}
	return sess.ID, true
}
