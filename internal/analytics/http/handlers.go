package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/surveyhub/surveyhub/internal/analytics"
	"github.com/surveyhub/surveyhub/internal/analytics/export"
	"github.com/surveyhub/surveyhub/internal/analytics/svg"
	"github.com/surveyhub/surveyhub/internal/analytics/ui"
	"github.com/surveyhub/surveyhub/internal/platform/httpx"
	"github.com/surveyhub/surveyhub/internal/shared"
	"github.com/surveyhub/surveyhub/internal/view"
)

const requestTimeout = 2 * time.Second

// DefaultSurveyID is shown when no survey query parameter is given.
const DefaultSurveyID = "customer-satisfaction"

// DashboardService defines the dashboard data contract used by the handler.
type DashboardService interface {
	Dashboard(ctx context.Context, surveyID string) (analytics.Dashboard, error)
}

// Handler coordinates HTTP requests for the response analytics dashboard.
type Handler struct {
	logger    *slog.Logger
	service   DashboardService
	templates *view.Engine
	timeline  ui.TimelineRenderer
	bar       ui.BarRenderer
	pie       ui.PieRenderer
	viewer    view.ViewerFunc
	csvPool   sync.Pool
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, templates *view.Engine, renderers ui.Renderers, viewer view.ViewerFunc) *Handler {
	if viewer == nil {
		viewer = view.Anonymous
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		timeline:  renderers,
		bar:       renderers,
		pie:       renderers,
		viewer:    viewer,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	surveyID, err := surveyParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dash, err := h.service.Dashboard(ctx, surveyID)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	vm, err := h.buildViewModel(ctx, dash)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	var flash *shared.FlashMessage
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Survey Analytics",
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r.Context()),
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/analytics.html", viewData); err != nil {
		h.handleServerError(w, "render analytics", err)
	}
}

func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	surveyID, err := surveyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dash, err := h.service.Dashboard(ctx, surveyID)
	if err != nil {
		h.logError("load dashboard", err)
		httpx.RespondError(w, dashboardError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	surveyID, err := surveyParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dash, err := h.service.Dashboard(ctx, surveyID)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.csvPool.Put(buf)
	if err := export.WriteDashboardCSV(buf, dash); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+surveyID+`-analytics.csv"`)
	_, _ = buf.WriteTo(w)
}

// buildViewModel renders the four charts concurrently.
func (h *Handler) buildViewModel(ctx context.Context, dash analytics.Dashboard) (ui.DashboardViewModel, error) {
	if h.timeline == nil || h.bar == nil || h.pie == nil {
		return ui.DashboardViewModel{}, errors.New("svg renderer missing")
	}
	vm := ui.DashboardViewModel{
		SurveyID:       dash.SurveyID,
		Stats:          ui.ToStatCards(dash.Stats),
		Legend:         ui.ToLegend(dash.ServiceRatings),
		ServiceRatings: ui.Chart{Title: "Service Rating Distribution"},
		Recommendation: ui.Chart{Title: "Recommendation Rating (1-5)"},
		Timeline:       ui.Chart{Title: "Responses This Week"},
		Features:       ui.Chart{Title: "Most Valuable Features"},
	}

	g, ctx := errgroup.WithContext(ctx)
	ready := func() error { return ctx.Err() }

	g.Go(func() error {
		if err := ready(); err != nil {
			return err
		}
		labels := make([]string, 0, len(vm.Legend))
		values := make([]float64, 0, len(vm.Legend))
		colors := make([]string, 0, len(vm.Legend))
		for _, entry := range vm.Legend {
			labels = append(labels, entry.Label)
			values = append(values, entry.Value)
			colors = append(colors, entry.Color)
		}
		out, err := h.pie.Pie(svg.DefaultHeight, values, labels, svg.PieOpts{
			Title:       vm.ServiceRatings.Title,
			Description: "Share of respondents per overall service rating",
			Colors:      colors,
		})
		vm.ServiceRatings.SVG = out
		return err
	})

	g.Go(func() error {
		if err := ready(); err != nil {
			return err
		}
		labels, values := ui.SplitPoints(dash.Recommendation)
		out, err := h.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, values, nil, labels, svg.BarOpts{
			Title:       vm.Recommendation.Title,
			Description: "Responses per recommendation rating",
			Colors:      []string{analytics.Palette[0]},
		})
		vm.Recommendation.SVG = out
		return err
	})

	g.Go(func() error {
		if err := ready(); err != nil {
			return err
		}
		labels, values := ui.SplitPoints(dash.Timeline)
		out, err := h.timeline.Timeline(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.TimelineOpts{
			Title:       vm.Timeline.Title,
			Description: "Responses received per day",
			Unit:        "responses",
			StrokeColor: analytics.Palette[0],
			FillColor:   analytics.Palette[1],
		})
		vm.Timeline.SVG = out
		return err
	})

	g.Go(func() error {
		if err := ready(); err != nil {
			return err
		}
		labels, values := ui.SplitPoints(dash.Features)
		out, err := h.bar.Bars(svg.DefaultWidth, svg.DefaultHeight, values, nil, labels, svg.BarOpts{
			Title:       vm.Features.Title,
			Description: "Share of respondents valuing each feature",
			Colors:      analytics.Palette,
		})
		vm.Features.SVG = out
		return err
	})

	if err := g.Wait(); err != nil {
		return ui.DashboardViewModel{}, err
	}
	return vm, nil
}

var surveyIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// surveyParam reads the survey query parameter, defaulting to
// DefaultSurveyID. Ids are lowercase slugs.
func surveyParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("survey"))
	if id == "" {
		return DefaultSurveyID, nil
	}
	if !surveyIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: survey must be a lowercase slug", httpx.ErrValidation)
	}
	return id, nil
}

// dashboardError maps service failures onto the JSON problem vocabulary
// without exposing infrastructure detail.
func dashboardError(err error) error {
	if errors.Is(err, analytics.ErrUnknownSurvey) {
		return fmt.Errorf("%w: no analytics for this survey", httpx.ErrNotFound)
	}
	return fmt.Errorf("analytics: %w", httpx.ErrUnavailable)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
