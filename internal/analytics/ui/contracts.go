package ui

import (
	"html/template"

	"github.com/surveyhub/surveyhub/internal/analytics"
	"github.com/surveyhub/surveyhub/internal/analytics/svg"
)

// StatCard is a formatted headline number.
type StatCard struct {
	Label    string
	Value    string
	Change   string
	Positive bool
}

// Chart is a rendered chart with its heading.
type Chart struct {
	Title string
	SVG   template.HTML
}

// LegendEntry pairs a label with its chart colour.
type LegendEntry struct {
	Label string
	Value float64
	Color string
}

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	SurveyID       string
	Stats          []StatCard
	ServiceRatings Chart
	Legend         []LegendEntry
	Recommendation Chart
	Timeline       Chart
	Features       Chart
}

// TimelineRenderer abstracts the daily response timeline chart.
type TimelineRenderer interface {
	Timeline(width, height int, counts []float64, labels []string, opts svg.TimelineOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the dashboard.
type BarRenderer interface {
	Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// PieRenderer abstracts SVG pie chart rendering for the dashboard.
type PieRenderer interface {
	Pie(size int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error)
}

// Renderers is the production chart renderer set backed by package svg.
type Renderers struct{}

func (Renderers) Timeline(width, height int, counts []float64, labels []string, opts svg.TimelineOpts) (template.HTML, error) {
	return svg.Timeline(width, height, counts, labels, opts)
}

func (Renderers) Bars(width, height int, seriesA, seriesB []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, seriesA, seriesB, labels, opts)
}

func (Renderers) Pie(size int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(size, values, labels, opts)
}

// ToStatCards formats headline stats.
func ToStatCards(stats []analytics.Stat) []StatCard {
	cards := make([]StatCard, 0, len(stats))
	for _, s := range stats {
		positive := s.Change >= 0
		if s.Format == analytics.FormatMinutes {
			positive = s.Change <= 0
		}
		cards = append(cards, StatCard{
			Label:    s.Label,
			Value:    analytics.FormatValue(s),
			Change:   analytics.FormatChange(s),
			Positive: positive,
		})
	}
	return cards
}

// ToLegend converts slices into legend entries.
func ToLegend(slices []analytics.Slice) []LegendEntry {
	out := make([]LegendEntry, 0, len(slices))
	for i, s := range slices {
		color := s.Color
		if color == "" {
			color = analytics.Palette[i%len(analytics.Palette)]
		}
		out = append(out, LegendEntry{Label: s.Label, Value: s.Value, Color: color})
	}
	return out
}

// SplitPoints separates labels and values.
func SplitPoints(points []analytics.Point) ([]string, []float64) {
	labels := make([]string, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Label)
		values = append(values, p.Value)
	}
	return labels, values
}
