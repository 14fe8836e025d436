// Package analytics serves survey response dashboards.
package analytics

import (
	"context"
	"errors"
)

// ErrUnknownSurvey is returned when a source has no data for a survey.
var ErrUnknownSurvey = errors.New("analytics: unknown survey")

// StatFormat selects how a headline stat is printed.
type StatFormat string

const (
	FormatCount   StatFormat = "count"
	FormatPercent StatFormat = "percent"
	FormatMinutes StatFormat = "minutes"
	FormatScore   StatFormat = "score"
)

// Stat is one headline number on the dashboard.
type Stat struct {
	Label  string     `json:"label"`
	Value  float64    `json:"value"`
	Change float64    `json:"change"`
	Format StatFormat `json:"format"`
}

// Slice is a labelled share of a categorical breakdown.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Point is one labelled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Dashboard aggregates responses for one survey.
type Dashboard struct {
	SurveyID       string  `json:"survey_id"`
	Stats          []Stat  `json:"stats"`
	ServiceRatings []Slice `json:"service_ratings"`
	Recommendation []Point `json:"recommendation"`
	Timeline       []Point `json:"timeline"`
	Features       []Point `json:"features"`
}

// Source produces dashboards.
type Source interface {
	Dashboard(ctx context.Context, surveyID string) (Dashboard, error)
}
