package analytics

import "context"

// Palette is the chart colour sequence.
var Palette = []string{"#8B5CF6", "#3B82F6", "#10B981", "#F59E0B", "#EF4444"}

// MockSource serves fixed demonstration data for every survey.
type MockSource struct{}

// Dashboard returns the demonstration dashboard labelled with surveyID.
func (MockSource) Dashboard(_ context.Context, surveyID string) (Dashboard, error) {
	return Dashboard{
		SurveyID: surveyID,
		Stats: []Stat{
			{Label: "Total Responses", Value: 1234, Change: 12.5, Format: FormatCount},
			{Label: "Completion Rate", Value: 87.3, Change: 3.2, Format: FormatPercent},
			{Label: "Avg. Response Time", Value: 2.4, Change: -15.8, Format: FormatMinutes},
			{Label: "Satisfaction Score", Value: 4.2, Change: 0.3, Format: FormatScore},
		},
		ServiceRatings: []Slice{
			{Label: "Excellent", Value: 45, Color: Palette[0]},
			{Label: "Good", Value: 30, Color: Palette[1]},
			{Label: "Fair", Value: 15, Color: Palette[2]},
			{Label: "Poor", Value: 10, Color: Palette[3]},
		},
		Recommendation: []Point{
			{Label: "1 Star", Value: 5},
			{Label: "2 Stars", Value: 8},
			{Label: "3 Stars", Value: 20},
			{Label: "4 Stars", Value: 35},
			{Label: "5 Stars", Value: 32},
		},
		Timeline: []Point{
			{Label: "Mon", Value: 12},
			{Label: "Tue", Value: 19},
			{Label: "Wed", Value: 15},
			{Label: "Thu", Value: 25},
			{Label: "Fri", Value: 22},
			{Label: "Sat", Value: 18},
			{Label: "Sun", Value: 14},
		},
		Features: []Point{
			{Label: "Customer Support", Value: 35},
			{Label: "Product Quality", Value: 28},
			{Label: "Pricing", Value: 20},
			{Label: "User Interface", Value: 12},
			{Label: "Delivery Speed", Value: 5},
		},
	}, nil
}
