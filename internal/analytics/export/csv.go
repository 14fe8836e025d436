package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/surveyhub/surveyhub/internal/analytics"
)

// WriteDashboardCSV serialises every dashboard series as section,label,value rows.
func WriteDashboardCSV(w io.Writer, dash analytics.Dashboard) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Label", "Value"}); err != nil {
		return err
	}
	for _, s := range dash.Stats {
		if err := writer.Write([]string{"stats", s.Label, formatFloat(s.Value)}); err != nil {
			return err
		}
	}
	for _, s := range dash.ServiceRatings {
		if err := writer.Write([]string{"service_rating", s.Label, formatFloat(s.Value)}); err != nil {
			return err
		}
	}
	sections := []struct {
		name   string
		points []analytics.Point
	}{
		{"recommendation", dash.Recommendation},
		{"timeline", dash.Timeline},
		{"features", dash.Features},
	}
	for _, section := range sections {
		for _, p := range section.points {
			if err := writer.Write([]string{section.name, p.Label, formatFloat(p.Value)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
