package analytics

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatValue prints a stat value the way the dashboard cards show it.
func FormatValue(s Stat) string {
	switch s.Format {
	case FormatCount:
		return printer.Sprintf("%d", int64(s.Value))
	case FormatPercent:
		return printer.Sprintf("%.1f%%", s.Value)
	case FormatMinutes:
		return printer.Sprintf("%.1f min", s.Value)
	case FormatScore:
		return printer.Sprintf("%.1f/5", s.Value)
	default:
		return printer.Sprintf("%v", s.Value)
	}
}

// FormatChange prints the signed change. Scores change in points, the
// rest in percent.
func FormatChange(s Stat) string {
	sign := ""
	if s.Change > 0 {
		sign = "+"
	}
	if s.Format == FormatScore {
		return sign + printer.Sprintf("%.1f", s.Change)
	}
	return sign + printer.Sprintf("%.1f%%", s.Change)
}
