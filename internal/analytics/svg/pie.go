package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

var defaultPalette = []string{"#8B5CF6", "#3B82F6", "#10B981", "#F59E0B", "#EF4444"}

// Pie renders a pie chart, or a donut when opts.InnerRadius is set, with
// each slice labelled by its share of the total.
func Pie(size int, values []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	total := 0.0
	for _, v := range values {
		if v < 0 {
			return "", fmt.Errorf("svg: pie values must not be negative")
		}
		total += v
	}
	if almostEqual(total, 0) {
		return "", fmt.Errorf("svg: pie values sum to zero")
	}
	if size <= 0 {
		size = DefaultHeight
	}
	colors := opts.Colors
	if len(colors) == 0 {
		colors = defaultPalette
	}
	textColor := fallback(opts.TextColor, "#334155")

	cx := float64(size) / 2
	cy := float64(size) / 2
	radius := float64(size)/2 - DefaultPadding
	inner := math.Min(math.Max(opts.InnerRadius, 0), radius*0.9)

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", size, size, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total"))))

	start := -math.Pi / 2
	for i, v := range values {
		if almostEqual(v, 0) {
			continue
		}
		share := v / total
		color := colors[i%len(colors)]
		label := fmt.Sprintf("%s %.0f%%", labels[i], share*100)
		if almostEqual(share, 1) {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, template.HTMLEscapeString(label)))
		} else {
			end := start + share*2*math.Pi
			b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"#ffffff\" stroke-width=\"1\" aria-label=\"%s\"></path>", slicePath(cx, cy, radius, inner, start, end), color, template.HTMLEscapeString(label)))
			mid := start + (end-start)/2
			lr := (radius + inner) / 2
			if inner == 0 {
				lr = radius * 0.65
			}
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"#ffffff\" font-size=\"10\" text-anchor=\"middle\">%.0f%%</text>", cx+lr*math.Cos(mid), cy+lr*math.Sin(mid)+3, share*100))
			start = end
		}
	}
	if inner > 0 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#ffffff\"></circle>", cx, cy, inner))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>", cx, cy+4, textColor, template.HTMLEscapeString(formatTick(total))))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func slicePath(cx, cy, outer, inner, start, end float64) string {
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	x1, y1 := cx+outer*math.Cos(start), cy+outer*math.Sin(start)
	x2, y2 := cx+outer*math.Cos(end), cy+outer*math.Sin(end)
	if inner <= 0 {
		return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", cx, cy, x1, y1, outer, outer, large, x2, y2)
	}
	x3, y3 := cx+inner*math.Cos(end), cy+inner*math.Sin(end)
	x4, y4 := cx+inner*math.Cos(start), cy+inner*math.Sin(start)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		x1, y1, outer, outer, large, x2, y2, x3, y3, inner, inner, large, x4, y4)
}
