package svg

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

// Weekdays labels a seven point timeline that starts on Monday.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Timeline renders daily response counts as a line over a shaded area.
// Counts are rounded to whole responses and the y axis always starts at
// zero with whole-number ticks. A nil labels slice is accepted for a
// seven point series and falls back to Weekdays.
func Timeline(width, height int, counts []float64, labels []string, opts TimelineOpts) (template.HTML, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("svg: counts required")
	}
	if labels == nil && len(counts) == len(Weekdays) {
		labels = Weekdays
	}
	if len(labels) != len(counts) {
		return "", fmt.Errorf("svg: %d labels for %d counts", len(labels), len(counts))
	}
	whole := make([]int, len(counts))
	peak := -1
	for i, c := range counts {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return "", fmt.Errorf("svg: count %q must be a non-negative number", labels[i])
		}
		whole[i] = int(math.Round(c))
		if whole[i] > 0 && (peak < 0 || whole[i] > whole[peak]) {
			peak = i
		}
	}

	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	stroke := fallback(opts.StrokeColor, "#8B5CF6")
	fill := fallback(opts.FillColor, stroke)
	axis := fallback(opts.AxisColor, "#6B7280")
	grid := fallback(opts.GridColor, "#E5E7EB")
	unit := fallback(opts.Unit, "responses")

	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}

	maxCount := 0
	for _, n := range whole {
		maxCount = max(maxCount, n)
	}
	step := countStep(maxCount, ticks)
	top := step * ((maxCount + step - 1) / step)
	if top == 0 {
		top = step
	}
	baseline := padding + plotH
	band := plotW / float64(len(whole))
	xAt := func(i int) float64 { return padding + band*(float64(i)+0.5) }
	yAt := func(n int) float64 { return baseline - float64(n)/float64(top)*plotH }

	var line strings.Builder
	for i, n := range whole {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&line, "%s%.2f %.2f ", cmd, xAt(i), yAt(n))
	}
	linePath := strings.TrimSpace(line.String())

	titleID := makeID(opts.Title, "timeline-title")
	descID := makeID(opts.Title, "timeline-desc")
	fillID := makeID(opts.Title, "timeline-fill")

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(&b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(opts.Title, "Responses over time")))
	fmt.Fprintf(&b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(opts.Description, "Responses received per day")))
	fmt.Fprintf(&b, `<defs><linearGradient id="%s" x1="0" y1="0" x2="0" y2="1"><stop offset="0%%" stop-color="%s" stop-opacity="0.35"></stop><stop offset="100%%" stop-color="%s" stop-opacity="0"></stop></linearGradient></defs>`, fillID, fill, fill)

	b.WriteString(`<g aria-hidden="true">`)
	for v := 0; v <= top; v += step {
		y := yAt(v)
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`, padding, y, padding+plotW, y, grid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-6, y+3, axis, strconv.Itoa(v))
	}
	b.WriteString(`</g>`)

	fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="url(#%s)" stroke="none"></path>`, linePath, xAt(len(whole)-1), baseline, xAt(0), baseline, fillID)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2.5" stroke-linejoin="round" stroke-linecap="round"></path>`, linePath, stroke)

	for i, n := range whole {
		noun := unit
		if n == 1 {
			noun = strings.TrimSuffix(unit, "s")
		}
		if i == peak {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="5" fill="%s" stroke="#ffffff" stroke-width="2" data-peak="true">`, xAt(i), yAt(n), stroke)
		} else {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3.5" fill="#ffffff" stroke="%s" stroke-width="2">`, xAt(i), yAt(n), stroke)
		}
		fmt.Fprintf(&b, `<title>%s: %d %s</title></circle>`, template.HTMLEscapeString(labels[i]), n, template.HTMLEscapeString(noun))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, xAt(i), baseline+14, axis, template.HTMLEscapeString(labels[i]))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// countStep picks a 1, 2 or 5 times power-of-ten tick interval so that at
// most ticks intervals cover maxCount.
func countStep(maxCount, ticks int) int {
	raw := (maxCount + ticks - 1) / ticks
	if raw <= 1 {
		return 1
	}
	mag := 1
	for mag*10 <= raw {
		mag *= 10
	}
	for _, m := range []int{1, 2, 5} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}
