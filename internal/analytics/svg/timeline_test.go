package svg

import (
	"strings"
	"testing"
)

var week = []float64{12, 19, 15, 25, 22, 18, 14}

func TestTimelineLabelsWeekdays(t *testing.T) {
	html, err := Timeline(400, 200, week, nil, TimelineOpts{Title: "Responses This Week"})
	if err != nil {
		t.Fatalf("timeline renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") || !strings.Contains(output, "aria-labelledby") {
		t.Fatalf("expected accessible svg output, got %s", output)
	}
	for _, day := range Weekdays {
		if !strings.Contains(output, ">"+day+"</text>") {
			t.Fatalf("missing weekday label %s", day)
		}
	}
	if !strings.Contains(output, "Thu: 25 responses") {
		t.Fatalf("expected per-day tooltip")
	}
	if got := strings.Count(output, `data-peak="true"`); got != 1 {
		t.Fatalf("expected one peak marker, got %d", got)
	}
}

func TestTimelineTicksAreWholeCounts(t *testing.T) {
	html, err := Timeline(400, 200, week, nil, TimelineOpts{})
	if err != nil {
		t.Fatalf("timeline renderer error: %v", err)
	}
	output := string(html)
	for _, tick := range []string{">0</text>", ">5</text>", ">25</text>"} {
		if !strings.Contains(output, tick) {
			t.Fatalf("expected tick %s", tick)
		}
	}
	if strings.Contains(output, ">30</text>") || strings.Contains(output, ".5</text>") {
		t.Fatalf("unexpected tick beyond the peak or fractional tick")
	}
}

func TestTimelineQuietWeek(t *testing.T) {
	html, err := Timeline(0, 0, []float64{0, 0, 0, 1, 0, 0, 0}, nil, TimelineOpts{})
	if err != nil {
		t.Fatalf("timeline renderer error: %v", err)
	}
	output := string(html)
	if !strings.Contains(output, "Thu: 1 response<") {
		t.Fatalf("expected singular unit for a single response")
	}
	if !strings.Contains(output, ">1</text>") {
		t.Fatalf("expected the axis to reach one response")
	}

	html, err = Timeline(0, 0, make([]float64, 7), nil, TimelineOpts{})
	if err != nil {
		t.Fatalf("timeline renderer error: %v", err)
	}
	if strings.Contains(string(html), "data-peak") {
		t.Fatalf("an empty week has no peak")
	}
}

func TestTimelineRejectsBadInput(t *testing.T) {
	if _, err := Timeline(400, 200, nil, nil, TimelineOpts{}); err == nil {
		t.Fatalf("expected error for empty counts")
	}
	if _, err := Timeline(400, 200, []float64{1, 2, 3}, nil, TimelineOpts{}); err == nil {
		t.Fatalf("expected error when labels are missing outside a week")
	}
	if _, err := Timeline(400, 200, []float64{1, -2}, []string{"a", "b"}, TimelineOpts{}); err == nil {
		t.Fatalf("expected error for a negative count")
	}
}

func TestCountStep(t *testing.T) {
	cases := map[[2]int]int{
		{0, 6}:    1,
		{6, 6}:    1,
		{25, 6}:   5,
		{70, 6}:   20,
		{1200, 6}: 200,
	}
	for in, want := range cases {
		if got := countStep(in[0], in[1]); got != want {
			t.Fatalf("countStep(%d, %d) = %d, want %d", in[0], in[1], got, want)
		}
	}
}
