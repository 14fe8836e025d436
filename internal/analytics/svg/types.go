package svg

// TimelineOpts customises the response timeline renderer. Unit names
// what is counted and is singularised for a count of one.
type TimelineOpts struct {
	Title       string
	Description string
	Unit        string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title        string
	Description  string
	SeriesALabel string
	SeriesBLabel string
	ColorA       string
	ColorB       string
	Colors       []string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	Colors      []string
	InnerRadius float64
	TextColor   string
}

// Defaults for the analytics charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)
