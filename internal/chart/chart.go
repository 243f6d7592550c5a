package chart

// Kind identifies how the frontend should render a chart.
type Kind string

const (
	Bar       Kind = "bar"
	Line      Kind = "line"
	Scatter   Kind = "scatter"
	Histogram Kind = "histogram"
	Pie       Kind = "pie"
)

// Series holds one plottable sequence. Labels carries categorical X values
// (or pie slice names); X carries numeric X values. Exactly one of the two is
// populated per series.
type Series struct {
	Name   string    `json:"name,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y"`
}

// Chart is a renderer-agnostic chart specification. It is the value the
// execution scope binds to the designated chart variable and the value the
// dashboard and custom-report endpoints return as JSON.
type Chart struct {
	Kind   Kind     `json:"kind"`
	Title  string   `json:"title,omitempty"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	Series []Series `json:"series"`
}

// New returns a chart of the given kind with no series.
func New(kind Kind, title string) *Chart {
	return &Chart{Kind: kind, Title: title}
}

// Add appends a series and returns the chart for chaining.
func (c *Chart) Add(s Series) *Chart {
	c.Series = append(c.Series, s)
	return c
}
