package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// Custom chart builder: the "Custom Analysis" page picks an X column, a
// numeric Y column, and one of three chart types.

// BuildChart renders the requested chart:
//
//   - bar: Y summed per X value;
//   - line: rows sorted by X, Y in that order;
//   - scatter: raw (X, Y) points.
func BuildChart(t *table.Table, kind chart.Kind, x, y string) (*chart.Chart, error) {
	if t.ColumnIndex(x) < 0 {
		return nil, fmt.Errorf("unknown column %q", x)
	}
	if t.ColumnIndex(y) < 0 {
		return nil, fmt.Errorf("unknown column %q", y)
	}
	c := chart.New(kind, fmt.Sprintf("%s by %s", y, x))
	c.XLabel, c.YLabel = x, y
	switch kind {
	case chart.Bar:
		labels, sums := GroupSum(t, x, y)
		c.Add(chart.Series{Name: y, Labels: labels, Y: sums})
	case chart.Line:
		rows := sortRowsBy(t, x)
		labels := make([]string, 0, len(rows))
		ys := make([]float64, 0, len(rows))
		xi, yi := t.ColumnIndex(x), t.ColumnIndex(y)
		for _, row := range rows {
			v, ok := table.ParseNumber(row[yi])
			if !ok {
				continue
			}
			labels = append(labels, row[xi])
			ys = append(ys, v)
		}
		c.Add(chart.Series{Name: y, Labels: labels, Y: ys})
	case chart.Scatter:
		xi, yi := t.ColumnIndex(x), t.ColumnIndex(y)
		var xs, ys []float64
		var labels []string
		numericX := allNumeric(t, x)
		for _, row := range t.Rows {
			yv, ok := table.ParseNumber(row[yi])
			if !ok {
				continue
			}
			if numericX {
				xv, ok := table.ParseNumber(row[xi])
				if !ok {
					continue
				}
				xs = append(xs, xv)
			} else {
				labels = append(labels, row[xi])
			}
			ys = append(ys, yv)
		}
		c.Add(chart.Series{Name: y, X: xs, Labels: labels, Y: ys})
	default:
		return nil, fmt.Errorf("unsupported chart type %q", kind)
	}
	return c, nil
}

// Narrative produces the short observation/trend text shown under a custom
// chart: the Y range, and whether Y moves up, down, or stays flat between the
// first and last row once sorted by X. "fluctuating" covers the cases where a
// trend cannot be computed.
func Narrative(t *table.Table, x, y string) string {
	vals := t.NumericValues(y)
	if len(vals) == 0 {
		return ""
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	trend := "fluctuating"
	rows := sortRowsBy(t, x)
	yi := t.ColumnIndex(y)
	if len(rows) > 0 && yi >= 0 {
		start, okS := table.ParseNumber(rows[0][yi])
		end, okE := table.ParseNumber(rows[len(rows)-1][yi])
		if okS && okE {
			switch {
			case end > start:
				trend = "increasing"
			case end < start:
				trend = "decreasing"
			default:
				trend = "stable"
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Observation: values for %s range from %s to %s.\n",
		y, table.FormatNumber(lo), table.FormatNumber(hi))
	fmt.Fprintf(&b, "Trend: over the course of %s, the data appears to be %s.\n", x, trend)
	b.WriteString("Peak: the highest point identifies the top performing category or period.")
	return b.String()
}

// sortRowsBy returns a copy of the rows stably sorted by the named column,
// numerically when every present value parses as a number, lexicographically
// otherwise.
func sortRowsBy(t *table.Table, col string) [][]string {
	idx := t.ColumnIndex(col)
	rows := make([][]string, len(t.Rows))
	copy(rows, t.Rows)
	if idx < 0 {
		return rows
	}
	if allNumeric(t, col) {
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := table.ParseNumber(rows[i][idx])
			b, _ := table.ParseNumber(rows[j][idx])
			return a < b
		})
	} else {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i][idx] < rows[j][idx]
		})
	}
	return rows
}

func allNumeric(t *table.Table, col string) bool {
	cells, ok := t.Column(col)
	if !ok {
		return false
	}
	present := 0
	for _, v := range cells {
		if table.IsMissing(v) {
			continue
		}
		present++
		if _, ok := table.ParseNumber(v); !ok {
			return false
		}
	}
	return present > 0
}
