package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// KPIs are the headline aggregates for the dashboard's primary metric.
type KPIs struct {
	Metric  string  `json:"metric"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}

// ErrNoNumeric is reported when the table has no numeric column to build a
// dashboard from. It is a condition for the caller to display, not a fault.
var ErrNoNumeric = fmt.Errorf("no numeric columns found to generate dashboards")

// Metrics computes Total/Average/Max for the chosen numeric metric column.
func Metrics(t *table.Table, metric string) (KPIs, error) {
	vals := t.NumericValues(metric)
	if len(vals) == 0 {
		return KPIs{}, fmt.Errorf("column %q has no numeric values", metric)
	}
	k := KPIs{Metric: metric, Max: math.Inf(-1)}
	for _, v := range vals {
		k.Total += v
		if v > k.Max {
			k.Max = v
		}
	}
	k.Average = k.Total / float64(len(vals))
	return k, nil
}

// HistogramChart bins the metric column into equal-width buckets.
func HistogramChart(t *table.Table, metric string) *chart.Chart {
	vals := t.NumericValues(metric)
	c := chart.New(chart.Histogram, fmt.Sprintf("Distribution of %s", metric))
	c.XLabel = metric
	if len(vals) == 0 {
		return c
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
	const bins = 10
	width := (hi - lo) / bins
	counts := make([]float64, bins)
	labels := make([]string, bins)
	if width == 0 {
		counts = []float64{float64(len(vals))}
		labels = []string{table.FormatNumber(lo)}
	} else {
		for _, v := range vals {
			idx := int((v - lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
			counts[idx]++
		}
		for i := range labels {
			labels[i] = fmt.Sprintf("%s–%s",
				table.FormatNumber(lo+float64(i)*width),
				table.FormatNumber(lo+float64(i+1)*width))
		}
	}
	return c.Add(chart.Series{Name: metric, Labels: labels, Y: counts})
}

// CategorySplit sums the metric per category value and renders the split as
// a pie chart. Categories are emitted in ascending key order.
func CategorySplit(t *table.Table, category, metric string) *chart.Chart {
	labels, sums := GroupSum(t, category, metric)
	c := chart.New(chart.Pie, fmt.Sprintf("%s by %s", metric, category))
	return c.Add(chart.Series{Name: metric, Labels: labels, Y: sums})
}

// GroupSum aggregates the metric column by the values of the group column,
// returning group keys in ascending order with their sums. Missing metric
// cells contribute nothing; missing group cells form their own empty-string
// group.
func GroupSum(t *table.Table, group, metric string) ([]string, []float64) {
	gi := t.ColumnIndex(group)
	mi := t.ColumnIndex(metric)
	if gi < 0 || mi < 0 {
		return nil, nil
	}
	sums := map[string]float64{}
	for _, row := range t.Rows {
		x, ok := table.ParseNumber(row[mi])
		if !ok {
			continue
		}
		sums[row[gi]] += x
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = sums[k]
	}
	return keys, out
}

// Dashboard bundles everything the auto-dashboard page shows for one metric.
type Dashboard struct {
	KPIs      KPIs         `json:"kpis"`
	Histogram *chart.Chart `json:"histogram"`
	Split     *chart.Chart `json:"split,omitempty"`
}

// BuildDashboard assembles KPIs, a distribution histogram, and, when a
// categorical column is available, a categorical split of the metric.
func BuildDashboard(t *table.Table, cls table.Classification, metric, category string) (*Dashboard, error) {
	if len(cls.Numeric) == 0 {
		return nil, ErrNoNumeric
	}
	if metric == "" {
		metric = cls.Numeric[0]
	}
	if !cls.IsNumeric(metric) {
		return nil, fmt.Errorf("column %q is not numeric", metric)
	}
	k, err := Metrics(t, metric)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{KPIs: k, Histogram: HistogramChart(t, metric)}
	if category == "" && len(cls.Categorical) > 0 {
		category = cls.Categorical[0]
	}
	if category != "" {
		d.Split = CategorySplit(t, category, metric)
	}
	return d, nil
}
