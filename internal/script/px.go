package script

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/KaramelBytes/autoanalyst/internal/chart"
	"github.com/KaramelBytes/autoanalyst/internal/insight"
	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// chartValue wraps a chart so generated code can bind it to the designated
// variable. It is opaque to the script beyond update_layout.
type chartValue struct {
	c *chart.Chart
}

func (v *chartValue) String() string        { return fmt.Sprintf("Figure(%s)", v.c.Kind) }
func (v *chartValue) Type() string          { return "figure" }
func (v *chartValue) Freeze()               {}
func (v *chartValue) Truth() starlark.Bool  { return starlark.True }
func (v *chartValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure") }

func (v *chartValue) AttrNames() []string { return []string{"show", "update_layout"} }

func (v *chartValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "update_layout":
		return starlark.NewBuiltin("update_layout", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var title, xlabel, ylabel string
			if err := starlark.UnpackArgs("update_layout", args, kwargs,
				"title?", &title, "xaxis_title?", &xlabel, "yaxis_title?", &ylabel); err != nil {
				return nil, err
			}
			if title != "" {
				v.c.Title = title
			}
			if xlabel != "" {
				v.c.XLabel = xlabel
			}
			if ylabel != "" {
				v.c.YLabel = ylabel
			}
			return v, nil
		}), nil
	case "show":
		// fig.show() is a no-op here: the chart surfaces through the
		// fig binding itself.
		return starlark.NewBuiltin("show", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs("show", args, kwargs); err != nil {
				return nil, err
			}
			return starlark.None, nil
		}), nil
	}
	return nil, nil
}

// asTable accepts either a dataframe or an aggregated series as chart input.
// Aggregates flatten to a two-column table and report their own x/y defaults.
func asTable(v starlark.Value) (*table.Table, string, string, error) {
	switch d := v.(type) {
	case *frameValue:
		return d.t, "", "", nil
	case *aggValue:
		rows := make([][]string, len(d.labels))
		for i, l := range d.labels {
			rows[i] = []string{l, table.FormatNumber(d.vals[i])}
		}
		return table.New("", []string{d.keyName, d.valName}, rows), d.keyName, d.valName, nil
	default:
		return nil, "", "", fmt.Errorf("expected a dataframe or series, got %s", v.Type())
	}
}

// xyChart is the common shape of px.bar, px.line, and px.scatter.
func xyChart(kind chart.Kind) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var data starlark.Value
		var x, y, title string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"data_frame", &data, "x?", &x, "y?", &y, "title?", &title); err != nil {
			return nil, err
		}
		t, defX, defY, err := asTable(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		if x == "" {
			x = defX
		}
		if y == "" {
			y = defY
		}
		if x == "" || y == "" {
			return nil, fmt.Errorf("%s: x and y are required", b.Name())
		}
		c, err := insight.BuildChart(t, kind, x, y)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		if title != "" {
			c.Title = title
		}
		return &chartValue{c: c}, nil
	}
}

func pxHistogram(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var data starlark.Value
	var x, title string
	var nbins int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"data_frame", &data, "x", &x, "nbins?", &nbins, "title?", &title); err != nil {
		return nil, err
	}
	t, _, _, err := asTable(data)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	if t.ColumnIndex(x) < 0 {
		return nil, fmt.Errorf("histogram: unknown column %q", x)
	}
	c := insight.HistogramChart(t, x)
	if title != "" {
		c.Title = title
	}
	return &chartValue{c: c}, nil
}

func pxPie(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var data starlark.Value
	var names, values, title string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"data_frame", &data, "names?", &names, "values?", &values, "title?", &title); err != nil {
		return nil, err
	}
	t, defNames, defValues, err := asTable(data)
	if err != nil {
		return nil, fmt.Errorf("pie: %w", err)
	}
	if names == "" {
		names = defNames
	}
	if values == "" {
		values = defValues
	}
	if names == "" || values == "" {
		return nil, fmt.Errorf("pie: names and values are required")
	}
	if t.ColumnIndex(names) < 0 {
		return nil, fmt.Errorf("pie: unknown column %q", names)
	}
	if t.ColumnIndex(values) < 0 {
		return nil, fmt.Errorf("pie: unknown column %q", values)
	}
	c := insight.CategorySplit(t, names, values)
	if title != "" {
		c.Title = title
	}
	return &chartValue{c: c}, nil
}

// pxModule exposes the chart constructors the prompt tells the collaborator
// to use.
func pxModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "px",
		Members: starlark.StringDict{
			"bar":       starlark.NewBuiltin("bar", xyChart(chart.Bar)),
			"line":      starlark.NewBuiltin("line", xyChart(chart.Line)),
			"scatter":   starlark.NewBuiltin("scatter", xyChart(chart.Scatter)),
			"histogram": starlark.NewBuiltin("histogram", pxHistogram),
			"pie":       starlark.NewBuiltin("pie", pxPie),
		},
	}
}

// pdModule carries the couple of pandas-namespace helpers generated code
// reaches for when formatting an answer.
func pdModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "pd",
		Members: starlark.StringDict{
			"to_numeric": starlark.NewBuiltin("to_numeric", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var v starlark.Value
				if err := starlark.UnpackArgs("to_numeric", args, kwargs, "arg", &v); err != nil {
					return nil, err
				}
				switch x := v.(type) {
				case starlark.Int, starlark.Float:
					return x, nil
				case starlark.String:
					if f, ok := table.ParseNumber(string(x)); ok {
						return numValue(f), nil
					}
					return nil, fmt.Errorf("to_numeric: cannot parse %q", string(x))
				case *seriesValue:
					nums := x.numbers()
					elems := make([]starlark.Value, len(nums))
					for i, f := range nums {
						elems[i] = numValue(f)
					}
					return starlark.NewList(elems), nil
				}
				return nil, fmt.Errorf("to_numeric: unsupported type %s", v.Type())
			}),
			"isna": starlark.NewBuiltin("isna", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var v starlark.Value
				if err := starlark.UnpackArgs("isna", args, kwargs, "obj", &v); err != nil {
					return nil, err
				}
				if s, ok := starlark.AsString(v); ok {
					return starlark.Bool(table.IsMissing(s)), nil
				}
				return starlark.False, nil
			}),
		},
	}
}
