package script

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.starlark.net/starlark"

	"github.com/KaramelBytes/autoanalyst/internal/table"
)

// numValue renders an aggregate as a Starlark number: integral results print
// without a decimal part (sum of 10+20+30 prints as 60, not 60.0).
func numValue(f float64) starlark.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return starlark.MakeInt64(int64(f))
	}
	return starlark.Float(f)
}

// cellValue converts a raw cell for scripting: numbers come back as numbers,
// everything else as a string.
func cellValue(cell string) starlark.Value {
	if x, ok := table.ParseNumber(cell); ok && !table.IsMissing(cell) {
		return numValue(x)
	}
	return starlark.String(cell)
}

// frameValue exposes a Table to generated code under the df binding.
type frameValue struct {
	t *table.Table
}

func newFrame(t *table.Table) *frameValue { return &frameValue{t: t} }

func (f *frameValue) String() string        { return f.t.HeadString(10) }
func (f *frameValue) Type() string          { return "dataframe" }
func (f *frameValue) Freeze()               {}
func (f *frameValue) Truth() starlark.Bool  { return f.t.NumRows() > 0 }
func (f *frameValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: dataframe") }

// Get implements df['col'].
func (f *frameValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("dataframe index must be a column name, got %s", k.Type())
	}
	cells, found := f.t.Column(name)
	if !found {
		return nil, false, nil
	}
	return &seriesValue{name: name, cells: cells}, true, nil
}

func (f *frameValue) AttrNames() []string {
	return []string{"columns", "groupby", "head", "shape", "sort_values"}
}

func (f *frameValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		elems := make([]starlark.Value, len(f.t.Columns))
		for i, c := range f.t.Columns {
			elems[i] = starlark.String(c)
		}
		return starlark.NewList(elems), nil
	case "shape":
		return starlark.Tuple{starlark.MakeInt(f.t.NumRows()), starlark.MakeInt(f.t.NumCols())}, nil
	case "head":
		return starlark.NewBuiltin("head", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			n := 5
			if err := starlark.UnpackArgs("head", args, kwargs, "n?", &n); err != nil {
				return nil, err
			}
			return newFrame(f.t.Head(n)), nil
		}), nil
	case "sort_values":
		return starlark.NewBuiltin("sort_values", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var by string
			if err := starlark.UnpackArgs("sort_values", args, kwargs, "by", &by); err != nil {
				return nil, err
			}
			if f.t.ColumnIndex(by) < 0 {
				return nil, fmt.Errorf("sort_values: unknown column %q", by)
			}
			return newFrame(sortTable(f.t, by)), nil
		}), nil
	case "groupby":
		return starlark.NewBuiltin("groupby", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var by string
			if err := starlark.UnpackArgs("groupby", args, kwargs, "by", &by); err != nil {
				return nil, err
			}
			if f.t.ColumnIndex(by) < 0 {
				return nil, fmt.Errorf("groupby: unknown column %q", by)
			}
			return &groupedValue{t: f.t, key: by}, nil
		}), nil
	}
	return nil, nil
}

// seriesValue is one column: df['sales'].
type seriesValue struct {
	name  string
	cells []string
}

func (s *seriesValue) String() string {
	var b strings.Builder
	for i, c := range s.cells {
		fmt.Fprintf(&b, "%d\t%s\n", i, c)
	}
	fmt.Fprintf(&b, "Name: %s", s.name)
	return b.String()
}
func (s *seriesValue) Type() string          { return "series" }
func (s *seriesValue) Freeze()               {}
func (s *seriesValue) Truth() starlark.Bool  { return len(s.cells) > 0 }
func (s *seriesValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: series") }
func (s *seriesValue) Len() int              { return len(s.cells) }
func (s *seriesValue) Index(i int) starlark.Value {
	return cellValue(s.cells[i])
}

func (s *seriesValue) numbers() []float64 {
	out := make([]float64, 0, len(s.cells))
	for _, c := range s.cells {
		if table.IsMissing(c) {
			continue
		}
		if x, ok := table.ParseNumber(c); ok {
			out = append(out, x)
		}
	}
	return out
}

func (s *seriesValue) AttrNames() []string {
	return []string{"count", "max", "mean", "min", "nunique", "sum", "tolist", "unique"}
}

func (s *seriesValue) Attr(name string) (starlark.Value, error) {
	agg := func(fn func([]float64) float64) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs(name, args, kwargs); err != nil {
				return nil, err
			}
			nums := s.numbers()
			if len(nums) == 0 {
				return nil, fmt.Errorf("%s: series %q has no numeric values", name, s.name)
			}
			return numValue(fn(nums)), nil
		})
	}
	switch name {
	case "sum":
		return agg(sumFloats), nil
	case "mean":
		return agg(func(v []float64) float64 { return sumFloats(v) / float64(len(v)) }), nil
	case "max":
		return agg(maxFloats), nil
	case "min":
		return agg(func(v []float64) float64 { return -maxFloats(negate(v)) }), nil
	case "count":
		return starlark.NewBuiltin("count", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs("count", args, kwargs); err != nil {
				return nil, err
			}
			n := 0
			for _, c := range s.cells {
				if !table.IsMissing(c) {
					n++
				}
			}
			return starlark.MakeInt(n), nil
		}), nil
	case "nunique":
		return starlark.NewBuiltin("nunique", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs("nunique", args, kwargs); err != nil {
				return nil, err
			}
			return starlark.MakeInt(len(s.distinct())), nil
		}), nil
	case "unique":
		return starlark.NewBuiltin("unique", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs("unique", args, kwargs); err != nil {
				return nil, err
			}
			vals := s.distinct()
			elems := make([]starlark.Value, len(vals))
			for i, v := range vals {
				elems[i] = starlark.String(v)
			}
			return starlark.NewList(elems), nil
		}), nil
	case "tolist":
		return starlark.NewBuiltin("tolist", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackArgs("tolist", args, kwargs); err != nil {
				return nil, err
			}
			elems := make([]starlark.Value, len(s.cells))
			for i, c := range s.cells {
				elems[i] = cellValue(c)
			}
			return starlark.NewList(elems), nil
		}), nil
	}
	return nil, nil
}

// distinct returns unique values in first-appearance order.
func (s *seriesValue) distinct() []string {
	seen := make(map[string]struct{}, len(s.cells))
	var out []string
	for _, c := range s.cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// groupedValue is the result of df.groupby('col'); indexing it with a column
// name yields an aggregatable grouped series.
type groupedValue struct {
	t   *table.Table
	key string
}

func (g *groupedValue) String() string        { return fmt.Sprintf("groupby(%s)", g.key) }
func (g *groupedValue) Type() string          { return "groupby" }
func (g *groupedValue) Freeze()               {}
func (g *groupedValue) Truth() starlark.Bool  { return starlark.True }
func (g *groupedValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: groupby") }

func (g *groupedValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("groupby index must be a column name, got %s", k.Type())
	}
	if g.t.ColumnIndex(name) < 0 {
		return nil, false, nil
	}
	return &groupedSeries{t: g.t, key: g.key, col: name}, true, nil
}

// groupedSeries is df.groupby(key)[col], awaiting an aggregation.
type groupedSeries struct {
	t        *table.Table
	key, col string
}

func (g *groupedSeries) String() string        { return fmt.Sprintf("groupby(%s)[%s]", g.key, g.col) }
func (g *groupedSeries) Type() string          { return "grouped_series" }
func (g *groupedSeries) Freeze()               {}
func (g *groupedSeries) Truth() starlark.Bool  { return starlark.True }
func (g *groupedSeries) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: grouped_series") }

func (g *groupedSeries) AttrNames() []string {
	return []string{"count", "max", "mean", "min", "sum"}
}

func (g *groupedSeries) Attr(name string) (starlark.Value, error) {
	var reduce func([]float64) float64
	switch name {
	case "sum":
		reduce = sumFloats
	case "mean":
		reduce = func(v []float64) float64 { return sumFloats(v) / float64(len(v)) }
	case "max":
		reduce = maxFloats
	case "min":
		reduce = func(v []float64) float64 { return -maxFloats(negate(v)) }
	case "count":
		reduce = func(v []float64) float64 { return float64(len(v)) }
	default:
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs(name, args, kwargs); err != nil {
			return nil, err
		}
		return g.aggregate(reduce), nil
	}), nil
}

// aggregate reduces the value column per group key, keys ascending.
func (g *groupedSeries) aggregate(reduce func([]float64) float64) *aggValue {
	ki := g.t.ColumnIndex(g.key)
	ci := g.t.ColumnIndex(g.col)
	buckets := map[string][]float64{}
	for _, row := range g.t.Rows {
		x, ok := table.ParseNumber(row[ci])
		if !ok {
			continue
		}
		buckets[row[ki]] = append(buckets[row[ki]], x)
	}
	labels := make([]string, 0, len(buckets))
	for k := range buckets {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	vals := make([]float64, len(labels))
	for i, k := range labels {
		vals[i] = reduce(buckets[k])
	}
	return &aggValue{keyName: g.key, valName: g.col, labels: labels, vals: vals}
}

// aggValue is an aggregated label→value mapping, e.g. the result of
// df.groupby('region')['sales'].sum().
type aggValue struct {
	keyName, valName string
	labels           []string
	vals             []float64
}

func (a *aggValue) String() string {
	var b strings.Builder
	for i, l := range a.labels {
		fmt.Fprintf(&b, "%s\t%s\n", l, table.FormatNumber(a.vals[i]))
	}
	fmt.Fprintf(&b, "Name: %s", a.valName)
	return b.String()
}
func (a *aggValue) Type() string          { return "series" }
func (a *aggValue) Freeze()               {}
func (a *aggValue) Truth() starlark.Bool  { return len(a.labels) > 0 }
func (a *aggValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: series") }
func (a *aggValue) Len() int              { return len(a.labels) }

func (a *aggValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("series index must be a label, got %s", k.Type())
	}
	for i, l := range a.labels {
		if l == name {
			return numValue(a.vals[i]), true, nil
		}
	}
	return nil, false, nil
}

func (a *aggValue) AttrNames() []string { return []string{"reset_index"} }

// Attr supports the pandas reset_index() idiom: the aggregate becomes a
// two-column dataframe usable with px chart constructors.
func (a *aggValue) Attr(name string) (starlark.Value, error) {
	if name != "reset_index" {
		return nil, nil
	}
	return starlark.NewBuiltin("reset_index", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackArgs("reset_index", args, kwargs); err != nil {
			return nil, err
		}
		rows := make([][]string, len(a.labels))
		for i, l := range a.labels {
			rows[i] = []string{l, table.FormatNumber(a.vals[i])}
		}
		return newFrame(table.New("", []string{a.keyName, a.valName}, rows)), nil
	}), nil
}

func sumFloats(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func maxFloats(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func sortTable(t *table.Table, by string) *table.Table {
	idx := t.ColumnIndex(by)
	rows := make([][]string, len(t.Rows))
	copy(rows, t.Rows)
	numeric := true
	for _, row := range rows {
		if table.IsMissing(row[idx]) {
			continue
		}
		if _, ok := table.ParseNumber(row[idx]); !ok {
			numeric = false
			break
		}
	}
	if numeric {
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := table.ParseNumber(rows[i][idx])
			b, _ := table.ParseNumber(rows[j][idx])
			return a < b
		})
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i][idx] < rows[j][idx] })
	}
	return &table.Table{Name: t.Name, Columns: t.Columns, Rows: rows}
}
