package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is an ordered set of named columns with ordinally aligned rows.
// Cells are raw strings as parsed from the source file; a missing value is an
// empty (or all-whitespace) cell. Tables are replaced wholesale, never
// patched in place.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// New builds a table, padding short rows so every row spans all columns.
func New(name string, columns []string, rows [][]string) *Table {
	ncol := len(columns)
	norm := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, r)
			r = tmp
		} else if len(r) > ncol {
			r = r[:ncol]
		}
		norm[i] = r
	}
	return &Table{Name: name, Columns: columns, Rows: norm}
}

// NumRows returns the row count (excluding the header).
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the cells of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// NumericValues returns the parsed numbers of the named column's present
// cells, in row order. Missing cells are skipped.
func (t *Table) NumericValues(name string) []float64 {
	col, ok := t.Column(name)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if IsMissing(v) {
			continue
		}
		if x, ok := ParseNumber(v); ok {
			out = append(out, x)
		}
	}
	return out
}

// MissingCells counts empty cells across the whole table.
func (t *Table) MissingCells() int {
	n := 0
	for _, r := range t.Rows {
		for _, v := range r {
			if IsMissing(v) {
				n++
			}
		}
	}
	return n
}

// Head returns a new table holding at most n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	rows := make([][]string, n)
	copy(rows, t.Rows[:n])
	return &Table{Name: t.Name, Columns: t.Columns, Rows: rows}
}

// HeadString renders the first n rows as a compact pipe table, the form used
// in collaborator prompts and previews.
func (t *Table) HeadString(n int) string {
	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(t.Columns, " | "))
	b.WriteString(" |\n| ")
	for i := range t.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for _, row := range t.Rows[:n] {
		b.WriteString("| ")
		for i, v := range row {
			if i > 0 {
				b.WriteString(" | ")
			}
			if len(v) > 80 {
				// Cut on a rune boundary so wide cells stay valid UTF-8.
				r := []rune(v)
				if len(r) > 77 {
					r = r[:77]
				}
				v = string(r) + "..."
			}
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(v, "\n", " "), "|", "/"))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// IsMissing reports whether a cell counts as a missing value.
func IsMissing(cell string) bool { return strings.TrimSpace(cell) == "" }

// ParseNumber parses a cell as a number, tolerating surrounding whitespace,
// a trailing percent sign, and comma decimal separators.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.TrimSpace(raw)
	// Comma-decimal locales: a lone comma not followed by a three-digit
	// group reads as a decimal mark; everything else is a thousands
	// separator.
	if i := strings.Index(raw, ","); i >= 0 &&
		strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") && len(raw)-i-1 != 3 {
		raw = strings.Replace(raw, ",", ".", 1)
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float the way cleaned cells and captured output
// show numbers: integral values print without a decimal part.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Stats summarizes the table shape for the overview page.
type Stats struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
	Missing int `json:"missing"`
}

// Summary returns row/column/missing counts.
func (t *Table) Summary() Stats {
	return Stats{Rows: t.NumRows(), Columns: t.NumCols(), Missing: t.MissingCells()}
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%s: %d rows, %d cols)", t.Name, t.NumRows(), t.NumCols())
}
