package table

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"10", 10, true},
		{" 10 ", 10, true},
		{"-3.5", -3.5, true},
		{"1,234", 1234, true},
		{"1,234.5", 1234.5, true},
		{"3,5", 3.5, true},
		{"45%", 45, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in)
		if ok != c.ok {
			t.Errorf("ParseNumber(%q): ok=%v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseNumber(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatNumberIntegral(t *testing.T) {
	if got := FormatNumber(60); got != "60" {
		t.Fatalf("FormatNumber(60)=%q, want 60", got)
	}
	if got := FormatNumber(3.5); got != "3.5" {
		t.Fatalf("FormatNumber(3.5)=%q, want 3.5", got)
	}
}

func TestClassifyPartition(t *testing.T) {
	tbl := New("t.csv",
		[]string{"id", "name", "score", "empty", "mixed"},
		[][]string{
			{"1", "alice", "9.5", "", "10"},
			{"2", "bob", "", "", "x"},
			{"3", "", "7.0", "", "12"},
		})
	cls := Classify(tbl)

	seen := map[string]int{}
	for _, c := range cls.Numeric {
		seen[c]++
	}
	for _, c := range cls.Categorical {
		seen[c]++
	}
	if len(seen) != len(tbl.Columns) {
		t.Fatalf("partition covers %d columns, want %d", len(seen), len(tbl.Columns))
	}
	for col, n := range seen {
		if n != 1 {
			t.Errorf("column %q appears in %d sets, want exactly 1", col, n)
		}
	}

	if !cls.IsNumeric("id") || !cls.IsNumeric("score") {
		t.Errorf("id and score should be numeric: %+v", cls)
	}
	if !cls.IsCategorical("name") || !cls.IsCategorical("mixed") {
		t.Errorf("name and mixed should be categorical: %+v", cls)
	}
	// A column with no present values cannot prove itself numeric.
	if !cls.IsCategorical("empty") {
		t.Errorf("all-missing column should be categorical: %+v", cls)
	}
}

func TestCleanGuarantees(t *testing.T) {
	tbl := New("t.csv",
		[]string{"region", "sales"},
		[][]string{
			{"East", "10"},
			{"East", "10"},
			{"", "20"},
			{"West", ""},
		})
	cleaned := Clean(tbl)

	if got := cleaned.NumRows(); got != 3 {
		t.Fatalf("rows after clean = %d, want 3", got)
	}
	seen := map[string]bool{}
	for _, row := range cleaned.Rows {
		key := strings.Join(row, "|")
		if seen[key] {
			t.Fatalf("duplicate row survived cleaning: %v", row)
		}
		seen[key] = true
		for i, cell := range row {
			if IsMissing(cell) {
				t.Fatalf("missing cell survived cleaning at column %s: %v", cleaned.Columns[i], row)
			}
		}
	}
	// Input untouched.
	if tbl.NumRows() != 4 || tbl.Rows[3][1] != "" {
		t.Fatalf("Clean mutated its input: %+v", tbl.Rows)
	}
}

func TestCleanIdempotent(t *testing.T) {
	tbl := New("t.csv",
		[]string{"a", "b", "c"},
		[][]string{
			{"1", "x", ""},
			{"1", "x", ""},
			{"", "y", "z"},
			{"3", "", "w"},
		})
	once := Clean(tbl)
	twice := Clean(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("clean not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestCleanRegionSalesScenario(t *testing.T) {
	tbl := New("sales.csv",
		[]string{"region", "sales"},
		[][]string{
			{"North", "100"},
			{"North", "100"},
			{"South", ""},
			{"", "50"},
		})
	cleaned := Clean(tbl)

	if got := cleaned.NumRows(); got != 3 {
		t.Fatalf("rows = %d, want 3 (duplicate removed)", got)
	}
	if cleaned.Rows[1][1] != "0" {
		t.Errorf("blank sales = %q, want 0", cleaned.Rows[1][1])
	}
	if cleaned.Rows[2][0] != MissingCategorical {
		t.Errorf("blank region = %q, want %q", cleaned.Rows[2][0], MissingCategorical)
	}
	// Survivor order preserved.
	if cleaned.Rows[0][0] != "North" || cleaned.Rows[1][0] != "South" {
		t.Errorf("row order changed: %+v", cleaned.Rows)
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := New("t.csv",
		[]string{"a", "b"},
		[][]string{{"1", "x,y"}, {"2", "z"}})
	var b strings.Builder
	if err := tbl.WriteCSV(&b); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "a,b\n1,\"x,y\"\n2,z\n"
	if b.String() != want {
		t.Fatalf("csv = %q, want %q", b.String(), want)
	}
}

func TestSummary(t *testing.T) {
	tbl := New("t.csv",
		[]string{"a", "b"},
		[][]string{{"1", ""}, {"", "x"}})
	s := tbl.Summary()
	if s.Rows != 2 || s.Columns != 2 || s.Missing != 2 {
		t.Fatalf("summary = %+v, want {2 2 2}", s)
	}
}

func TestHeadStringTruncatesOnRuneBoundary(t *testing.T) {
	wide := strings.Repeat("é", 100)
	tbl := New("t.csv", []string{"a"}, [][]string{{wide}})
	out := tbl.HeadString(1)
	if !utf8.ValidString(out) {
		t.Fatalf("truncated head is not valid UTF-8: %q", out)
	}
	if !strings.Contains(out, "...") {
		t.Fatalf("long cell was not truncated: %q", out)
	}
}

func TestHeadString(t *testing.T) {
	tbl := New("t.csv",
		[]string{"a", "b"},
		[][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}})
	out := tbl.HeadString(2)
	if !strings.Contains(out, "a") || !strings.Contains(out, "1") {
		t.Fatalf("head missing content: %q", out)
	}
	if strings.Contains(out, "3") {
		t.Fatalf("head included row beyond limit: %q", out)
	}
}
