package table

import "strings"

// MissingCategorical is the fill value for missing cells in categorical
// columns. Numeric columns fill with "0".
const MissingCategorical = "Unknown"

// Clean returns a cleaned copy of the table. Steps run in a fixed order:
//
//  1. drop rows that exactly duplicate an earlier row, keeping the first;
//  2. fill missing cells in numeric columns with 0;
//  3. fill missing cells in categorical columns with "Unknown".
//
// Classification happens against the input table, before any fills. The input
// is not mutated; surviving rows and all columns keep their order. Cleaning
// an already-clean table returns an identical table.
func Clean(t *Table) *Table {
	cls := Classify(t)

	seen := make(map[string]struct{}, len(t.Rows))
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cp := make([]string, len(row))
		copy(cp, row)
		rows = append(rows, cp)
	}

	for j, name := range t.Columns {
		fill := MissingCategorical
		if cls.IsNumeric(name) {
			fill = "0"
		}
		for _, row := range rows {
			if IsMissing(row[j]) {
				row[j] = fill
			}
		}
	}

	return &Table{Name: t.Name, Columns: append([]string(nil), t.Columns...), Rows: rows}
}
