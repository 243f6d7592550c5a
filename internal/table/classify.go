package table

// Classification partitions column names by inferred value type. Every column
// appears in exactly one of the two sets.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// IsNumeric reports whether the named column was classified numeric.
func (c Classification) IsNumeric(name string) bool {
	for _, n := range c.Numeric {
		if n == name {
			return true
		}
	}
	return false
}

// IsCategorical reports whether the named column was classified categorical.
func (c Classification) IsCategorical(name string) bool {
	for _, n := range c.Categorical {
		if n == name {
			return true
		}
	}
	return false
}

// Classify inspects each column's values and partitions the column names into
// numeric and categorical sets. A column is numeric when it has at least one
// present value and every present value parses as a number; everything else,
// including all-missing columns, is categorical. Pure function of the table;
// callers recompute it after every structural change.
func Classify(t *Table) Classification {
	var cls Classification
	for j, name := range t.Columns {
		present := 0
		numeric := true
		for _, row := range t.Rows {
			v := row[j]
			if IsMissing(v) {
				continue
			}
			present++
			if _, ok := ParseNumber(v); !ok {
				numeric = false
				break
			}
		}
		if numeric && present > 0 {
			cls.Numeric = append(cls.Numeric, name)
		} else {
			cls.Categorical = append(cls.Categorical, name)
		}
	}
	return cls
}
