package clusterlens

import (
	"fmt"
	"math"
	"sort"
)

// Record is a single row of a dataset, keyed by column name.
// A missing key or a nil value both mean "missing".
type Record map[string]any

// Dataset is a fully materialized tabular dataset.
type Dataset struct {
	ID      string   // assigned by the caller, used to key stored results
	Name    string   // display name, e.g. the original filename
	Columns []string // column order as loaded
	Records []Record
}

// ColumnKind classifies the dominant value type of a column.
type ColumnKind int

const (
	KindEmpty ColumnKind = iota
	KindNumeric
	KindBoolean
	KindCategorical
	KindNested
)

func (k ColumnKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindCategorical:
		return "categorical"
	case KindNested:
		return "nested"
	default:
		return "empty"
	}
}

// NumRows returns the number of records.
func (ds *Dataset) NumRows() int { return len(ds.Records) }

// HasColumn reports whether the dataset has the named column.
func (ds *Dataset) HasColumn(name string) bool {
	for _, c := range ds.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnValues returns the column values in record order, nil for missing cells.
func (ds *Dataset) ColumnValues(name string) []any {
	values := make([]any, len(ds.Records))
	for i, rec := range ds.Records {
		values[i] = rec[name]
	}
	return values
}

// ColumnKindOf classifies a column by scanning its non-missing values.
// Mixed numeric/string columns count as categorical.
func (ds *Dataset) ColumnKindOf(name string) ColumnKind {
	numeric, boolean, nested, other := 0, 0, 0, 0
	for _, rec := range ds.Records {
		v := rec[name]
		if isMissing(v) {
			continue
		}
		switch v.(type) {
		case float64, int, int64:
			numeric++
		case bool:
			boolean++
		case map[string]any, []any:
			nested++
		default:
			other++
		}
	}
	total := numeric + boolean + nested + other
	switch {
	case total == 0:
		return KindEmpty
	case numeric == total:
		return KindNumeric
	case boolean == total:
		return KindBoolean
	case nested == total:
		return KindNested
	default:
		return KindCategorical
	}
}

// isMissing reports whether a cell value counts as missing.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// numericValue converts a cell to float64 when possible.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// stringValue renders a cell for counting and display.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case float64:
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case int:
		return fmt.Sprintf("%d", s)
	case int64:
		return fmt.Sprintf("%d", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// distinctNonMissing counts the distinct non-missing values of a column.
func (ds *Dataset) distinctNonMissing(name string) int {
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		v := rec[name]
		if isMissing(v) {
			continue
		}
		seen[stringValue(v)] = struct{}{}
	}
	return len(seen)
}

// missingCount counts missing cells in a column.
func (ds *Dataset) missingCount(name string) int {
	n := 0
	for _, rec := range ds.Records {
		if isMissing(rec[name]) {
			n++
		}
	}
	return n
}

// mostFrequentValue returns the most frequent non-missing value of a slice
// and its count. Ties break toward the lexicographically smallest value so
// repeated runs agree.
func mostFrequentValue(values []any) (string, int) {
	counts := make(map[string]int)
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		counts[stringValue(v)]++
	}
	if len(counts) == 0 {
		return "", 0
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best, bestCount := keys[0], counts[keys[0]]
	for _, k := range keys[1:] {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}
