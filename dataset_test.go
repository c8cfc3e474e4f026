package clusterlens

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnKindOf(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"num", "mixed", "flag", "cat", "nested", "blank"},
		Records: []Record{
			{"num": 1.5, "mixed": 1.0, "flag": true, "cat": "a", "nested": map[string]any{"k": "v"}},
			{"num": int64(2), "mixed": "two", "flag": false, "cat": "b", "nested": map[string]any{"k": "w"}},
		},
	}

	assert.Equal(t, KindNumeric, ds.ColumnKindOf("num"))
	assert.Equal(t, KindCategorical, ds.ColumnKindOf("mixed"))
	assert.Equal(t, KindBoolean, ds.ColumnKindOf("flag"))
	assert.Equal(t, KindCategorical, ds.ColumnKindOf("cat"))
	assert.Equal(t, KindNested, ds.ColumnKindOf("nested"))
	assert.Equal(t, KindEmpty, ds.ColumnKindOf("blank"))
}

func TestMostFrequentValue(t *testing.T) {
	value, count := mostFrequentValue([]any{"b", "a", "b", nil, math.NaN()})
	assert.Equal(t, "b", value)
	assert.Equal(t, 2, count)

	// Ties resolve to the lexicographically smallest value.
	value, _ = mostFrequentValue([]any{"z", "a"})
	assert.Equal(t, "a", value)

	_, count = mostFrequentValue([]any{nil, nil})
	assert.Equal(t, 0, count)
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "3", stringValue(3.0))
	assert.Equal(t, "1.5", stringValue(1.5))
	assert.Equal(t, "7", stringValue(int64(7)))
	assert.Equal(t, "true", stringValue(true))
	assert.Equal(t, "text", stringValue("text"))
}
