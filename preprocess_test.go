package clusterlens

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessStandardizesNumericColumns(t *testing.T) {
	ds := &Dataset{
		Name:    "measurements.csv",
		Columns: []string{"height", "weight"},
		Records: []Record{
			{"height": 1.0, "weight": 10.0},
			{"height": 2.0, "weight": 20.0},
			{"height": 3.0, "weight": 30.0},
			{"height": 4.0, "weight": 40.0},
		},
	}

	m, names, err := Preprocess(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"height", "weight"}, names)

	rows, cols := m.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 2, cols)

	for j := 0; j < cols; j++ {
		mean, variance := 0.0, 0.0
		for i := 0; i < rows; i++ {
			mean += m.At(i, j)
		}
		mean /= float64(rows)
		for i := 0; i < rows; i++ {
			d := m.At(i, j) - mean
			variance += d * d
		}
		variance /= float64(rows)
		assert.InDelta(t, 0.0, mean, 1e-9)
		assert.InDelta(t, 1.0, variance, 1e-9)
	}
}

func TestPreprocessDropsConstantColumns(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"value", "constant"},
		Records: []Record{
			{"value": 1.0, "constant": 7.0},
			{"value": 2.0, "constant": 7.0},
			{"value": 3.0, "constant": 7.0},
		},
	}

	_, names, err := Preprocess(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"value"}, names)
}

func TestPreprocessFallsBackToCategorical(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"color", "shape"},
		Records: []Record{
			{"color": "red", "shape": "circle"},
			{"color": "blue", "shape": "square"},
			{"color": "red", "shape": "circle"},
			{"color": "green", "shape": "square"},
		},
	}

	m, names, err := Preprocess(ds)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"color", "shape"}, names)

	rows, cols := m.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2, cols)
}

func TestPreprocessImputesMissingWithMedian(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"a", "b"},
		Records: []Record{
			{"a": 1.0, "b": 2.0},
			{"a": nil, "b": 4.0},
			{"a": 3.0, "b": 6.0},
			{"a": 5.0, "b": nil},
		},
	}

	m, _, err := Preprocess(ds)
	require.NoError(t, err)

	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.False(t, math.IsNaN(m.At(i, j)), "cell (%d,%d) is NaN", i, j)
		}
	}
}

func TestPreprocessDropsAllMissingRows(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"x", "y"},
		Records: []Record{
			{"x": 1.0, "y": 2.0},
			{"x": nil, "y": nil},
			{"x": 3.0, "y": 4.0},
		},
	}

	m, _, kept, err := preprocessWithRows(ds)
	require.NoError(t, err)

	rows, _ := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, []int{0, 2}, kept)
}

func TestPreprocessNoUsableFeatures(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"constant"},
		Records: []Record{
			{"constant": "same"},
			{"constant": "same"},
		},
	}

	_, _, err := Preprocess(ds)
	assert.ErrorIs(t, err, ErrNoUsableFeatures)

	_, _, err = Preprocess(&Dataset{})
	assert.ErrorIs(t, err, ErrNoUsableFeatures)
}
