package clusterlens

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNoUsableFeatures is returned when preprocessing leaves no rows or
// columns to cluster on. Callers must treat it as fatal for the request.
var ErrNoUsableFeatures = errors.New("no usable rows or columns after preprocessing")

// missingCategory is the encoded label for missing categorical cells.
const missingCategory = "__MISSING__"

// Preprocess turns a dataset into a standardized feature matrix.
//
// Numeric columns with at least one value and nonzero variance are used
// directly. When none survive, categorical columns with at least two distinct
// values are ordinal-encoded instead. Rows that are missing across all
// selected columns are dropped, remaining gaps are median-imputed, and every
// column is scaled to zero mean and unit variance.
func Preprocess(ds *Dataset) (*mat.Dense, []string, error) {
	m, names, _, err := preprocessWithRows(ds)
	return m, names, err
}

// preprocessWithRows additionally reports which dataset rows survived, so
// analysis code can align labels with original records.
func preprocessWithRows(ds *Dataset) (*mat.Dense, []string, []int, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, nil, nil, ErrNoUsableFeatures
	}

	var features []string
	for _, col := range ds.Columns {
		if ds.ColumnKindOf(col) != KindNumeric {
			continue
		}
		if ds.distinctNonMissing(col) > 1 {
			features = append(features, col)
		}
	}

	categorical := len(features) == 0
	if categorical {
		for _, col := range ds.Columns {
			kind := ds.ColumnKindOf(col)
			if kind != KindCategorical && kind != KindBoolean {
				continue
			}
			if ds.distinctNonMissing(col) > 1 {
				features = append(features, col)
			}
		}
	}
	if len(features) == 0 {
		return nil, nil, nil, ErrNoUsableFeatures
	}

	// Raw cells, NaN for missing. Categorical columns are encoded first so
	// a missing cell becomes a category of its own rather than a gap.
	raw := make([][]float64, len(ds.Records))
	if categorical {
		encoders := make([]map[string]float64, len(features))
		for j, col := range features {
			encoders[j] = ordinalEncoder(ds, col)
		}
		for i, rec := range ds.Records {
			row := make([]float64, len(features))
			for j, col := range features {
				row[j] = encoders[j][categoryOf(rec[col])]
			}
			raw[i] = row
		}
	} else {
		for i, rec := range ds.Records {
			row := make([]float64, len(features))
			for j, col := range features {
				if v, ok := numericValue(rec[col]); ok {
					row[j] = v
				} else {
					row[j] = math.NaN()
				}
			}
			raw[i] = row
		}
	}

	// Drop rows that are missing in every selected column.
	var keptRows []int
	for i, row := range raw {
		allMissing := true
		for _, v := range row {
			if !math.IsNaN(v) {
				allMissing = false
				break
			}
		}
		if !allMissing {
			keptRows = append(keptRows, i)
		}
	}
	if len(keptRows) == 0 {
		return nil, nil, nil, ErrNoUsableFeatures
	}

	// Drop columns that became entirely missing after the row drop.
	var keptCols []int
	for j := range features {
		allMissing := true
		for _, i := range keptRows {
			if !math.IsNaN(raw[i][j]) {
				allMissing = false
				break
			}
		}
		if !allMissing {
			keptCols = append(keptCols, j)
		}
	}
	if len(keptCols) == 0 {
		return nil, nil, nil, ErrNoUsableFeatures
	}

	names := make([]string, len(keptCols))
	for jj, j := range keptCols {
		names[jj] = features[j]
	}

	matData := mat.NewDense(len(keptRows), len(keptCols), nil)
	for ii, i := range keptRows {
		for jj, j := range keptCols {
			matData.Set(ii, jj, raw[i][j])
		}
	}

	imputeMedians(matData)
	standardize(matData)
	return matData, names, keptRows, nil
}

// ordinalEncoder maps the distinct categories of a column, missing marker
// included, onto stable integer codes in sorted order.
func ordinalEncoder(ds *Dataset, col string) map[string]float64 {
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		seen[categoryOf(rec[col])] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	codes := make(map[string]float64, len(cats))
	for i, c := range cats {
		codes[c] = float64(i)
	}
	return codes
}

func categoryOf(v any) string {
	if isMissing(v) {
		return missingCategory
	}
	return stringValue(v)
}

// imputeMedians replaces NaN cells with their column median.
func imputeMedians(m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		var present []float64
		for i := 0; i < rows; i++ {
			if v := m.At(i, j); !math.IsNaN(v) {
				present = append(present, v)
			}
		}
		if len(present) == rows {
			continue
		}
		med := median(present)
		for i := 0; i < rows; i++ {
			if math.IsNaN(m.At(i, j)) {
				m.Set(i, j, med)
			}
		}
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// standardize scales every column to zero mean and unit variance. Columns
// that collapsed to a constant after row drops keep their zero spread
// instead of dividing by zero.
func standardize(m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		mean := 0.0
		for i := 0; i < rows; i++ {
			mean += m.At(i, j)
		}
		mean /= float64(rows)

		variance := 0.0
		for i := 0; i < rows; i++ {
			d := m.At(i, j) - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(rows))
		if std == 0 {
			std = 1
		}
		for i := 0; i < rows; i++ {
			m.Set(i, j, (m.At(i, j)-mean)/std)
		}
	}
}
