package clusterlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numericDataset(n int) *Dataset {
	ds := &Dataset{
		ID:      "points.csv",
		Name:    "points.csv",
		Columns: []string{"x", "y"},
	}
	for i := 0; i < n; i++ {
		base := 0.0
		if i%2 == 1 {
			base = 100.0
		}
		ds.Records = append(ds.Records, Record{
			"x": base + float64(i%7)*0.1,
			"y": base + float64(i%5)*0.1,
		})
	}
	return ds
}

func TestClusterPipelineAutoSelect(t *testing.T) {
	ds := numericDataset(20)

	result, err := Cluster(ds, "", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "points.csv", result.DatasetID)
	// 20 rows fall in the K-Means bracket of the size-based selector.
	assert.Equal(t, "K-Means", result.Algorithm)
	assert.Len(t, result.Labels, 20)
	assert.False(t, result.CreatedAt.IsZero())
	assert.NotEmpty(t, result.Metrics)
}

func TestClusterPipelineForcedAlgorithm(t *testing.T) {
	ds := numericDataset(20)

	result, err := Cluster(ds, "gmm", Params{"n_components": 2})
	require.NoError(t, err)
	assert.Equal(t, "GMM", result.Algorithm)
	assert.EqualValues(t, 2, result.Parameters.intValue("n_components", 0))

	_, err = Cluster(ds, "spectral", nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestClusterPipelineExpandsDroppedRows(t *testing.T) {
	ds := numericDataset(12)
	// Row 5 loses every feature and gets dropped during preprocessing.
	ds.Records[5] = Record{"x": nil, "y": nil}

	result, err := Cluster(ds, "kmeans", Params{"n_clusters": 2})
	require.NoError(t, err)

	require.Len(t, result.Labels, 12)
	assert.Equal(t, -1, result.Labels[5])
	for i, l := range result.Labels {
		if i != 5 {
			assert.GreaterOrEqual(t, l, 0, "row %d", i)
		}
	}
}

func TestClusterPipelineEmptyDataset(t *testing.T) {
	_, err := Cluster(&Dataset{}, "", nil)
	assert.Error(t, err)
}

func TestParseParamFlags(t *testing.T) {
	params, err := parseParamFlags([]string{"n_clusters=4", "eps=0.8", "linkage=average"})
	require.NoError(t, err)
	assert.Equal(t, 4, params["n_clusters"])
	assert.Equal(t, 0.8, params["eps"])
	assert.Equal(t, "average", params["linkage"])

	_, err = parseParamFlags([]string{"missing-separator"})
	assert.Error(t, err)
}
