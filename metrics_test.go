package clusterlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMetricsWellSeparated(t *testing.T) {
	m := blobs([][]float64{{0, 0}, {10, 10}}, 20, 0.2)
	labels := make([]int, 40)
	for i := 20; i < 40; i++ {
		labels[i] = 1
	}

	metrics := CalculateMetrics(m, labels)
	require.NotEmpty(t, metrics)

	assert.Equal(t, 2.0, metrics["n_clusters"])
	assert.Equal(t, 0.0, metrics["n_noise"])
	assert.Greater(t, metrics["silhouette_score"], 0.9)
	assert.Less(t, metrics["davies_bouldin_index"], 0.5)
	assert.Greater(t, metrics["calinski_harabasz_index"], 100.0)
}

func TestCalculateMetricsSingleCluster(t *testing.T) {
	m := blobs([][]float64{{0, 0}}, 10, 0.2)
	labels := make([]int, 10)

	metrics := CalculateMetrics(m, labels)
	assert.Empty(t, metrics)
}

func TestCalculateMetricsAllNoise(t *testing.T) {
	m := blobs([][]float64{{0, 0}}, 10, 0.2)
	labels := make([]int, 10)
	for i := range labels {
		labels[i] = -1
	}

	metrics := CalculateMetrics(m, labels)
	assert.Empty(t, metrics)
}

func TestCalculateMetricsIgnoresNoiseRows(t *testing.T) {
	m := blobs([][]float64{{0, 0}, {10, 10}, {100, 100}}, 10, 0.2)
	labels := make([]int, 30)
	for i := 10; i < 20; i++ {
		labels[i] = 1
	}
	for i := 20; i < 30; i++ {
		labels[i] = -1
	}

	metrics := CalculateMetrics(m, labels)
	require.NotEmpty(t, metrics)
	assert.Equal(t, 2.0, metrics["n_clusters"])
	assert.Equal(t, 10.0, metrics["n_noise"])
	// The distant noise rows must not inflate separation scores.
	assert.Greater(t, metrics["silhouette_score"], 0.9)
}
