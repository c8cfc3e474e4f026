package clusterlens

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CalculateMetrics computes internal validity metrics for a clustering:
// silhouette score (higher is better), Davies-Bouldin index (lower is
// better) and Calinski-Harabasz index (higher is better), plus the cluster
// and noise counts.
//
// With fewer than two distinct non-noise clusters the metrics are undefined
// and an empty map is returned. When noise points exist the metrics are
// computed over the non-noise subset. Degenerate geometry (coincident
// centroids, zero dispersion) also yields an empty map: a clustering without
// a quality score beats a failed pipeline.
func CalculateMetrics(m *mat.Dense, labels []int) map[string]float64 {
	n, _ := m.Dims()
	if n == 0 || len(labels) != n {
		return map[string]float64{}
	}

	distinct := make(map[int]struct{})
	noise := 0
	for _, l := range labels {
		if l == -1 {
			noise++
			continue
		}
		distinct[l] = struct{}{}
	}
	if len(distinct) < 2 {
		return map[string]float64{}
	}

	evalM, evalLabels := m, labels
	if noise > 0 && n-noise >= 2 {
		evalM, evalLabels = filterNoise(m, labels)
	}

	silhouette, ok := silhouetteScore(evalM, evalLabels)
	if !ok {
		return map[string]float64{}
	}
	daviesBouldin, ok := daviesBouldinIndex(evalM, evalLabels)
	if !ok {
		return map[string]float64{}
	}
	calinskiHarabasz, ok := calinskiHarabaszIndex(evalM, evalLabels)
	if !ok {
		return map[string]float64{}
	}

	return map[string]float64{
		"silhouette_score":        silhouette,
		"davies_bouldin_index":    daviesBouldin,
		"calinski_harabasz_index": calinskiHarabasz,
		"n_clusters":              float64(len(distinct)),
		"n_noise":                 float64(noise),
	}
}

// filterNoise copies the non-noise rows and labels.
func filterNoise(m *mat.Dense, labels []int) (*mat.Dense, []int) {
	_, d := m.Dims()
	var rows []int
	for i, l := range labels {
		if l != -1 {
			rows = append(rows, i)
		}
	}
	out := mat.NewDense(len(rows), d, nil)
	outLabels := make([]int, len(rows))
	for ii, i := range rows {
		out.SetRow(ii, m.RawRowView(i))
		outLabels[ii] = labels[i]
	}
	return out, outLabels
}

// silhouetteScore averages, over all points, how much closer each point is
// to its own cluster than to the nearest other cluster. Points in singleton
// clusters contribute zero.
func silhouetteScore(m *mat.Dense, labels []int) (float64, bool) {
	n, _ := m.Dims()
	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 {
		return 0, false
	}

	total := 0.0
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		own := labels[i]

		sums := make(map[int]float64)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += euclidean(row, m.RawRowView(j))
		}

		if sizes[own] <= 1 {
			continue // singleton, defined as zero
		}
		a := sums[own] / float64(sizes[own]-1)

		b := math.Inf(1)
		for c, sum := range sums {
			if c == own {
				continue
			}
			if avg := sum / float64(sizes[c]); avg < b {
				b = avg
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	score := total / float64(n)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	return score, true
}

// daviesBouldinIndex is the mean, over clusters, of the worst ratio of
// summed within-cluster scatter to centroid separation.
func daviesBouldinIndex(m *mat.Dense, labels []int) (float64, bool) {
	centroids, ids := clusterCentroids(m, labels)
	k := len(ids)
	if k < 2 {
		return 0, false
	}

	scatter := make([]float64, k)
	counts := make([]float64, k)
	idIndex := make(map[int]int, k)
	for idx, id := range ids {
		idIndex[id] = idx
	}
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		idx := idIndex[labels[i]]
		scatter[idx] += euclidean(m.RawRowView(i), centroids[idx])
		counts[idx]++
	}
	for idx := range scatter {
		scatter[idx] /= counts[idx]
	}

	sum := 0.0
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			sep := euclidean(centroids[i], centroids[j])
			if sep == 0 {
				return 0, false // coincident centroids, index undefined
			}
			if r := (scatter[i] + scatter[j]) / sep; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	index := sum / float64(k)
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return 0, false
	}
	return index, true
}

// calinskiHarabaszIndex is the ratio of between-cluster to within-cluster
// variance, each normalized by its degrees of freedom.
func calinskiHarabaszIndex(m *mat.Dense, labels []int) (float64, bool) {
	n, d := m.Dims()
	centroids, ids := clusterCentroids(m, labels)
	k := len(ids)
	if k < 2 || n <= k {
		return 0, false
	}
	idIndex := make(map[int]int, k)
	for idx, id := range ids {
		idIndex[id] = idx
	}

	overall := make([]float64, d)
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		for j := 0; j < d; j++ {
			overall[j] += row[j]
		}
	}
	for j := 0; j < d; j++ {
		overall[j] /= float64(n)
	}

	counts := make([]float64, k)
	within := 0.0
	for i := 0; i < n; i++ {
		idx := idIndex[labels[i]]
		counts[idx]++
		dst := euclidean(m.RawRowView(i), centroids[idx])
		within += dst * dst
	}
	between := 0.0
	for idx := 0; idx < k; idx++ {
		dst := euclidean(centroids[idx], overall)
		between += counts[idx] * dst * dst
	}
	if within == 0 {
		return 0, false
	}

	index := (between / float64(k-1)) / (within / float64(n-k))
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return 0, false
	}
	return index, true
}

// clusterCentroids returns per-cluster mean vectors and the sorted cluster
// ids they belong to. Noise labels must be filtered out beforehand.
func clusterCentroids(m *mat.Dense, labels []int) ([][]float64, []int) {
	n, d := m.Dims()
	sums := make(map[int][]float64)
	counts := make(map[int]int)
	for i := 0; i < n; i++ {
		l := labels[i]
		if sums[l] == nil {
			sums[l] = make([]float64, d)
		}
		row := m.RawRowView(i)
		for j := 0; j < d; j++ {
			sums[l][j] += row[j]
		}
		counts[l]++
	}

	ids := make([]int, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	centroids := make([][]float64, len(ids))
	for idx, id := range ids {
		c := make([]float64, d)
		for j := 0; j < d; j++ {
			c[j] = sums[id][j] / float64(counts[id])
		}
		centroids[idx] = c
	}
	return centroids, ids
}
