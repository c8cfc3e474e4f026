package clusterlens

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	kmeansSeed      = 42
	kmeansRestarts  = 10
	kmeansMaxIter   = 100
	kmeansTolerance = 1e-4
)

// runKMeans clusters the rows of m into k groups. The seed is fixed so
// repeated runs give identical labels; the best of several restarts by
// inertia is kept. Returned labels are compacted to 0..k'-1 with empty
// clusters removed.
func runKMeans(m *mat.Dense, k int) []int {
	rng := rand.New(rand.NewSource(kmeansSeed))

	var bestLabels []int
	bestInertia := math.Inf(1)
	for r := 0; r < kmeansRestarts; r++ {
		labels, inertia := kmeansOnce(m, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
		}
	}
	return compactLabels(bestLabels)
}

func kmeansOnce(m *mat.Dense, k int, rng *rand.Rand) ([]int, float64) {
	n, d := m.Dims()
	centroids := initCentroidsPlusPlus(m, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < kmeansMaxIter; iter++ {
		next := assignToCentroids(m, centroids)
		converged := true
		for i := range labels {
			if labels[i] != next[i] {
				converged = false
				break
			}
		}
		labels = next
		if converged {
			break
		}

		updated := updateCentroids(m, labels, centroids, k)
		shift := 0.0
		for c := 0; c < k; c++ {
			shift += euclidean(centroids.RawRowView(c), updated.RawRowView(c))
		}
		centroids = updated
		if shift/float64(k) < kmeansTolerance {
			break
		}
	}

	inertia := 0.0
	for i := 0; i < n; i++ {
		d2 := 0.0
		row := m.RawRowView(i)
		centroid := centroids.RawRowView(labels[i])
		for j := 0; j < d; j++ {
			diff := row[j] - centroid[j]
			d2 += diff * diff
		}
		inertia += d2
	}
	return labels, inertia
}

// initCentroidsPlusPlus seeds centroids with the k-means++ scheme: the first
// at random, the rest with probability proportional to squared distance to
// the nearest chosen centroid.
func initCentroidsPlusPlus(m *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := m.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, m.RawRowView(rng.Intn(n)))

	distances := make([]float64, n)
	for c := 1; c < k; c++ {
		total := 0.0
		for i := 0; i < n; i++ {
			minDist := math.Inf(1)
			row := m.RawRowView(i)
			for prev := 0; prev < c; prev++ {
				if dist := euclidean(row, centroids.RawRowView(prev)); dist < minDist {
					minDist = dist
				}
			}
			distances[i] = minDist * minDist
			total += distances[i]
		}

		if total == 0 {
			// All points coincide with chosen centroids.
			centroids.SetRow(c, m.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		cum := 0.0
		chosen := n - 1
		for i, dist := range distances {
			cum += dist
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids.SetRow(c, m.RawRowView(chosen))
	}
	return centroids
}

func assignToCentroids(m, centroids *mat.Dense) []int {
	n, _ := m.Dims()
	k, _ := centroids.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			if dist := euclidean(row, centroids.RawRowView(c)); dist < bestDist {
				best, bestDist = c, dist
			}
		}
		labels[i] = best
	}
	return labels
}

// updateCentroids recomputes cluster means. A cluster that lost all its
// points keeps its previous centroid.
func updateCentroids(m *mat.Dense, labels []int, previous *mat.Dense, k int) *mat.Dense {
	n, d := m.Dims()
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)

	for i := 0; i < n; i++ {
		c := labels[i]
		counts[c]++
		row := m.RawRowView(i)
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)+row[j])
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centroids.SetRow(c, previous.RawRowView(c))
			continue
		}
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}
	return centroids
}

// compactLabels renumbers cluster ids to a dense 0..k-1 range in order of
// first appearance, leaving -1 noise labels untouched.
func compactLabels(labels []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l == -1 {
			out[i] = -1
			continue
		}
		id, ok := remap[l]
		if !ok {
			id = len(remap)
			remap[l] = id
		}
		out[i] = id
	}
	return out
}
