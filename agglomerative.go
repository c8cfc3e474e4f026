package clusterlens

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// runAgglomerative performs bottom-up agglomerative clustering down to k
// clusters. Ward linkage is the default; average, complete and single are
// accepted as overrides. Every point gets a cluster, there is no noise.
func runAgglomerative(m *mat.Dense, k int, linkage string) ([]int, error) {
	switch linkage {
	case "ward", "average", "complete", "single":
	default:
		return nil, fmt.Errorf("unsupported linkage %q", linkage)
	}

	n, _ := m.Dims()
	if k >= n {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = i
		}
		return labels, nil
	}

	// Ward works on squared euclidean distances, the others on plain ones.
	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(m.RawRowView(i), m.RawRowView(j))
			if linkage == "ward" {
				d = d * d
			}
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	sizes := make([]int, n)
	members := make([][]int, n)
	for i := 0; i < n; i++ {
		active[i] = true
		sizes[i] = 1
		members[i] = []int{i}
	}

	remaining := n
	for remaining > k {
		// Closest active pair.
		bi, bj, bd := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < bd {
					bi, bj, bd = i, j, dist[i][j]
				}
			}
		}

		// Merge bj into bi and update distances with the Lance-Williams
		// formula for the chosen linkage.
		na, nb := float64(sizes[bi]), float64(sizes[bj])
		for c := 0; c < n; c++ {
			if !active[c] || c == bi || c == bj {
				continue
			}
			dac, dbc := dist[bi][c], dist[bj][c]
			var merged float64
			switch linkage {
			case "ward":
				nc := float64(sizes[c])
				merged = ((na+nc)*dac + (nb+nc)*dbc - nc*bd) / (na + nb + nc)
			case "average":
				merged = (na*dac + nb*dbc) / (na + nb)
			case "complete":
				merged = math.Max(dac, dbc)
			case "single":
				merged = math.Min(dac, dbc)
			}
			dist[bi][c] = merged
			dist[c][bi] = merged
		}
		members[bi] = append(members[bi], members[bj]...)
		sizes[bi] += sizes[bj]
		active[bj] = false
		remaining--
	}

	// Cluster ids in order of lowest member index.
	labels := make([]int, n)
	id := 0
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		for _, p := range members[i] {
			labels[p] = id
		}
		id++
	}
	return compactLabels(labels), nil
}
