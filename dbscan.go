package clusterlens

import "gonum.org/v1/gonum/mat"

// runDBSCAN performs density-based clustering. Points whose eps-neighborhood
// holds fewer than minSamples points (the point itself included) are noise
// unless reachable from a core point. Noise keeps label -1.
func runDBSCAN(m *mat.Dense, eps float64, minSamples int) []int {
	n, _ := m.Dims()

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		neighbors := regionQuery(m, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = -1
			continue
		}

		labels[i] = cluster
		// Seed list grows as new core points are reached.
		for qi := 0; qi < len(neighbors); qi++ {
			q := neighbors[qi]
			if labels[q] == -1 {
				labels[q] = cluster // border point rescued from noise
			}
			if labels[q] != unvisited {
				continue
			}
			labels[q] = cluster
			qNeighbors := regionQuery(m, q, eps)
			if len(qNeighbors) >= minSamples {
				neighbors = append(neighbors, qNeighbors...)
			}
		}
		cluster++
	}

	return labels
}

// regionQuery returns all row indices within eps of row i, i included.
func regionQuery(m *mat.Dense, i int, eps float64) []int {
	n, _ := m.Dims()
	row := m.RawRowView(i)
	var neighbors []int
	for j := 0; j < n; j++ {
		if euclidean(row, m.RawRowView(j)) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
