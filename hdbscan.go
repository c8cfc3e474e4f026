package clusterlens

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// runHDBSCAN performs hierarchical density clustering: single linkage over
// mutual-reachability distances, cut at the widest gap in the merge
// sequence, with undersized components discarded as noise. Unlike DBSCAN it
// needs no eps and tolerates clusters of different densities.
func runHDBSCAN(m *mat.Dense, minClusterSize, minSamples int) []int {
	n, _ := m.Dims()
	labels := make([]int, n)
	if n < minClusterSize {
		for i := range labels {
			labels[i] = -1
		}
		return labels
	}

	core := coreDistances(m, minSamples)

	// Minimum spanning tree over mutual reachability (Prim).
	type edge struct {
		a, b   int
		weight float64
	}
	inTree := make([]bool, n)
	best := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	edges := make([]edge, 0, n-1)

	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		curRow := m.RawRowView(current)
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			d := euclidean(curRow, m.RawRowView(j))
			w := math.Max(d, math.Max(core[current], core[j]))
			if w < best[j] {
				best[j] = w
				bestFrom[j] = current
			}
		}
		next, nextW := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && best[j] < nextW {
				next, nextW = j, best[j]
			}
		}
		edges = append(edges, edge{a: bestFrom[next], b: next, weight: nextW})
		inTree[next] = true
		current = next
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })

	// The widest jump between consecutive merge distances separates genuine
	// cluster structure from the bridges joining it; everything from the
	// jump onward is dropped. A flat merge sequence keeps every edge.
	cut := len(edges)
	widest := 0.0
	for i := 1; i < len(edges); i++ {
		if gap := edges[i].weight - edges[i-1].weight; gap > widest {
			widest = gap
			cut = i
		}
	}
	if widest == 0 {
		cut = len(edges)
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range edges[:cut] {
		ra, rb := find(e.a), find(e.b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	sizes := make(map[int]int)
	for i := 0; i < n; i++ {
		sizes[find(i)]++
	}

	// Components below the minimum cluster size become noise. Surviving
	// components get ids in order of their lowest member index.
	ids := make(map[int]int)
	for i := 0; i < n; i++ {
		root := find(i)
		if sizes[root] < minClusterSize {
			labels[i] = -1
			continue
		}
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels
}

// coreDistances returns each point's distance to its minSamples-th nearest
// neighbor, the point itself counted as the first.
func coreDistances(m *mat.Dense, minSamples int) []float64 {
	n, _ := m.Dims()
	k := minSamples
	if k > n {
		k = n
	}
	core := make([]float64, n)
	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		for j := 0; j < n; j++ {
			dists[j] = euclidean(row, m.RawRowView(j))
		}
		sorted := append([]float64(nil), dists...)
		sort.Float64s(sorted)
		core[i] = sorted[k-1]
	}
	return core
}
