package clusterlens

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Algorithm identifies a supported clustering algorithm.
type Algorithm int

const (
	KMeans Algorithm = iota
	DBSCAN
	HDBSCAN
	Agglomerative
	GMM
)

// ErrUnknownAlgorithm is returned for algorithm names outside the supported set.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

func (a Algorithm) String() string {
	switch a {
	case KMeans:
		return "K-Means"
	case DBSCAN:
		return "DBSCAN"
	case HDBSCAN:
		return "HDBSCAN"
	case Agglomerative:
		return "Hierarchical"
	case GMM:
		return "GMM"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// ParseAlgorithm resolves a caller-supplied algorithm name. Matching is
// case-insensitive and accepts the common spellings of each name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "k-means", "kmeans":
		return KMeans, nil
	case "dbscan":
		return DBSCAN, nil
	case "hdbscan":
		return HDBSCAN, nil
	case "hierarchical", "agglomerative":
		return Agglomerative, nil
	case "gmm", "gaussian-mixture":
		return GMM, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// SelectAlgorithm picks an algorithm from the sample count alone. Small data
// gets a centroid method, mid-sized data a density method, and anything past
// a hundred rows the hierarchical density method that tolerates noise
// without an eps tuned to the dataset.
func SelectAlgorithm(m *mat.Dense) Algorithm {
	n, _ := m.Dims()
	switch {
	case n < 10:
		return KMeans
	case n > 100:
		return HDBSCAN
	case n > 50:
		return DBSCAN
	default:
		return KMeans
	}
}

// Params holds algorithm parameters, caller overrides in, resolved values out.
type Params map[string]any

func (p Params) intValue(key string, def int) int {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func (p Params) floatValue(key string, def float64) float64 {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

func (p Params) stringValue(key, def string) string {
	if p == nil {
		return def
	}
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

// defaultClusterCount derives the centroid-method cluster count from the
// sample count: min(3, n/3) clamped into [2, n].
func defaultClusterCount(n int) int {
	k := 3
	if n/3 < k {
		k = n / 3
	}
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	return k
}

// Execute runs the requested algorithm over the feature matrix and returns
// the label vector together with the parameters that were actually used.
// Noise points carry label -1. The matrix is never modified.
func Execute(m *mat.Dense, algorithm Algorithm, params Params) ([]int, Params, error) {
	n, _ := m.Dims()
	if n == 0 {
		return nil, nil, fmt.Errorf("empty feature matrix")
	}

	switch algorithm {
	case KMeans:
		k := params.intValue("n_clusters", defaultClusterCount(n))
		if k < 2 {
			k = 2
		}
		if k > n {
			k = n
		}
		labels := runKMeans(m, k)
		return labels, Params{"n_clusters": k}, nil

	case DBSCAN:
		eps := params.floatValue("eps", 0.5)
		minSamples := params.intValue("min_samples", maxInt(5, n/20))
		labels := runDBSCAN(m, eps, minSamples)
		return labels, Params{"eps": eps, "min_samples": minSamples}, nil

	case HDBSCAN:
		minClusterSize := params.intValue("min_cluster_size", maxInt(5, n/20))
		minSamples := params.intValue("min_samples", maxInt(3, minClusterSize/2))
		labels := runHDBSCAN(m, minClusterSize, minSamples)
		resolved := Params{"min_cluster_size": minClusterSize, "min_samples": minSamples}
		return labels, resolved, nil

	case Agglomerative:
		k := params.intValue("n_clusters", defaultClusterCount(n))
		if k < 2 {
			k = 2
		}
		if k > n {
			k = n
		}
		linkage := params.stringValue("linkage", "ward")
		labels, err := runAgglomerative(m, k, linkage)
		if err != nil {
			return nil, nil, err
		}
		return labels, Params{"n_clusters": k, "linkage": linkage}, nil

	case GMM:
		comps := params.intValue("n_components", defaultClusterCount(n))
		if comps < 2 {
			comps = 2
		}
		if comps > n {
			comps = n
		}
		covType := params.stringValue("covariance_type", "full")
		labels, err := runGMM(m, comps, covType)
		if err != nil {
			return nil, nil, err
		}
		return labels, Params{"n_components": comps, "covariance_type": covType}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, algorithm)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// euclidean returns the euclidean distance between two rows.
func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
