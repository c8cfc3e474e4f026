package clusterlens

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ClusteringResult is the immutable record of one clustering run. Once
// created it is never mutated, only superseded by newer results for the
// same dataset.
type ClusteringResult struct {
	ID          string             `json:"id"`
	DatasetID   string             `json:"dataset_id"`
	DatasetName string             `json:"dataset_name"`
	Algorithm   string             `json:"algorithm"`
	Parameters  Params             `json:"parameters"`
	Labels      []int              `json:"cluster_labels"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Cluster runs the full pipeline over a dataset: preprocess, select an
// algorithm unless one is forced, execute, and score. Any failure returns
// an error with no partial result.
func Cluster(ds *Dataset, algorithmName string, params Params) (*ClusteringResult, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	matrix, _, keptRows, err := preprocessWithRows(ds)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	var algorithm Algorithm
	if algorithmName == "" {
		algorithm = SelectAlgorithm(matrix)
	} else {
		algorithm, err = ParseAlgorithm(algorithmName)
		if err != nil {
			return nil, err
		}
	}

	labels, resolved, err := Execute(matrix, algorithm, params)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}
	metrics := CalculateMetrics(matrix, labels)

	// Rows dropped during preprocessing get a noise label so the stored
	// vector stays aligned with the dataset records.
	if len(keptRows) != len(ds.Records) {
		expanded := make([]int, len(ds.Records))
		for i := range expanded {
			expanded[i] = -1
		}
		for j, row := range keptRows {
			expanded[row] = labels[j]
		}
		labels = expanded
	}

	return &ClusteringResult{
		ID:          uuid.NewString(),
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Algorithm:   algorithm.String(),
		Parameters:  resolved,
		Labels:      labels,
		Metrics:     metrics,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

var clusterAlgorithmFlag string
var clusterParamFlags []string

// ClusterCmd clusters a dataset file and persists the result.
var ClusterCmd = &cobra.Command{
	Use:   "cluster [file]",
	Short: "Cluster a CSV or JSON dataset and store the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ds, err := LoadDatasetFile(args[0])
		if err != nil {
			log.Printf("Failed to load dataset: %v", err)
			return
		}

		params, err := parseParamFlags(clusterParamFlags)
		if err != nil {
			log.Printf("Invalid parameter: %v", err)
			return
		}

		result, err := Cluster(ds, clusterAlgorithmFlag, params)
		if err != nil {
			log.Printf("Clustering failed: %v", err)
			return
		}

		store, err := OpenResultStore(databasePath())
		if err != nil {
			log.Printf("Failed to open result store: %v", err)
			return
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Failed to close result store: %v", err)
			}
		}()

		// Compute fully, then persist; a failed save discards the result.
		if err := store.SaveResult(result); err != nil {
			log.Printf("Failed to save result: %v", err)
			return
		}

		log.Printf("Clustered %s with %s: result %s", ds.Name, result.Algorithm, result.ID)
		if len(result.Metrics) == 0 {
			log.Printf("Metrics unavailable (fewer than 2 clusters or degenerate geometry)")
			return
		}
		log.Printf("Silhouette=%.3f DB=%.3f CH=%.1f clusters=%d noise=%d",
			result.Metrics["silhouette_score"],
			result.Metrics["davies_bouldin_index"],
			result.Metrics["calinski_harabasz_index"],
			int(result.Metrics["n_clusters"]),
			int(result.Metrics["n_noise"]))
	},
}

func init() {
	ClusterCmd.Flags().StringVar(&clusterAlgorithmFlag, "algorithm", "",
		"force an algorithm (K-Means, DBSCAN, HDBSCAN, Hierarchical, GMM)")
	ClusterCmd.Flags().StringArrayVar(&clusterParamFlags, "set", nil,
		"override a parameter, e.g. --set n_clusters=4 --set eps=0.8")
}

// parseParamFlags turns key=value flags into typed parameters.
func parseParamFlags(flags []string) (Params, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	params := make(Params, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", f)
		}
		if i, err := strconv.Atoi(value); err == nil {
			params[key] = i
		} else if fl, err := strconv.ParseFloat(value, 64); err == nil {
			params[key] = fl
		} else {
			params[key] = value
		}
	}
	return params, nil
}
