package clusterlens

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// FeatureDetail describes one column that fed the clustering.
type FeatureDetail struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	UniqueValues  int    `json:"unique_values"`
	MissingCount  int    `json:"missing_count"`
	IsCategorical bool   `json:"is_categorical"`
}

// DataShape summarizes dataset dimensions before and after preprocessing.
type DataShape struct {
	Rows              int `json:"rows"`
	Columns           int `json:"columns"`
	ProcessedRows     int `json:"processed_rows"`
	ProcessedFeatures int `json:"processed_features"`
}

// PreprocessingInfo names the transformations applied before clustering.
type PreprocessingInfo struct {
	Algorithm string `json:"algorithm"`
	Scaling   string `json:"scaling"`
	Encoding  string `json:"encoding"`
}

// FeatureReport explains which features a clustering result was built on.
type FeatureReport struct {
	TotalFeatures  int               `json:"total_features"`
	FeatureNames   []string          `json:"feature_names"`
	FeatureDetails []FeatureDetail   `json:"feature_details"`
	DataShape      DataShape         `json:"data_shape"`
	Preprocessing  PreprocessingInfo `json:"preprocessing_info"`
}

// ClusteringFeatures re-runs preprocessing on the dataset and reports which
// columns were used, how they were typed and how they were transformed.
func ClusteringFeatures(ds *Dataset, result *ClusteringResult) (*FeatureReport, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	m, featureNames, _, err := preprocessWithRows(ds)
	if err != nil {
		return nil, fmt.Errorf("could not determine features: %w", err)
	}
	processedRows, _ := m.Dims()

	details := make([]FeatureDetail, 0, len(featureNames))
	categorical := false
	for _, name := range featureNames {
		kind := ds.ColumnKindOf(name)
		isCategorical := kind == KindCategorical || kind == KindBoolean
		if isCategorical {
			categorical = true
		}
		details = append(details, FeatureDetail{
			Name:          name,
			Type:          kind.String(),
			UniqueValues:  ds.distinctNonMissing(name),
			MissingCount:  ds.missingCount(name),
			IsCategorical: isCategorical,
		})
	}

	encoding := "None (numeric features only)"
	if categorical {
		encoding = "Ordinal encoding for categorical features"
	}

	algorithm := ""
	if result != nil {
		algorithm = result.Algorithm
	}

	return &FeatureReport{
		TotalFeatures:  len(featureNames),
		FeatureNames:   featureNames,
		FeatureDetails: details,
		DataShape: DataShape{
			Rows:              len(ds.Records),
			Columns:           len(ds.Columns),
			ProcessedRows:     processedRows,
			ProcessedFeatures: len(featureNames),
		},
		Preprocessing: PreprocessingInfo{
			Algorithm: algorithm,
			Scaling:   "StandardScaler (mean=0, std=1)",
			Encoding:  encoding,
		},
	}, nil
}

// FeaturesCmd prints the feature report of a stored result.
var FeaturesCmd = &cobra.Command{
	Use:   "features [file] [result-id]",
	Short: "Show which features a clustering result was built on",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ds, result, ok := loadDatasetAndResult(args[0], args[1])
		if !ok {
			return
		}
		report, err := ClusteringFeatures(ds, result)
		if err != nil {
			log.Printf("Failed to get feature report: %v", err)
			return
		}
		printJSON(report)
	},
}
