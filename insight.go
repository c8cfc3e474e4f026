package clusterlens

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// ErrLabelMismatch is returned when a result's label vector does not line up
// with the dataset rows it is being analyzed against.
var ErrLabelMismatch = errors.New("label vector does not match dataset rows")

// watchColumns is the fixed watch-list of candidate attribute columns that
// cluster characterization inspects when the dataset has them.
var watchColumns = []string{
	"Code", "OrigSeverity", "AffectedMoType", "AffectedMoDisplayName",
	"Name", "Description", "Acknowledge", "LifeCycleState",
}

// dominanceThresholds mark, per attribute, how dominant a value must be
// within a cluster before it counts as a distinguishing factor.
var dominanceThresholds = map[string]float64{
	"OrigSeverity":   60,
	"Code":           70,
	"AffectedMoType": 65,
}

// AttributeStat describes the most frequent value of an attribute within a
// cluster and how dominant it is.
type AttributeStat struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ClusterInsight is the derived view of a single cluster.
type ClusterInsight struct {
	ClusterID             int                      `json:"cluster_id"`
	Size                  int                      `json:"size"`
	Percentage            float64                  `json:"percentage"`
	Characteristics       map[string]AttributeStat `json:"characteristics"`
	Description           string                   `json:"description"`
	KeyAttributes         []string                 `json:"key_attributes"`
	DistinguishingFactors []string                 `json:"distinguishing_factors,omitempty"`
}

// ClusterAnalysis is the full insight payload for one clustering result.
type ClusterAnalysis struct {
	ClusterInsights  []ClusterInsight `json:"cluster_insights"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	TotalClusters    int              `json:"total_clusters"`
	NoisePoints      int              `json:"noise_points"`
	TotalPoints      int              `json:"total_points"`
	Terminology      Terminology      `json:"terminology"`
}

// AnalyzeClusters derives per-cluster insights, an executive summary and
// recommendations from a dataset and one of its clustering results. It is a
// pure function of its inputs: calling it twice yields identical payloads.
func AnalyzeClusters(ds *Dataset, result *ClusteringResult) (*ClusterAnalysis, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no result given", ErrResultNotFound)
	}
	if len(result.Labels) != len(ds.Records) {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrLabelMismatch, len(result.Labels), len(ds.Records))
	}

	domain := DetectDomain(ds.Name, ds.Columns)
	term := TerminologyFor(domain)

	clusterIDs, noise := partitionLabels(result.Labels)

	insights := make([]ClusterInsight, 0, len(clusterIDs))
	for _, id := range clusterIDs {
		insights = append(insights, analyzeSingleCluster(ds, result.Labels, id, term))
	}

	summary := buildExecutiveSummary(insights, noise, len(ds.Records), ds.Name, term)

	return &ClusterAnalysis{
		ClusterInsights:  insights,
		ExecutiveSummary: summary,
		TotalClusters:    len(clusterIDs),
		NoisePoints:      noise,
		TotalPoints:      len(ds.Records),
		Terminology:      term,
	}, nil
}

// partitionLabels returns the distinct non-noise cluster ids sorted
// ascending and the noise count.
func partitionLabels(labels []int) ([]int, int) {
	seen := make(map[int]struct{})
	noise := 0
	for _, l := range labels {
		if l == -1 {
			noise++
			continue
		}
		seen[l] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, noise
}

// clusterRows returns the dataset row indices belonging to a cluster id.
func clusterRows(labels []int, id int) []int {
	var rows []int
	for i, l := range labels {
		if l == id {
			rows = append(rows, i)
		}
	}
	return rows
}

func analyzeSingleCluster(ds *Dataset, labels []int, id int, term Terminology) ClusterInsight {
	rows := clusterRows(labels, id)
	size := len(rows)
	percentage := round1(float64(size) / float64(len(ds.Records)) * 100)

	characteristics := make(map[string]AttributeStat)
	for _, col := range watchColumns {
		if !ds.HasColumn(col) {
			continue
		}
		values := make([]any, 0, size)
		for _, i := range rows {
			values = append(values, ds.Records[i][col])
		}
		value, count := mostFrequentValue(values)
		if count == 0 {
			continue
		}
		characteristics[col] = AttributeStat{
			Value:      value,
			Count:      count,
			Percentage: float64(count) / float64(size) * 100,
		}
	}

	return ClusterInsight{
		ClusterID:             id,
		Size:                  size,
		Percentage:            percentage,
		Characteristics:       characteristics,
		Description:           clusterDescription(id, size, characteristics, term),
		KeyAttributes:         keyAttributes(characteristics),
		DistinguishingFactors: distinguishingFactors(characteristics, term),
	}
}

// clusterDescription concatenates the dominant severity, code and object
// type into a templated one-liner.
func clusterDescription(id, size int, characteristics map[string]AttributeStat, term Terminology) string {
	var parts []string
	if stat, ok := characteristics["OrigSeverity"]; ok {
		parts = append(parts, fmt.Sprintf("%s severity", stat.Value))
	}
	if stat, ok := characteristics["Code"]; ok {
		parts = append(parts, fmt.Sprintf("alarm code %s", stat.Value))
	}
	if stat, ok := characteristics["AffectedMoType"]; ok {
		parts = append(parts, fmt.Sprintf("affecting %s objects", shortTypeName(stat.Value)))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Cluster %d: %d %s", id, size, term.Plural)
	}
	return fmt.Sprintf("Cluster %d: %d %s with %s", id, size, term.Plural, strings.Join(parts, ", "))
}

// shortTypeName drops the namespace prefix of dotted type names.
func shortTypeName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// keyAttributes formats the headline attributes as "Label: value" strings.
func keyAttributes(characteristics map[string]AttributeStat) []string {
	var attrs []string
	if stat, ok := characteristics["Code"]; ok {
		attrs = append(attrs, fmt.Sprintf("Code: %s", stat.Value))
	}
	if stat, ok := characteristics["OrigSeverity"]; ok {
		attrs = append(attrs, fmt.Sprintf("Severity: %s", stat.Value))
	}
	if stat, ok := characteristics["AffectedMoType"]; ok {
		attrs = append(attrs, fmt.Sprintf("Type: %s", shortTypeName(stat.Value)))
	}
	return attrs
}

// distinguishingFactors explains which attributes most separate a cluster
// from the rest, for attributes whose dominance clears their threshold.
func distinguishingFactors(characteristics map[string]AttributeStat, term Terminology) []string {
	var factors []string
	for _, col := range []string{"OrigSeverity", "Code", "AffectedMoType"} {
		stat, ok := characteristics[col]
		if !ok {
			continue
		}
		if stat.Percentage < dominanceThresholds[col] {
			continue
		}
		var what string
		switch col {
		case "OrigSeverity":
			what = fmt.Sprintf("severity %s", stat.Value)
		case "Code":
			what = fmt.Sprintf("alarm code %s", stat.Value)
		case "AffectedMoType":
			what = fmt.Sprintf("object type %s", shortTypeName(stat.Value))
		}
		factors = append(factors, fmt.Sprintf("%.0f%% of %s share %s, setting this cluster apart",
			stat.Percentage, term.Plural, what))
	}
	return factors
}

// ImportanceReason explains one reason a cluster matters.
type ImportanceReason struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Importance is the priority assessment attached to cluster details.
type Importance struct {
	Priority string             `json:"priority"`
	Reasons  []ImportanceReason `json:"reasons"`
	Summary  string             `json:"summary"`
}

// clusterImportance derives why a cluster deserves attention from its size
// share, severity and code consistency.
func clusterImportance(insight ClusterInsight, term Terminology) Importance {
	var reasons []ImportanceReason
	priority := "medium"

	switch {
	case insight.Percentage > 30:
		reasons = append(reasons, ImportanceReason{
			Type:  "size",
			Title: "Large Cluster",
			Description: fmt.Sprintf("This cluster represents %.1f%% of all %s, making it a high-priority issue.",
				insight.Percentage, term.Plural),
		})
		priority = "high"
	case insight.Percentage > 10:
		reasons = append(reasons, ImportanceReason{
			Type:  "size",
			Title: "Significant Cluster",
			Description: fmt.Sprintf("This cluster represents %.1f%% of %s, indicating a recurring pattern.",
				insight.Percentage, term.Plural),
		})
	}

	if stat, ok := insight.Characteristics["OrigSeverity"]; ok {
		switch stat.Value {
		case "Critical":
			reasons = append(reasons, ImportanceReason{
				Type:        "severity",
				Title:       "Critical Severity",
				Description: fmt.Sprintf("The %s in this cluster are marked as Critical, requiring immediate attention.", term.Plural),
			})
			priority = "high"
		case "Warning":
			reasons = append(reasons, ImportanceReason{
				Type:        "severity",
				Title:       "Warning Severity",
				Description: fmt.Sprintf("These %s indicate potential issues that should be monitored.", term.Plural),
			})
		}
	}

	if stat, ok := insight.Characteristics["Code"]; ok && stat.Percentage > 80 {
		reasons = append(reasons, ImportanceReason{
			Type:  "pattern",
			Title: "Consistent Pattern",
			Description: fmt.Sprintf("%.0f%% of %s share the same code (%s), suggesting a systemic issue.",
				stat.Percentage, term.Plural, stat.Value),
		})
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ImportanceReason{
			Type:        "general",
			Title:       "Pattern Identified",
			Description: fmt.Sprintf("This cluster represents a distinct pattern of %s that may share common root causes.", term.Plural),
		})
	}

	return Importance{
		Priority: priority,
		Reasons:  reasons,
		Summary: fmt.Sprintf("This cluster contains %d %s (%.1f%% of total) with similar characteristics.",
			insight.Size, term.Plural, insight.Percentage),
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// AnalyzeCmd prints the full cluster analysis for a stored result.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze [file] [result-id]",
	Short: "Generate cluster insights for a stored clustering result",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ds, result, ok := loadDatasetAndResult(args[0], args[1])
		if !ok {
			return
		}
		analysis, err := AnalyzeClusters(ds, result)
		if err != nil {
			log.Printf("Analysis failed: %v", err)
			return
		}
		printJSON(analysis)
	},
}

// loadDatasetAndResult is shared by the insight commands.
func loadDatasetAndResult(path, resultID string) (*Dataset, *ClusteringResult, bool) {
	ds, err := LoadDatasetFile(path)
	if err != nil {
		log.Printf("Failed to load dataset: %v", err)
		return nil, nil, false
	}

	store, err := OpenResultStore(databasePath())
	if err != nil {
		log.Printf("Failed to open result store: %v", err)
		return nil, nil, false
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close result store: %v", err)
		}
	}()

	result, err := store.GetResult(resultID)
	if err != nil {
		log.Printf("Failed to load result: %v", err)
		return nil, nil, false
	}
	return ds, result, true
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal payload: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}
