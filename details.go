package clusterlens

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

// ErrClusterNotFound is returned when a cluster id has no members in a
// result.
var ErrClusterNotFound = errors.New("cluster not found")

// ErrNoNoisePoints is returned when a result contains no noise labels.
var ErrNoNoisePoints = errors.New("no noise points found")

// RecordDetail is the per-record payload inside cluster and noise reports.
// Its keys depend on the detected domain.
type RecordDetail map[string]any

// ClusteringExplanation tells the reader how records that look alike can
// still end up in different clusters.
type ClusteringExplanation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Note        string   `json:"note"`
}

// ClusterDetails is the drill-down payload for one cluster.
type ClusterDetails struct {
	ClusterID   int                   `json:"cluster_id"`
	Insight     ClusterInsight        `json:"insight"`
	Importance  Importance            `json:"importance"`
	Explanation ClusteringExplanation `json:"clustering_explanation"`
	RecordCount int                   `json:"record_count"`
	Records     []RecordDetail        `json:"records"`
	Terminology Terminology           `json:"terminology"`
}

// NoiseExplanation tells the reader why some records cluster nowhere.
type NoiseExplanation struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Reasons        []string `json:"reasons"`
	Recommendation string   `json:"recommendation"`
}

// NoiseReport is the drill-down payload for the noise points of a result.
type NoiseReport struct {
	RecordCount      int              `json:"record_count"`
	UniqueCodes      int              `json:"unique_alarm_codes"`
	CodeDistribution map[string]int   `json:"code_distribution"`
	Records          []RecordDetail   `json:"records"`
	Terminology      Terminology      `json:"terminology"`
	Explanation      NoiseExplanation `json:"explanation"`
}

// ClusterDetailsFor returns the full record listing and importance
// assessment for one cluster of a result.
func ClusterDetailsFor(ds *Dataset, result *ClusteringResult, clusterID int) (*ClusterDetails, error) {
	if err := validatePair(ds, result); err != nil {
		return nil, err
	}

	domain := DetectDomain(ds.Name, ds.Columns)
	term := TerminologyFor(domain)

	rows := clusterRows(result.Labels, clusterID)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, clusterID)
	}

	insight := analyzeSingleCluster(ds, result.Labels, clusterID, term)

	records := make([]RecordDetail, 0, len(rows))
	for _, i := range rows {
		records = append(records, extractRecordDetails(ds, i, domain))
	}

	return &ClusterDetails{
		ClusterID:   clusterID,
		Insight:     insight,
		Importance:  clusterImportance(insight, term),
		Explanation: explainClustering(domain, term),
		RecordCount: len(records),
		Records:     records,
		Terminology: term,
	}, nil
}

// NoisePoints returns every record labelled -1 in a result, with a code
// distribution when the dataset has a Code column.
func NoisePoints(ds *Dataset, result *ClusteringResult) (*NoiseReport, error) {
	if err := validatePair(ds, result); err != nil {
		return nil, err
	}

	domain := DetectDomain(ds.Name, ds.Columns)
	term := TerminologyFor(domain)

	rows := clusterRows(result.Labels, -1)
	if len(rows) == 0 {
		return nil, ErrNoNoisePoints
	}

	records := make([]RecordDetail, 0, len(rows))
	for _, i := range rows {
		records = append(records, extractRecordDetails(ds, i, domain))
	}

	uniqueCodes, distribution := noiseCodeDistribution(ds, rows)

	return &NoiseReport{
		RecordCount:      len(records),
		UniqueCodes:      uniqueCodes,
		CodeDistribution: distribution,
		Records:          records,
		Terminology:      term,
		Explanation: NoiseExplanation{
			Title: "Why These Are Unique Cases",
			Description: fmt.Sprintf("These %d %s don't fit into any major cluster pattern. They may represent:",
				len(records), term.Plural),
			Reasons: []string{
				fmt.Sprintf("Rare or one-off %s that don't follow common patterns", term.Plural),
				fmt.Sprintf("%s with unique combinations of features that differ significantly from clustered %s",
					titleCase(term.Plural), term.Plural),
				"Potential new or emerging patterns that haven't formed yet",
				"Edge cases or outliers that require individual investigation",
			},
			Recommendation: fmt.Sprintf("Review these %s individually to identify if they represent new patterns or require special attention.",
				term.Plural),
		},
	}, nil
}

func validatePair(ds *Dataset, result *ClusteringResult) error {
	if ds == nil || len(ds.Records) == 0 {
		return fmt.Errorf("dataset is empty")
	}
	if result == nil {
		return fmt.Errorf("%w: no result given", ErrResultNotFound)
	}
	if len(result.Labels) != len(ds.Records) {
		return fmt.Errorf("%w: %d labels for %d rows", ErrLabelMismatch, len(result.Labels), len(ds.Records))
	}
	return nil
}

// alarmFields maps dataset columns to output keys for alarm records, in
// output order.
var alarmFields = []struct{ column, key string }{
	{"Code", "code"},
	{"Name", "name"},
	{"OrigSeverity", "severity"},
	{"Description", "description"},
	{"AffectedMoType", "affected_mo_type"},
	{"AffectedMoDisplayName", "affected_mo_display_name"},
	{"AffectedMoId", "affected_mo_id"},
	{"Acknowledge", "acknowledge"},
	{"CreateTime", "create_time"},
	{"LastTransitionTime", "last_transition_time"},
}

// Candidate columns for the generic extraction, tried in order.
var (
	identifierColumns  = []string{"name", "Name", "id", "ID", "CustomerID", "code", "Code", "species"}
	severityColumns    = []string{"severity", "Severity", "priority", "Priority", "importance"}
	descriptionColumns = []string{"description", "Description", "details", "Details", "species"}
)

// extractRecordDetails flattens one dataset record into a detail payload.
// Alarm datasets get the fixed alarm field set including the nested
// AffectedMo expansion; everything else gets name, severity and description
// picked from candidate columns. Remaining columns land in additional_info.
func extractRecordDetails(ds *Dataset, index int, domain string) RecordDetail {
	row := ds.Records[index]
	record := RecordDetail{"index": index}
	consumed := make(map[string]bool)

	if domain == "alarm" {
		for _, f := range alarmFields {
			record[f.key] = fieldOrNA(row, f.column)
			consumed[f.column] = true
		}
		if mo, ok := row["AffectedMo"].(map[string]any); ok {
			record["affected_mo_details"] = map[string]any{
				"moid":        fieldOrNA(mo, "Moid"),
				"object_type": fieldOrNA(mo, "ObjectType"),
				"link":        fieldOrNA(mo, "link"),
			}
			consumed["AffectedMo"] = true
		}
	} else {
		record["name"] = pickField(ds, row, identifierColumns, consumed, "N/A")
		if record["name"] == "N/A" && len(ds.Columns) > 0 {
			record["name"] = fieldOrNA(row, ds.Columns[0])
			consumed[ds.Columns[0]] = true
		}
		record["severity"] = pickField(ds, row, severityColumns, consumed, "Normal")
		record["description"] = pickField(ds, row, descriptionColumns, consumed, "")
	}

	additional := make(map[string]string)
	for _, col := range ds.Columns {
		if consumed[col] {
			continue
		}
		v := row[col]
		if isMissing(v) {
			continue
		}
		additional[col] = detailString(v)
	}
	record["additional_info"] = additional
	return record
}

// pickField returns the first candidate column present in the dataset,
// marking it consumed, or the fallback when none exists.
func pickField(ds *Dataset, row Record, candidates []string, consumed map[string]bool, fallback string) string {
	for _, col := range candidates {
		if !ds.HasColumn(col) {
			continue
		}
		consumed[col] = true
		if isMissing(row[col]) {
			return fallback
		}
		return detailString(row[col])
	}
	return fallback
}

func fieldOrNA(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || isMissing(v) {
		return "N/A"
	}
	return detailString(v)
}

// detailString stringifies a cell for detail payloads, flattening nested
// values with fmt.
func detailString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		return fmt.Sprintf("%v", t)
	default:
		return stringValue(v)
	}
}

// noiseCodeDistribution counts Code values among the given rows and keeps
// the ten most frequent, ties broken by code.
func noiseCodeDistribution(ds *Dataset, rows []int) (int, map[string]int) {
	if !ds.HasColumn("Code") {
		return 0, map[string]int{}
	}
	counts := make(map[string]int)
	for _, i := range rows {
		v := ds.Records[i]["Code"]
		if isMissing(v) {
			continue
		}
		counts[stringValue(v)]++
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	if len(codes) > 10 {
		codes = codes[:10]
	}

	top := make(map[string]int, len(codes))
	for _, code := range codes {
		top[code] = counts[code]
	}
	return len(counts), top
}

// explainClustering picks the domain-appropriate explanation block.
func explainClustering(domain string, term Terminology) ClusteringExplanation {
	if domain == "alarm" {
		return ClusteringExplanation{
			Title: "Why Same Alarm Codes Are in Different Clusters",
			Description: fmt.Sprintf("Clustering uses multiple features (not just alarm code) to group %s. %s with the same code can be separated if they differ in:",
				term.Plural, titleCase(term.Plural)),
			Features: []string{
				"Affected object type and location",
				"Object identifiers and relationships",
				"Temporal patterns",
				"Other characteristics",
			},
			Note: "This is expected behavior - the same alarm code on different systems/objects forms separate clusters, helping identify which specific objects or systems are affected.",
		}
	}
	return ClusteringExplanation{
		Title: "How Clustering Works",
		Description: fmt.Sprintf("Clustering uses multiple features to group similar %s. %s in the same cluster share similar characteristics across:",
			term.Plural, titleCase(term.Plural)),
		Features: []string{
			"Numerical measurements",
			"Categorical attributes",
			"Pattern similarities",
			"Statistical distributions",
		},
		Note: "The algorithm automatically discovered these groupings based on similarities in the data.",
	}
}

// DetailsCmd prints the record listing for one cluster of a stored result.
var DetailsCmd = &cobra.Command{
	Use:   "details [file] [result-id] [cluster-id]",
	Short: "Show every record in one cluster of a stored result",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		clusterID, err := strconv.Atoi(args[2])
		if err != nil {
			log.Printf("Invalid cluster id %q: %v", args[2], err)
			return
		}
		ds, result, ok := loadDatasetAndResult(args[0], args[1])
		if !ok {
			return
		}
		details, err := ClusterDetailsFor(ds, result, clusterID)
		if err != nil {
			log.Printf("Failed to get cluster details: %v", err)
			return
		}
		printJSON(details)
	},
}

// NoiseCmd prints the noise points of a stored result.
var NoiseCmd = &cobra.Command{
	Use:   "noise [file] [result-id]",
	Short: "Show the records that did not fit any cluster",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ds, result, ok := loadDatasetAndResult(args[0], args[1])
		if !ok {
			return
		}
		report, err := NoisePoints(ds, result)
		if err != nil {
			log.Printf("Failed to get noise points: %v", err)
			return
		}
		printJSON(report)
	},
}
