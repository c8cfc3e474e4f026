package clusterlens

import (
	"fmt"
	"sort"
	"strings"
)

// Insight is a single headline finding in the executive summary.
type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExecutiveSummary is the top-level narrative of an analysis.
type ExecutiveSummary struct {
	Overview        string   `json:"overview"`
	KeyInsights     []Insight `json:"key_insights"`
	Recommendations []string `json:"recommendations"`
}

// buildExecutiveSummary composes the overview line, the ordered key insights
// (largest cluster, critical clusters, noise) and the recommendations.
func buildExecutiveSummary(insights []ClusterInsight, noise, total int, datasetName string, term Terminology) ExecutiveSummary {
	overview := fmt.Sprintf("Analysis of %d %s in %s identified %d distinct clusters",
		total, term.Plural, datasetName, len(insights))
	if noise > 0 {
		overview += fmt.Sprintf(" and %d unique %s that do not fit any pattern", noise, term.Plural)
	}
	overview += "."

	var key []Insight

	if largest := largestCluster(insights); largest != nil {
		key = append(key, Insight{
			Type:  "primary",
			Title: "Largest Pattern",
			Description: fmt.Sprintf("Cluster %d contains %d %s (%.1f%% of total): %s",
				largest.ClusterID, largest.Size, term.Plural, largest.Percentage,
				largest.Description),
		})
	}

	if critical := criticalClusters(insights); len(critical) > 0 {
		ids := make([]string, 0, len(critical))
		count := 0
		for _, c := range critical {
			ids = append(ids, fmt.Sprintf("%d", c.ClusterID))
			count += c.Size
		}
		key = append(key, Insight{
			Type:  "critical",
			Title: "Critical Severity Clusters",
			Description: fmt.Sprintf("%d cluster(s) (%s) contain %d Critical %s requiring immediate attention.",
				len(critical), strings.Join(ids, ", "), count, term.Plural),
		})
	}

	if noise > 0 {
		key = append(key, Insight{
			Type:  "info",
			Title: fmt.Sprintf("Unique %s", titleCase(term.Plural)),
			Description: fmt.Sprintf("%d %s (%.1f%%) are unique and do not match any common pattern.",
				noise, term.Plural, float64(noise)/float64(total)*100),
		})
	}

	return ExecutiveSummary{
		Overview:        overview,
		KeyInsights:     key,
		Recommendations: buildRecommendations(insights, noise, total, term),
	}
}

// buildRecommendations applies the advisory rules independently, appended
// in fixed order: critical severity, large cluster, noise review, consistent
// code. The generic fallback fires only when nothing else did.
func buildRecommendations(insights []ClusterInsight, noise, total int, term Terminology) []string {
	var recs []string

	if critical := criticalClusters(insights); len(critical) > 0 {
		count := 0
		for _, c := range critical {
			count += c.Size
		}
		recs = append(recs, fmt.Sprintf(
			"Prioritize investigation of %d critical %s - these represent the highest risk",
			count, term.Plural))
	}

	for _, insight := range insights {
		if insight.Percentage > 20 {
			recs = append(recs, fmt.Sprintf(
				"Focus on the largest cluster(s) - addressing root causes here could resolve %.1f%% of %s",
				insight.Percentage, term.Plural))
			break
		}
	}

	if noise > 0 {
		recs = append(recs, fmt.Sprintf(
			"Review unique %s individually - they may indicate distinct patterns or outliers",
			term.Plural))
	}

	for _, insight := range insights {
		if stat, ok := insight.Characteristics["Code"]; ok && stat.Percentage > 90 {
			recs = append(recs, fmt.Sprintf(
				"Cluster %d is almost entirely code %s (%.0f%%); automating its handling could eliminate a whole class of %s.",
				insight.ClusterID, stat.Value, stat.Percentage, term.Plural))
			break
		}
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Data is well-distributed across patterns - consider investigating each cluster systematically")
	}
	return recs
}

// largestCluster returns the cluster with the most members, ties broken by
// lower cluster id. Nil when there are no clusters.
func largestCluster(insights []ClusterInsight) *ClusterInsight {
	if len(insights) == 0 {
		return nil
	}
	sorted := make([]ClusterInsight, len(insights))
	copy(sorted, insights)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Size != sorted[j].Size {
			return sorted[i].Size > sorted[j].Size
		}
		return sorted[i].ClusterID < sorted[j].ClusterID
	})
	return &sorted[0]
}

// criticalClusters returns clusters whose dominant severity is Critical, in
// cluster id order.
func criticalClusters(insights []ClusterInsight) []ClusterInsight {
	var critical []ClusterInsight
	for _, insight := range insights {
		if stat, ok := insight.Characteristics["OrigSeverity"]; ok && stat.Value == "Critical" {
			critical = append(critical, insight)
		}
	}
	return critical
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
