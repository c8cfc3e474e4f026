package clusterlens

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alarmDataset builds a small alarm export with two obvious groups and one
// odd record.
func alarmDataset() *Dataset {
	var records []Record
	for i := 0; i < 6; i++ {
		records = append(records, Record{
			"Code":           "F0123",
			"OrigSeverity":   "Critical",
			"Name":           "fan-failure",
			"Description":    "Fan speed below threshold",
			"AffectedMoType": "compute.Blade",
			"Acknowledge":    "None",
		})
	}
	for i := 0; i < 4; i++ {
		records = append(records, Record{
			"Code":           "F0456",
			"OrigSeverity":   "Warning",
			"Name":           "link-down",
			"Description":    "Uplink port down",
			"AffectedMoType": "ether.PhysicalPort",
			"Acknowledge":    "None",
		})
	}
	records = append(records, Record{
		"Code":           "F0999",
		"OrigSeverity":   "Info",
		"Name":           "odd-event",
		"Description":    "One-off event",
		"AffectedMoType": "top.System",
		"Acknowledge":    "None",
	})
	return &Dataset{
		ID:      "alarms.json",
		Name:    "alarms.json",
		Columns: []string{"Code", "OrigSeverity", "Name", "Description", "AffectedMoType", "Acknowledge"},
		Records: records,
	}
}

func alarmResult(ds *Dataset) *ClusteringResult {
	labels := make([]int, len(ds.Records))
	for i := range labels {
		switch {
		case i < 6:
			labels[i] = 0
		case i < 10:
			labels[i] = 1
		default:
			labels[i] = -1
		}
	}
	return &ClusteringResult{
		ID:          "result-1",
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Algorithm:   "DBSCAN",
		Labels:      labels,
	}
}

func TestAnalyzeClusters(t *testing.T) {
	ds := alarmDataset()
	analysis, err := AnalyzeClusters(ds, alarmResult(ds))
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.TotalClusters)
	assert.Equal(t, 1, analysis.NoisePoints)
	assert.Equal(t, 11, analysis.TotalPoints)
	assert.Equal(t, "alarms", analysis.Terminology.Plural)
	require.Len(t, analysis.ClusterInsights, 2)

	first := analysis.ClusterInsights[0]
	assert.Equal(t, 0, first.ClusterID)
	assert.Equal(t, 6, first.Size)

	sev, ok := first.Characteristics["OrigSeverity"]
	require.True(t, ok)
	assert.Equal(t, "Critical", sev.Value)
	assert.Equal(t, 6, sev.Count)
	assert.InDelta(t, 100.0, sev.Percentage, 1e-9)

	assert.Contains(t, first.Description, "Cluster 0: 6 alarms")
	assert.Contains(t, first.Description, "Critical severity")
	assert.Contains(t, first.KeyAttributes, "Code: F0123")
	assert.Contains(t, first.KeyAttributes, "Type: Blade")
	assert.NotEmpty(t, first.DistinguishingFactors)
}

func TestAnalyzeClustersIsDeterministic(t *testing.T) {
	ds := alarmDataset()
	result := alarmResult(ds)

	a, err := AnalyzeClusters(ds, result)
	require.NoError(t, err)
	b, err := AnalyzeClusters(ds, result)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeClustersAllNoise(t *testing.T) {
	ds := alarmDataset()
	result := alarmResult(ds)
	for i := range result.Labels {
		result.Labels[i] = -1
	}

	analysis, err := AnalyzeClusters(ds, result)
	require.NoError(t, err)

	assert.Equal(t, 0, analysis.TotalClusters)
	assert.Equal(t, len(ds.Records), analysis.NoisePoints)
	assert.Empty(t, analysis.ClusterInsights)

	require.Len(t, analysis.ExecutiveSummary.KeyInsights, 1)
	assert.Equal(t, "info", analysis.ExecutiveSummary.KeyInsights[0].Type)
	assert.NotEmpty(t, analysis.ExecutiveSummary.Recommendations)
}

func TestAnalyzeClustersLabelMismatch(t *testing.T) {
	ds := alarmDataset()
	result := alarmResult(ds)
	result.Labels = result.Labels[:3]

	_, err := AnalyzeClusters(ds, result)
	assert.ErrorIs(t, err, ErrLabelMismatch)
}

func TestExecutiveSummaryOrdering(t *testing.T) {
	ds := alarmDataset()
	analysis, err := AnalyzeClusters(ds, alarmResult(ds))
	require.NoError(t, err)

	types := make([]string, 0, len(analysis.ExecutiveSummary.KeyInsights))
	for _, insight := range analysis.ExecutiveSummary.KeyInsights {
		types = append(types, insight.Type)
	}
	assert.Equal(t, []string{"primary", "critical", "info"}, types)
	assert.Contains(t, analysis.ExecutiveSummary.Overview, "11 alarms")
	assert.Contains(t, analysis.ExecutiveSummary.Overview, "2 distinct clusters")
}

func TestRecommendationRules(t *testing.T) {
	ds := alarmDataset()
	analysis, err := AnalyzeClusters(ds, alarmResult(ds))
	require.NoError(t, err)

	recs := analysis.ExecutiveSummary.Recommendations
	// Cluster 0 holds 6 Critical alarms and covers 54.5% (>20), one point
	// is noise, and cluster 0's code is 100% consistent (>90). All four
	// rules fire, critical first.
	require.Len(t, recs, 4)
	assert.Contains(t, recs[0], "6 critical alarms")
	assert.Contains(t, recs[1], "resolve 54.5% of alarms")
	assert.Contains(t, recs[2], "Review unique alarms individually")
	assert.Contains(t, recs[3], "F0123")
}

func TestRecommendationLargeClusterThreshold(t *testing.T) {
	// 22% is enough for the large-cluster rule; no critical clusters and
	// no noise, so it is the only firing rule besides none.
	ds := &Dataset{
		Name:    "measurements.csv",
		Columns: []string{"kind"},
	}
	labels := make([]int, 0, 9)
	for i := 0; i < 2; i++ {
		ds.Records = append(ds.Records, Record{"kind": "a"})
		labels = append(labels, 0)
	}
	for i := 0; i < 7; i++ {
		ds.Records = append(ds.Records, Record{"kind": "b"})
		labels = append(labels, 1+i%7)
	}
	result := &ClusteringResult{Labels: labels}

	analysis, err := AnalyzeClusters(ds, result)
	require.NoError(t, err)

	recs := analysis.ExecutiveSummary.Recommendations
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "resolve 22.2% of records")
}

func TestRecommendationWellDistributedFallback(t *testing.T) {
	ds := &Dataset{
		Name:    "measurements.csv",
		Columns: []string{"kind"},
	}
	labels := make([]int, 10)
	for i := range labels {
		ds.Records = append(ds.Records, Record{"kind": "x"})
		labels[i] = i % 6
	}
	result := &ClusteringResult{Labels: labels}

	analysis, err := AnalyzeClusters(ds, result)
	require.NoError(t, err)

	recs := analysis.ExecutiveSummary.Recommendations
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "well-distributed")
}

func TestClusterImportance(t *testing.T) {
	ds := alarmDataset()
	analysis, err := AnalyzeClusters(ds, alarmResult(ds))
	require.NoError(t, err)

	importance := clusterImportance(analysis.ClusterInsights[0], analysis.Terminology)
	assert.Equal(t, "high", importance.Priority)

	var reasonTypes []string
	for _, r := range importance.Reasons {
		reasonTypes = append(reasonTypes, r.Type)
	}
	assert.Equal(t, []string{"size", "severity", "pattern"}, reasonTypes)
	assert.Contains(t, importance.Summary, fmt.Sprintf("%d alarms", 6))
}
