package clusterlens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDomainByFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"iris.csv", "iris"},
		{"customer_data.json", "customer"},
		{"segmentation-2024.csv", "customer"},
		{"taxi_trips.csv", "taxi"},
		{"network_traffic.csv", "intrusion"},
		{"intrusion_log.json", "intrusion"},
		{"alarms_export.json", "alarm"},
		{"intersight_dump.json", "alarm"},
		{"measurements.csv", "default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDomain(tt.name, nil), tt.name)
	}
}

func TestDetectDomainByColumns(t *testing.T) {
	tests := []struct {
		columns []string
		want    string
	}{
		{[]string{"sepal_length", "species"}, "iris"},
		{[]string{"CustomerID", "spending_score"}, "customer"},
		{[]string{"pickup_time", "fare_amount"}, "taxi"},
		{[]string{"protocol_type", "src_bytes"}, "intrusion"},
		{[]string{"Code", "OrigSeverity"}, "alarm"},
		{[]string{"a", "b", "c"}, "default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDomain("data.csv", tt.columns), "%v", tt.columns)
	}
}

func TestDetectDomainFilenameWinsOverColumns(t *testing.T) {
	// Filename matches first even when columns suggest another domain.
	assert.Equal(t, "iris", DetectDomain("iris.csv", []string{"CustomerID"}))
}

func TestTerminologyFor(t *testing.T) {
	alarm := TerminologyFor("alarm")
	assert.Equal(t, "alarm", alarm.Singular)
	assert.Equal(t, "alarms", alarm.Plural)

	fallback := TerminologyFor("something-else")
	assert.Equal(t, TerminologyFor("default"), fallback)
}
