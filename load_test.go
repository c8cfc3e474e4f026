package clusterlens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVCoercesCells(t *testing.T) {
	csv := "name,count,ratio,active,note\nalpha,3,1.5,true,\nbeta,7,2.25,false,ok\n"

	ds, err := LoadCSV("data.csv", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "count", "ratio", "active", "note"}, ds.Columns)
	require.Len(t, ds.Records, 2)

	first := ds.Records[0]
	assert.Equal(t, "alpha", first["name"])
	assert.Equal(t, int64(3), first["count"])
	assert.Equal(t, 1.5, first["ratio"])
	assert.Equal(t, true, first["active"])
	assert.Nil(t, first["note"])
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV("empty.csv", strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadCSV("headers.csv", strings.NewReader("a,b,c\n"))
	assert.ErrorContains(t, err, "no data rows")
}

func TestLoadJSONArrayOfObjects(t *testing.T) {
	payload := `[
		{"Code": "F0123", "Count": 3},
		{"Code": "F0456", "Count": 5}
	]`

	ds, err := LoadJSON("alarms.json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "F0123", ds.Records[0]["Code"])
	assert.Equal(t, int64(3), ds.Records[0]["Count"])
}

func TestLoadJSONWrapperObject(t *testing.T) {
	payload := `{"Results": [{"Code": "F0123"}, {"Code": "F0456"}]}`

	ds, err := LoadJSON("export.json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "F0456", ds.Records[1]["Code"])
}

func TestLoadJSONSingleObject(t *testing.T) {
	payload := `{"Code": "F0123", "Severity": "Critical"}`

	ds, err := LoadJSON("single.json", strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, "Critical", ds.Records[0]["Severity"])
}

func TestLoadJSONNormalizesValues(t *testing.T) {
	payload := `[{"Tags": ["a", "b"], "Empty": [], "Single": ["only"], "Nested": {"Moid": "m-1"}, "Ratio": 0.5}]`

	ds, err := LoadJSON("data.json", strings.NewReader(payload))
	require.NoError(t, err)
	rec := ds.Records[0]

	assert.Equal(t, "a, b", rec["Tags"])
	assert.Nil(t, rec["Empty"])
	assert.Equal(t, "only", rec["Single"])
	assert.Equal(t, 0.5, rec["Ratio"])

	nested, ok := rec["Nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "m-1", nested["Moid"])
}

func TestLoadJSONInvalid(t *testing.T) {
	_, err := LoadJSON("bad.json", strings.NewReader("{not json"))
	assert.Error(t, err)

	_, err = LoadJSON("scalar.json", strings.NewReader(`"just a string"`))
	assert.Error(t, err)
}
