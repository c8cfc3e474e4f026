package clusterlens

import "strings"

// Terminology is the noun set used to phrase analysis output for a detected
// data domain. It never influences the clustering math.
type Terminology struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
	Item     string `json:"item"`
	Items    string `json:"items"`
}

// terminologyByDomain is loaded once and read-only thereafter.
var terminologyByDomain = map[string]Terminology{
	"iris":      {Singular: "flower", Plural: "flowers", Item: "record", Items: "records"},
	"customer":  {Singular: "customer", Plural: "customers", Item: "customer", Items: "customers"},
	"network":   {Singular: "event", Plural: "events", Item: "connection", Items: "connections"},
	"intrusion": {Singular: "event", Plural: "events", Item: "event", Items: "events"},
	"taxi":      {Singular: "trip", Plural: "trips", Item: "trip", Items: "trips"},
	"alarm":     {Singular: "alarm", Plural: "alarms", Item: "alarm", Items: "alarms"},
	"default":   {Singular: "record", Plural: "records", Item: "record", Items: "records"},
}

// TerminologyFor returns the noun set for a domain, falling back to the
// generic one for unknown domains.
func TerminologyFor(domain string) Terminology {
	if t, ok := terminologyByDomain[domain]; ok {
		return t
	}
	return terminologyByDomain["default"]
}

// DetectDomain classifies a dataset by filename substrings first, then by
// column-name substrings, both case-insensitive and in fixed priority order.
func DetectDomain(filename string, columns []string) string {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "iris"):
		return "iris"
	case strings.Contains(name, "customer"), strings.Contains(name, "segmentation"):
		return "customer"
	case strings.Contains(name, "taxi"), strings.Contains(name, "trip"):
		return "taxi"
	case strings.Contains(name, "network"), strings.Contains(name, "intrusion"):
		return "intrusion"
	case strings.Contains(name, "alarm"), strings.Contains(name, "intersight"):
		return "alarm"
	}

	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}
	anyContains := func(substrings ...string) bool {
		for _, col := range lower {
			for _, sub := range substrings {
				if strings.Contains(col, sub) {
					return true
				}
			}
		}
		return false
	}

	switch {
	case anyContains("species"):
		return "iris"
	case anyContains("customer", "spending"):
		return "customer"
	case anyContains("pickup", "dropoff", "fare"):
		return "taxi"
	case anyContains("attack", "protocol", "src_bytes"):
		return "intrusion"
	case anyContains("severity", "code", "alarm"):
		return "alarm"
	}
	return "default"
}
