package backup

import "encoding/json"

// schema recognizes a bare document of one schema version by the shape of its
// months. Adding a version is adding an entry to schemas.
type schema struct {
	Key   string
	match func(month map[string]json.RawMessage) bool
}

// schemas is tried in order; the current schema accepts anything and comes last.
var schemas = []schema{
	{
		Key: "finance-dashboard.v2",
		match: func(m map[string]json.RawMessage) bool {
			return has(m, "in") || has(m, "out")
		},
	},
	{
		Key: "finance-dashboard.v3",
		match: func(m map[string]json.RawMessage) bool {
			if has(m, "budgets") {
				return true
			}

			var income float64

			return json.Unmarshal(m["income"], &income) == nil && has(m, "income")
		},
	},
	{
		Key:   "finance-dashboard.v4",
		match: func(map[string]json.RawMessage) bool { return true },
	},
}

func has(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}
