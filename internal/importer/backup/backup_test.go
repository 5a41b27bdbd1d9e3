package backup_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/importer/backup"
)

func TestParser_StorageDump(t *testing.T) {
	input := `{
		"finance-dashboard.v2": "{\"months\":{\"2024-01\":{\"in\":[]}}}",
		"finance-dashboard.v4": {"months": {}},
		"theme": "dark"
	}`

	entries, err := backup.NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"months":{"2024-01":{"in":[]}}}`, string(entries["finance-dashboard.v2"]))
	assert.JSONEq(t, `{"months":{}}`, string(entries[budget.CurrentKey]))
}

func TestParser_BareDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
	}{
		{
			name:    "v2 by in/out",
			input:   `{"months":{"2024-01":{"in":[{"name":"Salary","amount":5000}]}}}`,
			wantKey: "finance-dashboard.v2",
		},
		{
			name:    "v3 by scalar income",
			input:   `{"months":{"2024-01":{"income":3000,"fixed":[]}}}`,
			wantKey: "finance-dashboard.v3",
		},
		{
			name:    "v3 by budgets",
			input:   `{"months":{"2024-01":{"budgets":{"fixed":1}}}}`,
			wantKey: "finance-dashboard.v3",
		},
		{
			name:    "current by row arrays",
			input:   `{"months":{"2024-01":{"income":[{"name":"Salary","actual":"1"}]}}}`,
			wantKey: budget.CurrentKey,
		},
		{
			name:    "empty months fall back to current",
			input:   `{"months":{"2024-01":{}}}`,
			wantKey: budget.CurrentKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := backup.NewParser().Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.JSONEq(t, tt.input, string(entries[tt.wantKey]))
		})
	}
}

func TestParser_Rejects(t *testing.T) {
	for _, input := range []string{`[1,2]`, `not json`, `{"theme":"dark"}`, `{"months":[]}`} {
		_, err := backup.NewParser().Parse(strings.NewReader(input))
		assert.ErrorIs(t, err, backup.ErrNotBackup, input)
	}
}
