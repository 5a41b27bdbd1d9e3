package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var (
		out bytes.Buffer
		a   app
	)

	cmd := rootCmd(&a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := execute(t.Context(), &a, cmd)

	return out.String(), err
}

func withStore(t *testing.T) {
	t.Helper()

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "dash.db"))
}

func TestVersion_NoStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "nope")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dashctl version "+Version)
}

func TestAddSetShow(t *testing.T) {
	withStore(t)

	_, err := run(t, "add", "income", "Bonus", "--month", "2024-05", "--actual", "1,000")
	require.NoError(t, err)

	_, err = run(t, "set", "variable", "1", "actual", "250.5", "--month", "2024-05")
	require.NoError(t, err)

	out, err := run(t, "show", "--month", "2024-05", "--json")
	require.NoError(t, err)

	var got struct {
		Month  budget.MonthRecord `json:"month"`
		Totals budget.Totals      `json:"totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "Bonus", got.Month.Income[1].Name)
	assert.Equal(t, "1,000", got.Month.Income[1].Actual)
	assert.Equal(t, "250.5", got.Month.Variable[0].Actual)
	assert.Len(t, got.Month.Income, budget.Rows)
}

func TestDelete_RowOutOfRange(t *testing.T) {
	withStore(t)

	_, err := run(t, "delete", "fixed", "21")
	assert.ErrorContains(t, err, "row must be between 1 and 20")
}

func TestQuickAdd(t *testing.T) {
	withStore(t)

	out, err := run(t, "quick-add", "coffee 4.50", "--month", "2024-05")
	require.NoError(t, err)
	assert.Contains(t, out, "to variable")
}

func TestExportZip(t *testing.T) {
	withStore(t)

	zipPath := filepath.Join(t.TempDir(), "out.zip")

	_, err := run(t, "export", "--zip", zipPath)
	require.NoError(t, err)
	assert.FileExists(t, zipPath)
}

func TestResetCurrent(t *testing.T) {
	withStore(t)

	_, err := run(t, "add", "income", "Bonus", "--month", "2024-05")
	require.NoError(t, err)

	_, err = run(t, "reset-current")
	assert.ErrorContains(t, err, "without --yes")

	out, err := run(t, "reset-current", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Document empty")

	out, err = run(t, "show", "income", "--month", "2024-05")
	require.NoError(t, err)
	assert.NotContains(t, out, "Bonus")
}
