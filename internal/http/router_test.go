package http_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/budget/memory"
	"github.com/OrrForeshop/finance-dashboard/internal/export"
	apphttp "github.com/OrrForeshop/finance-dashboard/internal/http"
	exporthttp "github.com/OrrForeshop/finance-dashboard/internal/http/export"
	"github.com/OrrForeshop/finance-dashboard/internal/http/importdata"
	"github.com/OrrForeshop/finance-dashboard/internal/http/months"
	"github.com/OrrForeshop/finance-dashboard/internal/importer"
	"github.com/OrrForeshop/finance-dashboard/internal/metrics"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

type rowDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Actual  string    `json:"actual"`
	Budget  string    `json:"budget"`
	Percent string    `json:"percent"`
}

type totalsDTO struct {
	Month  string        `json:"month"`
	Totals budget.Totals `json:"totals"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo := memory.New()
	rec := metrics.New(prometheus.NewRegistry())
	clock := func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }

	svc := budget.NewService(repo, budget.WithClock(clock), budget.WithRecorder(rec))

	router := apphttp.New(
		months.NewHandler(svc, quickadd.Default()),
		importdata.NewHandler(importer.NewService(), svc),
		exporthttp.NewHandler(export.NewService(svc, repo, money.NewFormatter("$", "en"))),
		apphttp.Options{CORSOrigins: []string{"*"}, Metrics: rec.Handler()},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, url, r)
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestMonth_SeedsCurrent(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/months/current", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Month    string              `json:"month"`
		Sections map[string][]rowDTO `json:"sections"`
		Totals   budget.Totals       `json:"totals"`
	}](t, resp)

	assert.Equal(t, "2024-03", body.Month)
	assert.Len(t, body.Sections["income"], budget.Rows)
	assert.Equal(t, "Salary", body.Sections["income"][0].Name)
	assert.Equal(t, "100%", body.Sections["income"][0].Percent)
	assert.Empty(t, body.Sections["income"][1].Percent)
	assert.InDelta(t, 1900.0, body.Totals.Remaining.Actual, 1e-9)
}

func TestMonth_OverflowingAmountsStayReadable(t *testing.T) {
	srv := newServer(t)
	rowsURL := srv.URL + "/api/v1/months/2024-01/sections/income/rows"

	rows := decode[[]rowDTO](t, do(t, http.MethodGet, rowsURL, ""))
	require.Len(t, rows, budget.Rows)

	var last totalsDTO
	for _, row := range rows[:2] {
		resp := do(t, http.MethodPatch, rowsURL+"/"+row.ID.String(), `{"field":"actual","value":"1e308"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		last = decode[totalsDTO](t, resp)
	}

	assert.Zero(t, last.Totals.Sections[budget.SectionIncome].Actual)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/months/2024-01", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Totals budget.Totals `json:"totals"`
	}](t, resp)
	assert.Zero(t, body.Totals.Sections[budget.SectionIncome].Actual)

	ins := decode[budget.Insights](t, do(t, http.MethodGet, srv.URL+"/api/v1/months/2024-01/insights", ""))
	assert.Zero(t, ins.Income)
}

func TestMonth_BadInput(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/months/2024-13", "", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/months/2024-03/sections/bills/rows", "", http.StatusBadRequest},
		{http.MethodPatch, "/api/v1/months/2024-03/sections/fixed/rows/not-a-uuid", `{"field":"name","value":"x"}`, http.StatusBadRequest},
		{http.MethodPatch, "/api/v1/months/2024-03/sections/fixed/rows/" + uuid.NewString(), `{"field":"colour","value":"x"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/v1/months/2024-03/quick-add", `{"text":"coffee"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		resp := do(t, tt.method, srv.URL+tt.path, tt.body)
		assert.Equal(t, tt.want, resp.StatusCode, tt.method+" "+tt.path)
	}
}

func TestRows_EditAppendDelete(t *testing.T) {
	srv := newServer(t)
	base := srv.URL + "/api/v1/months/2024-03/sections/variable/rows"

	rows := decode[[]rowDTO](t, do(t, http.MethodGet, base, ""))
	require.Len(t, rows, budget.Rows)

	resp := do(t, http.MethodPatch, base+"/"+rows[1].ID.String(), `{"field":"actual","value":"1,500.50"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 2100.5, decode[totalsDTO](t, resp).Totals.Sections[budget.SectionVariable].Actual, 1e-9)

	resp = do(t, http.MethodPost, base, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, resp)

	rows = decode[[]rowDTO](t, do(t, http.MethodGet, base, ""))
	assert.Equal(t, created.ID, rows[2].ID)
	assert.Equal(t, "New expense", rows[2].Name)
	assert.Equal(t, "1,500.50", rows[1].Actual)

	resp = do(t, http.MethodDelete, base+"/"+rows[0].ID.String(), "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	rows = decode[[]rowDTO](t, do(t, http.MethodGet, base, ""))
	require.Len(t, rows, budget.Rows)
	assert.Equal(t, "1,500.50", rows[0].Actual)
}

func TestRows_AppendToFullSectionConflicts(t *testing.T) {
	srv := newServer(t)
	base := srv.URL + "/api/v1/months/2024-03/sections/fixed/rows"

	for range budget.Rows - 1 {
		require.Equal(t, http.StatusCreated, do(t, http.MethodPost, base, `{"name":"Bill","actual":"1"}`).StatusCode)
	}

	assert.Equal(t, http.StatusConflict, do(t, http.MethodPost, base, `{"name":"Bill","actual":"1"}`).StatusCode)
}

func TestQuickAdd(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/months/2024-03/quick-add", `{"text":"groceries budget 200"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decode[struct {
		Section string        `json:"section"`
		Field   string        `json:"field"`
		Row     rowDTO        `json:"row"`
		Totals  budget.Totals `json:"totals"`
	}](t, resp)

	assert.Equal(t, "variable", body.Section)
	assert.Equal(t, "budget", body.Field)
	assert.Equal(t, "200", body.Row.Budget)
	assert.InDelta(t, 850.0, body.Totals.Sections[budget.SectionVariable].Budget, 1e-9)
}

func TestInsightsAndToday(t *testing.T) {
	srv := newServer(t)

	ins := decode[budget.Insights](t, do(t, http.MethodGet, srv.URL+"/api/v1/months/2024-03/insights", ""))
	assert.InDelta(t, 2800.0, ins.Cashflow, 1e-9)

	today := decode[budget.TodayBudget](t, do(t, http.MethodGet, srv.URL+"/api/v1/months/current/today", ""))
	assert.Equal(t, 17, today.DaysLeft)

	totals := decode[totalsDTO](t, do(t, http.MethodGet, srv.URL+"/api/v1/months/2024-03/totals", ""))
	assert.Equal(t, "2024-03", totals.Month)
}

func TestImportAndExport(t *testing.T) {
	srv := newServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "old.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"months":{"2023-11":{"in":[{"id":"x","name":"Salary","amount":"4,000"}]}}}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/api/v1/import", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sum := decode[importer.Summary](t, resp)
	assert.Equal(t, []string{"finance-dashboard.v2"}, sum.Keys)
	assert.Equal(t, "migrated:v2", sum.Loaded)

	totals := decode[totalsDTO](t, do(t, http.MethodGet, srv.URL+"/api/v1/months/2023-11/totals", ""))
	assert.InDelta(t, 4000.0, totals.Totals.Sections[budget.SectionIncome].Actual, 1e-9)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/export?from=2023-01", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Contains(t, names, "months/2023-11.csv")

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, srv.URL+"/api/v1/export?to=nope", "").StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newServer(t)

	do(t, http.MethodGet, srv.URL+"/api/v1/months/2024-03", "")

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `finance_dashboard_document_loads_total{outcome="empty"} 1`)
}
