package budget_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

var march = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return march }

type countingRecorder struct {
	mu      sync.Mutex
	loaded  []budget.Outcome
	saved   int
	changes []string
}

func (r *countingRecorder) DocumentLoaded(o budget.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = append(r.loaded, o)
}

func (r *countingRecorder) DocumentSaved() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved++
}

func (r *countingRecorder) RowChanged(s budget.Section, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, string(s)+":"+op)
}

// storedMonth decodes the persisted current document without going through the
// budget package, so tests see exactly what was written.
func storedMonth(t *testing.T, repo *memRepo, month string) map[string][]map[string]string {
	t.Helper()

	var doc struct {
		Months map[string]map[string][]map[string]string `json:"months"`
	}
	require.NoError(t, json.Unmarshal(repo.data[budget.CurrentKey], &doc))
	require.Contains(t, doc.Months, month)

	return doc.Months[month]
}

func TestService_OpenMigratedPersistsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	v2 := []byte(`{"months":{"2024-01":{"in":[{"id":"a","name":"Salary","amount":4000}]}}}`)

	repo := budget.NewMockRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), budget.CurrentKey).Return(nil, budget.ErrNotFound),
		repo.EXPECT().Get(gomock.Any(), "finance-dashboard.v3").Return(nil, budget.ErrNotFound),
		repo.EXPECT().Get(gomock.Any(), "finance-dashboard.v2").Return(v2, nil),
		repo.EXPECT().Put(gomock.Any(), budget.CurrentKey, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, value []byte) error {
				assert.Contains(t, string(value), `"actual":"4000"`)
				assert.NotContains(t, string(value), `"id"`)
				return nil
			}),
	)

	rec := &countingRecorder{}
	svc := budget.NewService(repo, budget.WithClock(fixedClock), budget.WithRecorder(rec))

	outcome, err := svc.Open(t.Context())
	require.NoError(t, err)
	assert.Equal(t, budget.Outcome{Kind: budget.OutcomeMigrated, From: "v2"}, outcome)
	assert.Equal(t, []budget.Outcome{outcome}, rec.loaded)
	assert.Equal(t, 1, rec.saved)
}

func TestService_OpenMigratedThenReopenLoads(t *testing.T) {
	repo := newMemRepo()
	repo.set(t, "finance-dashboard.v3", map[string]any{"months": map[string]any{
		"2024-01": map[string]any{"income": 100},
	}})

	outcome, err := budget.NewService(repo).Open(t.Context())
	require.NoError(t, err)
	assert.Equal(t, budget.OutcomeMigrated, outcome.Kind)

	outcome, err = budget.NewService(repo).Open(t.Context())
	require.NoError(t, err)
	assert.Equal(t, budget.OutcomeLoaded, outcome.Kind)
	assert.Equal(t, 1, repo.puts)
}

func TestService_OpenFailsOnReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := budget.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), budget.CurrentKey).Return(nil, errors.New("boom"))

	_, err := budget.NewService(repo).Open(t.Context())
	assert.ErrorContains(t, err, "boom")
}

func TestService_MonthSeedsAndPersists(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	rec, err := svc.Month(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, stripIDs(budget.Seed()), stripIDs(rec))
	assert.Equal(t, 1, repo.puts)

	stored := storedMonth(t, repo, "2024-03")
	assert.Equal(t, "Salary", stored["income"][0]["name"])
	assert.Len(t, stored["fixed"], budget.Rows)

	again, err := svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, rec, again, "row identities are stable across reads")
	assert.Equal(t, 1, repo.puts, "an existing month is not saved again")

	totals, err := svc.Totals(t.Context(), "2024-03")
	require.NoError(t, err)
	assert.InDelta(t, 1900.0, totals.Remaining.Actual, 1e-9)
}

func TestService_MonthRejectsBadKey(t *testing.T) {
	svc := budget.NewService(newMemRepo())

	_, err := svc.Month(t.Context(), "2024-13")
	assert.ErrorIs(t, err, budget.ErrInvalidMonth)
}

func TestService_SetFieldKeepsTextAndUpdatesTotals(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	rows, err := svc.Rows(t.Context(), "2024-03", budget.SectionVariable)
	require.NoError(t, err)
	require.True(t, rows[1].IsBlank())

	totals, err := svc.Totals(t.Context(), "2024-03")
	require.NoError(t, err)
	assert.InDelta(t, 600.0, totals.Sections[budget.SectionVariable].Actual, 1e-9)

	totals, err = svc.SetField(t.Context(), "2024-03", budget.SectionVariable, rows[1].ID, budget.FieldActual, "1,500.50")
	require.NoError(t, err)
	assert.InDelta(t, 2100.5, totals.Sections[budget.SectionVariable].Actual, 1e-9)

	stored := storedMonth(t, repo, "2024-03")
	assert.Equal(t, "1,500.50", stored["variable"][1]["actual"])

	rows, err = svc.Rows(t.Context(), "2024-03", budget.SectionVariable)
	require.NoError(t, err)
	assert.Equal(t, "1,500.50", rows[1].Actual)
}

func TestService_SetFieldOnMissingRowIsNoop(t *testing.T) {
	repo := newMemRepo()
	rec := &countingRecorder{}
	svc := budget.NewService(repo, budget.WithClock(fixedClock), budget.WithRecorder(rec))

	before, err := svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)

	puts := repo.puts

	_, err = svc.SetField(t.Context(), "2024-03", budget.SectionFixed, uuid.New(), budget.FieldName, "Ghost")
	require.NoError(t, err)

	after, err := svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, puts, repo.puts)
	assert.Empty(t, rec.changes)
}

func TestService_SetFieldRejectsUnknownInput(t *testing.T) {
	svc := budget.NewService(newMemRepo(), budget.WithClock(fixedClock))

	_, err := svc.SetField(t.Context(), "2024-03", budget.SectionFixed, uuid.New(), budget.Field("colour"), "x")
	assert.ErrorIs(t, err, budget.ErrUnknownField)

	_, err = svc.SetField(t.Context(), "2024-03", budget.Section("bills"), uuid.New(), budget.FieldName, "x")
	assert.ErrorIs(t, err, budget.ErrUnknownSection)
}

func TestService_AppendRowFillsFirstBlank(t *testing.T) {
	rec := &countingRecorder{}
	svc := budget.NewService(newMemRepo(), budget.WithClock(fixedClock), budget.WithRecorder(rec))

	before, err := svc.Rows(t.Context(), "2024-03", budget.SectionIncome)
	require.NoError(t, err)
	require.True(t, before[1].IsBlank())

	id, totals, err := svc.AppendRow(t.Context(), "2024-03", budget.SectionIncome, item("Bonus", "500", ""))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, before[1].ID, id)
	assert.InDelta(t, 7000.0, totals.Sections[budget.SectionIncome].Actual, 1e-9)

	rows, err := svc.Rows(t.Context(), "2024-03", budget.SectionIncome)
	require.NoError(t, err)
	require.Len(t, rows, budget.Rows)
	assert.Equal(t, id, rows[1].ID)
	assert.Equal(t, "Bonus", rows[1].Name)
	assert.Equal(t, []string{"income:append"}, rec.changes)
}

func TestService_AppendRowOnFullSection(t *testing.T) {
	svc := budget.NewService(newMemRepo(), budget.WithClock(fixedClock))

	for i := range budget.Rows - 1 {
		_, _, err := svc.AppendRow(t.Context(), "2024-03", budget.SectionDebt, item("Loan", "1", ""))
		require.NoError(t, err, "append %d", i)
	}

	_, _, err := svc.AppendRow(t.Context(), "2024-03", budget.SectionDebt, item("One too many", "1", ""))
	assert.ErrorIs(t, err, budget.ErrSectionFull)

	rows, err := svc.Rows(t.Context(), "2024-03", budget.SectionDebt)
	require.NoError(t, err)
	assert.Len(t, rows, budget.Rows)
}

func TestService_DeleteRowPadsBlank(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	rows, err := svc.Rows(t.Context(), "2024-03", budget.SectionFixed)
	require.NoError(t, err)
	require.Equal(t, "Rent", rows[0].Name)

	totals, err := svc.DeleteRow(t.Context(), "2024-03", budget.SectionFixed, rows[0].ID)
	require.NoError(t, err)
	assert.Zero(t, totals.Sections[budget.SectionFixed].Actual)

	rows, err = svc.Rows(t.Context(), "2024-03", budget.SectionFixed)
	require.NoError(t, err)
	require.Len(t, rows, budget.Rows)

	for _, r := range rows {
		assert.True(t, r.IsBlank())
	}

	assert.Len(t, storedMonth(t, repo, "2024-03")["fixed"], budget.Rows)
}

func TestService_FailedSaveRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := budget.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, budget.ErrNotFound).AnyTimes()
	gomock.InOrder(
		repo.EXPECT().Put(gomock.Any(), budget.CurrentKey, gomock.Any()).Return(nil),
		repo.EXPECT().Put(gomock.Any(), budget.CurrentKey, gomock.Any()).Return(errors.New("quota exceeded")),
	)

	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	rows, err := svc.Rows(t.Context(), "2024-03", budget.SectionIncome)
	require.NoError(t, err)

	totals, err := svc.SetField(t.Context(), "2024-03", budget.SectionIncome, rows[0].ID, budget.FieldActual, "9999")
	require.ErrorContains(t, err, "quota exceeded")
	assert.InDelta(t, 6500.0, totals.Sections[budget.SectionIncome].Actual, 1e-9)

	after, err := svc.Rows(t.Context(), "2024-03", budget.SectionIncome)
	require.NoError(t, err)
	assert.Equal(t, rows, after)
}

func TestService_InsightsAndToday(t *testing.T) {
	svc := budget.NewService(newMemRepo(), budget.WithClock(fixedClock))

	ins, err := svc.Insights(t.Context(), "")
	require.NoError(t, err)
	assert.InDelta(t, 6500.0-3000-700, ins.Cashflow, 1e-9)

	today, err := svc.TodayBudget(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, 17, today.DaysLeft)
}

func TestService_ImportCurrentReplacesDocument(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	_, err := svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)

	imported, outcome, err := svc.Import(t.Context(), map[string][]byte{
		budget.CurrentKey: []byte(`{"months":{"2023-12":{"income":[{"name":"Gift","actual":"50"}]}}}`),
		"unrelated":       []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{budget.CurrentKey}, imported)
	assert.Equal(t, budget.OutcomeLoaded, outcome.Kind)

	doc, err := svc.Document(t.Context())
	require.NoError(t, err)
	assert.NotContains(t, doc.Months, "2024-03")
	require.Contains(t, doc.Months, "2023-12")
	assert.Equal(t, "Gift", doc.Months["2023-12"].Income[0].Name)
}

func TestService_ImportOlderSchemaMigratesWhenNothingSaved(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	imported, outcome, err := svc.Import(t.Context(), map[string][]byte{
		"finance-dashboard.v2": []byte(`{"months":{"2022-06":{"in":[{"name":"Salary","amount":"3,000"}]}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"finance-dashboard.v2"}, imported)
	assert.Equal(t, budget.Outcome{Kind: budget.OutcomeMigrated, From: "v2"}, outcome)

	totals, err := svc.Totals(t.Context(), "2022-06")
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, totals.Sections[budget.SectionIncome].Actual, 1e-9)
}

func TestService_ImportOlderSchemaKeepsSavedDocument(t *testing.T) {
	repo := newMemRepo()
	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	_, err := svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)

	imported, outcome, err := svc.Import(t.Context(), map[string][]byte{
		"finance-dashboard.v3": []byte(`{"months":{"2020-01":{"income":1}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"finance-dashboard.v3"}, imported)
	assert.Equal(t, budget.OutcomeLoaded, outcome.Kind)

	doc, err := svc.Document(t.Context())
	require.NoError(t, err)
	assert.Contains(t, doc.Months, "2024-03")
	assert.NotContains(t, doc.Months, "2020-01")
}

func TestService_ResetCurrentMigratesPredecessor(t *testing.T) {
	repo := newMemRepo()
	repo.set(t, keyV2, v2Doc(map[string]map[string][]legacyRow{
		"2024-01": {"in": {{ID: "a", Name: "Salary", Amount: 4200}}},
	}))

	svc := budget.NewService(repo, budget.WithClock(fixedClock))

	outcome, err := svc.Open(t.Context())
	require.NoError(t, err)
	require.Equal(t, budget.OutcomeMigrated, outcome.Kind)

	_, err = svc.Month(t.Context(), "2024-03")
	require.NoError(t, err)

	outcome, err = svc.ResetCurrent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, budget.Outcome{Kind: budget.OutcomeMigrated, From: "v2"}, outcome)

	doc, err := svc.Document(t.Context())
	require.NoError(t, err)
	assert.Contains(t, doc.Months, "2024-01")
	assert.NotContains(t, doc.Months, "2024-03")
	assert.Contains(t, repo.data, keyV2)
}

func TestService_ResetCurrentNeedsDeleter(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := budget.NewMockRepository(ctrl)

	_, err := budget.NewService(repo).ResetCurrent(t.Context())
	assert.ErrorIs(t, err, budget.ErrResetUnsupported)
}
