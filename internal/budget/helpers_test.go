package budget_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

// memRepo is an in-memory budget.Repository.
type memRepo struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMemRepo() *memRepo {
	return &memRepo{data: make(map[string][]byte)}
}

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data[key]
	if !ok {
		return nil, budget.ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

func (r *memRepo) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[key] = append([]byte(nil), value...)
	r.puts++

	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, key)

	return nil
}

func (r *memRepo) set(t *testing.T, key string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	r.data[key] = data
}

// stripIDs clears the in-memory identities so records can be compared by content.
func stripIDs(rec budget.MonthRecord) budget.MonthRecord {
	out := rec.Clone()
	for _, sec := range budget.Sections {
		for i := range out.Section(sec) {
			out.Section(sec)[i].ID = uuid.Nil
		}
	}

	return out
}

func item(name, actual, budgetAmount string) budget.LineItem {
	return budget.LineItem{Name: name, Actual: actual, Budget: budgetAmount}
}
