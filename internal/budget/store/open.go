package store

import (
	"context"
	"fmt"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/budget/memory"
	"github.com/OrrForeshop/finance-dashboard/internal/database"
)

// Repository is a budget.Repository that can also list what it holds.
type Repository interface {
	budget.Repository
	Keys(ctx context.Context) ([]string, error)
}

// Open returns the repository for driver and a function that releases it.
func Open(driver database.Driver, dsn string) (Repository, func() error, error) {
	if driver == database.DriverMemory {
		return memory.New(), func() error { return nil }, nil
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", driver, err)
	}

	return New(db, driver), db.Close, nil
}
