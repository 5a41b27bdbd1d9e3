package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OrrForeshop/finance-dashboard/internal/config"
	"github.com/OrrForeshop/finance-dashboard/internal/database"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "$", cfg.Display.CurrencySymbol)
	assert.Equal(t, 50*time.Millisecond, cfg.Display.TotalsDebounce)

	driver, dsn, err := cfg.StoreDSN()
	require.NoError(t, err)
	assert.Equal(t, database.DriverSQLite, driver)
	assert.Equal(t, "finance-dashboard.db", dsn)
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := config.Load()
	require.NoError(t, err)

	driver, dsn, err := cfg.StoreDSN()
	require.NoError(t, err)
	assert.Equal(t, database.DriverPostgres, driver)
	assert.Equal(t, "postgres://postgres:secret@db:5432/finance_dashboard?sslmode=disable", dsn)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	cfg, err := config.Load()
	require.NoError(t, err)

	_, _, err = cfg.StoreDSN()
	assert.Error(t, err)
}
