package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/OrrForeshop/finance-dashboard/internal/database"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Finance Dashboard"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	Store struct {
		Driver     string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, postgres or memory
		SQLitePath string `envconfig:"SQLITE_PATH" default:"finance-dashboard.db"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"finance_dashboard"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Display struct {
		CurrencySymbol string        `envconfig:"CURRENCY_SYMBOL" default:"$"`
		Locale         string        `envconfig:"LOCALE" default:"en"`
		TotalsDebounce time.Duration `envconfig:"TOTALS_DEBOUNCE" default:"50ms"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// StoreDSN returns the backend to open and its data source name.
func (c *Config) StoreDSN() (database.Driver, string, error) {
	driver, err := database.ParseDriver(c.Store.Driver)
	if err != nil {
		return "", "", err
	}

	switch driver {
	case database.DriverPostgres:
		return driver, c.ConnectionString(), nil
	case database.DriverMemory:
		return driver, "", nil
	}

	return driver, c.Store.SQLitePath, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
