// Command dashctl edits the finance dashboard document from the shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/budget/store"
	"github.com/OrrForeshop/finance-dashboard/internal/config"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

const (
	Version = "0.1.0"
	appName = "dashctl"
)

func main() {
	var a app

	if err := execute(context.Background(), &a, rootCmd(&a)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs cmd and releases the store whether or not the command failed.
func execute(ctx context.Context, a *app, cmd *cobra.Command) error {
	defer a.close()

	return cmd.ExecuteContext(ctx)
}

// app is opened once per invocation, before any subcommand runs.
type app struct {
	cfg       *config.Config
	repo      store.Repository
	closeRepo func() error
	svc       *budget.Service
	formatter *money.Formatter
}

func (a *app) open(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	driver, dsn, err := cfg.StoreDSN()
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	repo, closeRepo, err := store.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	svc := budget.NewService(repo)

	outcome, err := svc.Open(ctx)
	if err != nil {
		_ = closeRepo()
		return fmt.Errorf("open document: %w", err)
	}

	slog.Debug("document ready", "outcome", outcome.String(), "driver", driver)

	a.cfg = cfg
	a.repo = repo
	a.closeRepo = closeRepo
	a.svc = svc
	a.formatter = money.NewFormatter(cfg.Display.CurrencySymbol, cfg.Display.Locale)

	return nil
}

func (a *app) close() {
	if a.closeRepo == nil {
		return
	}

	if err := a.closeRepo(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}

	a.closeRepo = nil
}

func rootCmd(a *app) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Edit the monthly finance dashboard from the command line",
		Long: `dashctl reads and edits the same stored document as the dashboard API
and TUI: month grids, imports and exports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logLevel)

			if cmd.Annotations["store"] != "none" {
				return a.open(cmd.Context())
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		showCmd(a),
		setCmd(a),
		addCmd(a),
		deleteCmd(a),
		quickAddCmd(a),
		importCmd(a),
		exportCmd(a),
		resetCurrentCmd(a),
		&cobra.Command{
			Use:         "version",
			Short:       "Print version information",
			Annotations: map[string]string{"store": "none"},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
