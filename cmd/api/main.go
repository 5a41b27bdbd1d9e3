package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/budget/store"
	"github.com/OrrForeshop/finance-dashboard/internal/config"
	"github.com/OrrForeshop/finance-dashboard/internal/export"
	dashHttp "github.com/OrrForeshop/finance-dashboard/internal/http"
	exportHandler "github.com/OrrForeshop/finance-dashboard/internal/http/export"
	importHandler "github.com/OrrForeshop/finance-dashboard/internal/http/importdata"
	monthsHandler "github.com/OrrForeshop/finance-dashboard/internal/http/months"
	"github.com/OrrForeshop/finance-dashboard/internal/importer"
	"github.com/OrrForeshop/finance-dashboard/internal/metrics"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	driver, dsn, err := cfg.StoreDSN()
	if err != nil {
		slog.Error("invalid store config", "error", err)
		os.Exit(1)
	}

	repo, closeRepo, err := store.Open(driver, dsn)
	if err != nil {
		slog.Error("failed to open store", "driver", driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recorder := metrics.New(reg)

	var (
		budgetService = budget.NewService(repo, budget.WithRecorder(recorder))
		importService = importer.NewService()
		exportService = export.NewService(budgetService, repo, money.NewFormatter(cfg.Display.CurrencySymbol, cfg.Display.Locale))
	)

	outcome, err := budgetService.Open(context.Background())
	if err != nil {
		slog.Error("failed to open document", "error", err)
		os.Exit(1)
	}

	slog.Info("document ready", "outcome", outcome.String(), "driver", driver)

	var (
		monthsH = monthsHandler.NewHandler(budgetService, quickadd.Default())
		importH = importHandler.NewHandler(importService, budgetService)
		exportH = exportHandler.NewHandler(exportService)
	)

	router := dashHttp.New(monthsH, importH, exportH, dashHttp.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     recorder.Handler(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
