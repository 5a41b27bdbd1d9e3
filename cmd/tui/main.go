package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/OrrForeshop/finance-dashboard/cmd/tui/internal/view"
	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/budget/store"
	"github.com/OrrForeshop/finance-dashboard/internal/config"
	"github.com/OrrForeshop/finance-dashboard/internal/export"
	"github.com/OrrForeshop/finance-dashboard/internal/importer"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

type model struct {
	cfg           *config.Config
	budgetService *budget.Service
	importService *importer.Service
	exportService *export.Service
	classifier    *quickadd.Classifier
	formatter     *money.Formatter

	currentView View
	status      string

	dashboardView view.DashboardModel
	importView    view.ImportModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewImport    View = 2
	ViewExport    View = 3
)

func initialModel(closers *[]func() error) model {
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

	*closers = append(*closers, closeRepo)

	budgetSvc := budget.NewService(repo)

	outcome, err := budgetSvc.Open(context.Background())
	if err != nil {
		slog.Error("failed to open document", "error", err)
		os.Exit(1)
	}

	formatter := money.NewFormatter(cfg.Display.CurrencySymbol, cfg.Display.Locale)
	impSvc := importer.NewService()
	expSvc := export.NewService(budgetSvc, repo, formatter)

	return model{
		cfg:           cfg,
		budgetService: budgetSvc,
		importService: impSvc,
		exportService: expSvc,
		classifier:    quickadd.Default(),
		formatter:     formatter,
		currentView:   ViewMenu,
		status:        "Document " + outcome.String(),
		importView:    view.NewImportModel(budgetSvc, impSvc),
		exportView:    view.NewExportModel(expSvc),
	}
}

func (m model) newDashboard() view.DashboardModel {
	return view.NewDashboardModel(m.budgetService, m.classifier, m.formatter, m.cfg.Display.TotalsDebounce)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewDashboard
				m.dashboardView = m.newDashboard()

				return m, m.dashboardView.Init()
			case "2":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.budgetService, m.importService)

				return m, m.importView.Init()
			case "3":
				m.currentView = ViewExport
				m.exportView = view.NewExportModel(m.exportService)

				return m, m.exportView.Init()
			}
		}
	case view.BackMsg:
		if m.currentView == ViewDashboard {
			m.dashboardView.Close()
		}

		m.currentView = ViewMenu
		m.status = ""

		return m, nil
	}

	switch m.currentView {
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		menu := m.cfg.App.Name + "\n\n" +
			"1. Monthly Dashboard\n" +
			"2. Import Data\n" +
			"3. Export Months\n\n" +
			"q. Quit"

		if m.status != "" {
			menu += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		return lipgloss.NewStyle().Padding(2).Render(menu)
	case ViewDashboard:
		return view.Frame(m.dashboardView)
	case ViewImport:
		return view.Frame(m.importView)
	case ViewExport:
		return view.Frame(m.exportView)
	}

	return "Unknown View"
}

func main() {
	var closers []func() error

	p := tea.NewProgram(initialModel(&closers), tea.WithAltScreen())
	_, err := p.Run()

	for _, c := range closers {
		if cerr := c(); cerr != nil {
			slog.Error("failed to close store", "error", cerr)
		}
	}

	if err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
