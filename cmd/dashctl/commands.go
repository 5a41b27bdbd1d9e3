package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/export"
	"github.com/OrrForeshop/finance-dashboard/internal/importer"
	"github.com/OrrForeshop/finance-dashboard/internal/quickadd"
)

// rowAt resolves a 1-based row number within a section.
func rowAt(cmd *cobra.Command, a *app, month string, section budget.Section, arg string) (budget.LineItem, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > budget.Rows {
		return budget.LineItem{}, fmt.Errorf("row must be between 1 and %d, got %q", budget.Rows, arg)
	}

	rows, err := a.svc.Rows(cmd.Context(), month, section)
	if err != nil {
		return budget.LineItem{}, err
	}

	return rows[n-1], nil
}

func showCmd(a *app) *cobra.Command {
	var (
		month   string
		asJSON  bool
		showAll bool
	)

	cmd := &cobra.Command{
		Use:   "show [section]",
		Short: "Print a month's rows and totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sections := budget.Sections
			if len(args) == 1 {
				sec, err := budget.ParseSection(args[0])
				if err != nil {
					return err
				}

				sections = []budget.Section{sec}
			}

			rec, err := a.svc.Month(cmd.Context(), month)
			if err != nil {
				return err
			}

			totals := budget.ComputeTotals(rec)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(struct {
					Month  budget.MonthRecord `json:"month"`
					Totals budget.Totals      `json:"totals"`
				}{rec, totals})
			}

			for _, sec := range sections {
				printSection(out, a, sec, rec.Section(sec), totals.Sections[sec], showAll)
			}

			fmt.Fprintf(out, "Total expenses: %s / %s\n",
				a.formatter.Money(totals.TotalExpenses.Actual), a.formatter.Money(totals.TotalExpenses.Budget))
			fmt.Fprintf(out, "Remaining:      %s / %s\n",
				a.formatter.Money(totals.Remaining.Actual), a.formatter.Money(totals.Remaining.Budget))

			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the month record as JSON")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "Include blank rows")

	return cmd
}

func printSection(w io.Writer, a *app, sec budget.Section, rows []budget.LineItem, sum budget.Amounts, showAll bool) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("#", "Name", "Day", "Actual", "Budget", "%")

	for i, li := range rows {
		if li.IsBlank() && !showAll {
			continue
		}

		t.Row(strconv.Itoa(i+1), li.Name, li.Day, li.Actual, li.Budget, li.PercentUsed())
	}

	fmt.Fprintf(w, "%s  (%s / %s)\n%s\n\n", sec, a.formatter.Money(sum.Actual), a.formatter.Money(sum.Budget), t.Render())
}

func printTotals(cmd *cobra.Command, a *app, t budget.Totals) {
	fmt.Fprintf(cmd.OutOrStdout(), "Remaining: %s (budget %s)\n",
		a.formatter.Money(t.Remaining.Actual), a.formatter.Money(t.Remaining.Budget))
}

func setCmd(a *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "set <section> <row> <field> <value>",
		Short: "Set one field of a row",
		Example: `  dashctl set variable 3 actual 1,250.40
  dashctl set income 1 name "Salary"`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, err := budget.ParseSection(args[0])
			if err != nil {
				return err
			}

			field, err := budget.ParseField(args[2])
			if err != nil {
				return err
			}

			row, err := rowAt(cmd, a, month, sec, args[1])
			if err != nil {
				return err
			}

			totals, err := a.svc.SetField(cmd.Context(), month, sec, row.ID, field, args[3])
			if err != nil {
				return err
			}

			printTotals(cmd, a, totals)

			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")

	return cmd
}

func addCmd(a *app) *cobra.Command {
	var (
		month  string
		day    string
		actual string
		budg   string
	)

	cmd := &cobra.Command{
		Use:   "add <section> [name]",
		Short: "Fill the first blank row of a section",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, err := budget.ParseSection(args[0])
			if err != nil {
				return err
			}

			row := budget.NewRow(sec)
			if len(args) == 2 {
				row.Name = args[1]
			}

			if cmd.Flags().Changed("actual") {
				row.Actual = actual
			}

			row.Day = day
			row.Budget = budg

			_, totals, err := a.svc.AppendRow(cmd.Context(), month, sec, row)
			if err != nil {
				return err
			}

			printTotals(cmd, a, totals)

			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&day, "day", "", "Day of month")
	cmd.Flags().StringVar(&actual, "actual", "", "Actual amount")
	cmd.Flags().StringVar(&budg, "budget", "", "Budgeted amount")

	return cmd
}

func deleteCmd(a *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:     "delete <section> <row>",
		Aliases: []string{"rm"},
		Short:   "Remove a row; the section is padded back with a blank row",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sec, err := budget.ParseSection(args[0])
			if err != nil {
				return err
			}

			row, err := rowAt(cmd, a, month, sec, args[1])
			if err != nil {
				return err
			}

			totals, err := a.svc.DeleteRow(cmd.Context(), month, sec, row.ID)
			if err != nil {
				return err
			}

			printTotals(cmd, a, totals)

			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")

	return cmd
}

func quickAddCmd(a *app) *cobra.Command {
	var (
		month     string
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:     "quick-add <text>",
		Short:   "Classify a line of text and add it as a row",
		Example: `  dashctl quick-add "groceries 82.15"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier := quickadd.Default()

			if rulesPath != "" {
				data, err := os.ReadFile(rulesPath)
				if err != nil {
					return fmt.Errorf("read rules: %w", err)
				}

				rules, err := quickadd.ParseRules(data)
				if err != nil {
					return err
				}

				classifier = quickadd.New(rules)
			}

			entry, err := classifier.Classify(args[0])
			if err != nil {
				return err
			}

			_, totals, err := a.svc.AppendRow(cmd.Context(), month, entry.Section, entry.Row())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s (%s %s)\n",
				entry.Name, entry.Section, entry.Field, a.formatter.Money(entry.Amount))
			printTotals(cmd, a, totals)

			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule table replacing the built-in one")

	return cmd
}

func importCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a backup (JSON) or a month sheet (CSV)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sum, err := importer.NewService().Import(cmd.Context(), a.svc, importer.Format(format), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(sum)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Format (backup, sheet); detected when empty")

	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		from    string
		to      string
		zipPath string
	)

	cmd := &cobra.Command{
		Use:   "export [dir]",
		Short: "Write a backup, month sheets and a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := export.NewService(a.svc, a.repo, a.formatter)
			filter := export.Filter{From: from, To: to}

			if zipPath != "" {
				f, err := os.Create(zipPath)
				if err != nil {
					return err
				}

				if err := svc.WriteArchive(cmd.Context(), f, filter); err != nil {
					_ = f.Close()
					return err
				}

				return f.Close()
			}

			dir := "./exports"
			if len(args) == 1 {
				dir = args[0]
			}

			written, err := svc.WriteDir(cmd.Context(), dir, filter)
			if err != nil {
				return err
			}

			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First month (YYYY-MM)")
	cmd.Flags().StringVar(&to, "to", "", "Last month (YYYY-MM)")
	cmd.Flags().StringVar(&zipPath, "zip", "", "Write a zip archive to this path instead of a directory")

	return cmd
}

func resetCurrentCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-current",
		Short: "Delete the current document and migrate again from the newest older schema",
		Long: `reset-current drops the current-version document. The newest readable older
document is then migrated and saved; with none, the dashboard starts empty.
Older documents are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", budget.CurrentKey)
			}

			outcome, err := a.svc.ResetCurrent(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Document %s\n", outcome)

			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting the current document")

	return cmd
}
