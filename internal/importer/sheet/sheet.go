// Package sheet reads month rows from CSV spreadsheets, such as the ones the
// export writes.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	enc "github.com/OrrForeshop/finance-dashboard/internal/encoding"
)

var ErrNoHeader = errors.New("no matching sheet layout: expected month, section, name and actual (or amount) columns")

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse groups the data rows by month. Amounts are kept as written. Rows of a
// section past the grid size are dropped, as they would be on load.
func (p *Parser) Parse(r io.Reader) (map[string]budget.MonthRecord, error) {
	data, err := enc.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiterOf(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, ErrNoHeader
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

// delimiterOf picks ';' when the first line has more of them than commas.
func delimiterOf(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}

	return ','
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) (map[string]budget.MonthRecord, error) {
	months := make(map[string]budget.MonthRecord)

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		month := cellValue(row, cols, p.MonthCol)
		if month == "" {
			continue
		}

		if !validMonth(month) {
			return nil, fmt.Errorf("row %d: %w: %q", rowNum, budget.ErrInvalidMonth, month)
		}

		section, err := budget.ParseSection(cellValue(row, cols, p.SectionCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		item := budget.LineItem{
			Name:   cellValue(row, cols, p.NameCol),
			Day:    cellValue(row, cols, p.DayCol),
			Actual: cellValue(row, cols, p.ActualCol),
			Budget: cellValue(row, cols, p.BudgetCol),
		}
		if item.IsBlank() {
			continue
		}

		rec := months[month]

		if len(rec.Section(section)) >= budget.Rows {
			slog.Warn("dropping row past grid size", "row", rowNum, "month", month, "section", section)
			continue
		}

		months[month] = withRow(rec, section, item)
	}

	return months, nil
}

func withRow(rec budget.MonthRecord, section budget.Section, item budget.LineItem) budget.MonthRecord {
	switch section {
	case budget.SectionIncome:
		rec.Income = append(rec.Income, item)
	case budget.SectionSavings:
		rec.Savings = append(rec.Savings, item)
	case budget.SectionDebt:
		rec.Debt = append(rec.Debt, item)
	case budget.SectionVariable:
		rec.Variable = append(rec.Variable, item)
	case budget.SectionFixed:
		rec.Fixed = append(rec.Fixed, item)
	}

	return rec
}

func validMonth(s string) bool {
	_, err := budget.ParseMonth(s, time.Time{})

	return err == nil
}

func cellValue(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
