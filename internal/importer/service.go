package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/importer/backup"
	"github.com/OrrForeshop/finance-dashboard/internal/importer/sheet"
)

// Store is the part of budget.Service an import writes to.
type Store interface {
	Import(ctx context.Context, entries map[string][]byte) ([]string, budget.Outcome, error)
	PutMonths(ctx context.Context, months map[string]budget.MonthRecord) error
}

type Service struct {
	backup BackupParser
	sheet  SheetParser
}

func NewService() *Service {
	return &Service{
		backup: backup.NewParser(),
		sheet:  sheet.NewParser(),
	}
}

// Parse reads r in the given format. An empty format is detected from the file
// name and content.
func (s *Service) Parse(format Format, filename string, r io.Reader) (*Result, error) {
	br := bufio.NewReader(r)

	if format == "" {
		head, _ := br.Peek(64)
		format = DetectFormat(filename, head)
	}

	switch format {
	case FormatBackup:
		entries, err := s.backup.Parse(br)
		if err != nil {
			return nil, err
		}

		return &Result{Format: format, Entries: entries}, nil
	case FormatSheet:
		months, err := s.sheet.Parse(br)
		if err != nil {
			return nil, err
		}

		return &Result{Format: format, Months: months}, nil
	}

	return nil, fmt.Errorf("unknown import format: %s", format)
}

// Summary reports what an import changed.
type Summary struct {
	Format  Format         `json:"format"`
	Keys    []string       `json:"keys,omitempty"`
	Months  int            `json:"months,omitempty"`
	Outcome budget.Outcome `json:"-"`
	Loaded  string         `json:"outcome,omitempty"`
}

// Import parses r and applies it to store.
func (s *Service) Import(ctx context.Context, store Store, format Format, filename string, r io.Reader) (*Summary, error) {
	res, err := s.Parse(format, filename, r)
	if err != nil {
		return nil, fmt.Errorf("parsing import: %w", err)
	}

	return s.Apply(ctx, store, res)
}

// Apply writes a parsed upload to store: schema documents first, then months.
func (s *Service) Apply(ctx context.Context, store Store, res *Result) (*Summary, error) {
	sum := &Summary{Format: res.Format}

	if len(res.Entries) > 0 {
		keys, outcome, err := store.Import(ctx, res.Entries)
		if err != nil {
			return nil, fmt.Errorf("importing documents: %w", err)
		}

		sum.Keys = keys
		sum.Outcome = outcome

		if len(keys) > 0 {
			sum.Loaded = outcome.String()
		}
	}

	if len(res.Months) > 0 {
		if err := store.PutMonths(ctx, res.Months); err != nil {
			return nil, fmt.Errorf("importing months: %w", err)
		}

		sum.Months = len(res.Months)
	}

	return sum, nil
}
