package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/money"
)

// File is one entry of an export.
type File struct {
	Name string
	Data []byte
}

// DocumentSource provides the live document; budget.Service implements it.
type DocumentSource interface {
	Document(ctx context.Context) (*budget.Document, error)
}

// RawSource lists stored documents as they are on disk.
type RawSource interface {
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Filter limits the months written. Empty bounds are open.
type Filter struct {
	From string
	To   string
}

func (f Filter) includes(month string) bool {
	return (f.From == "" || month >= f.From) && (f.To == "" || month <= f.To)
}

// Service writes backups of the dashboard.
type Service struct {
	docs      DocumentSource
	raw       RawSource
	formatter *money.Formatter
	now       func() time.Time
}

// NewService creates an export service. raw may be nil, in which case the backup
// only holds the current document.
func NewService(docs DocumentSource, raw RawSource, formatter *money.Formatter) *Service {
	return &Service{
		docs:      docs,
		raw:       raw,
		formatter: formatter,
		now:       time.Now,
	}
}

// Files builds the export:
//   - backup.json, a storage dump the importer reads back
//   - months/YYYY-MM.csv for each month in the filter, in the sheet layout
//   - summary.txt with formatted totals per month
func (s *Service) Files(ctx context.Context, filter Filter) ([]File, error) {
	doc, err := s.docs.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	dump, err := s.backup(ctx, doc)
	if err != nil {
		return nil, err
	}

	files := []File{{Name: "backup.json", Data: dump}}

	months := monthsIn(doc, filter)

	for _, k := range months {
		data, err := monthCSV(k, *doc.Months[k])
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", k, err)
		}

		files = append(files, File{Name: "months/" + k + ".csv", Data: data})
	}

	files = append(files, File{Name: "summary.txt", Data: []byte(s.Summary(doc, months))})

	return files, nil
}

// backup returns every stored schema document as one JSON object. Documents are
// embedded as strings, the way browser storage holds them.
func (s *Service) backup(ctx context.Context, doc *budget.Document) ([]byte, error) {
	current, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	dump := map[string]string{budget.CurrentKey: string(current)}

	if s.raw != nil {
		keys, err := s.raw.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing stored documents: %w", err)
		}

		for _, k := range keys {
			if k == budget.CurrentKey {
				continue
			}

			data, err := s.raw.Get(ctx, k)
			if err != nil {
				return nil, fmt.Errorf("reading stored document %s: %w", k, err)
			}

			dump[k] = string(data)
		}
	}

	return json.MarshalIndent(dump, "", "  ")
}

var csvHeader = []string{"month", "section", "name", "day", "actual", "budget"}

func monthCSV(month string, rec budget.MonthRecord) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, sec := range budget.Sections {
		for _, li := range rec.Section(sec) {
			if li.IsBlank() {
				continue
			}

			if err := w.Write([]string{month, string(sec), li.Name, li.Day, li.Actual, li.Budget}); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()

	return buf.Bytes(), w.Error()
}

func monthsIn(doc *budget.Document, filter Filter) []string {
	months := make([]string, 0, len(doc.Months))
	for k := range doc.Months {
		if filter.includes(k) {
			months = append(months, k)
		}
	}

	slices.Sort(months)

	return months
}

// Summarize renders the totals of the live document for the months in filter.
func (s *Service) Summarize(ctx context.Context, filter Filter) (string, error) {
	doc, err := s.docs.Document(ctx)
	if err != nil {
		return "", fmt.Errorf("loading document: %w", err)
	}

	return s.Summary(doc, monthsIn(doc, filter)), nil
}

// Summary renders the totals of the given months as plain text.
func (s *Service) Summary(doc *budget.Document, months []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Exported %s\n", s.now().Format(time.RFC3339))

	for _, k := range months {
		rec, ok := doc.Months[k]
		if !ok {
			continue
		}

		t := budget.ComputeTotals(*rec)

		fmt.Fprintf(&sb, "\n%s\n", k)

		for _, sec := range budget.Sections {
			a := t.Sections[sec]
			fmt.Fprintf(&sb, "* %-8s | %12s | %12s\n", sec, s.formatter.Money(a.Actual), s.formatter.Money(a.Budget))
		}

		fmt.Fprintf(&sb, "* %-8s | %12s | %12s\n", "left", s.formatter.Money(t.Remaining.Actual), s.formatter.Money(t.Remaining.Budget))
	}

	return sb.String()
}

// WriteArchive writes the export as a zip archive.
func (s *Service) WriteArchive(ctx context.Context, w io.Writer, filter Filter) error {
	files, err := s.Files(ctx, filter)
	if err != nil {
		return err
	}

	return WriteZip(w, files, s.now())
}

// WriteZip writes files as a zip archive with every entry stamped modified.
func WriteZip(w io.Writer, files []File, modified time.Time) error {
	zw := zip.NewWriter(w)

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.Name, err)
		}

		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	return nil
}

// WriteDir writes the export files under outputDir and returns their paths.
func (s *Service) WriteDir(ctx context.Context, outputDir string, filter Filter) ([]string, error) {
	files, err := s.Files(ctx, filter)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))

	for _, f := range files {
		path := filepath.Join(outputDir, filepath.FromSlash(f.Name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}

		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing file: %w", err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}
