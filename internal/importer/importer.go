package importer

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
)

// Format is the layout of an uploaded file.
type Format string

const (
	FormatBackup Format = "backup"
	FormatSheet  Format = "sheet"
)

// Result is what an upload contributes: raw schema documents, whole months, or both.
type Result struct {
	Format  Format
	Entries map[string][]byte
	Months  map[string]budget.MonthRecord
}

type BackupParser interface {
	Parse(r io.Reader) (map[string][]byte, error)
}

type SheetParser interface {
	Parse(r io.Reader) (map[string]budget.MonthRecord, error)
}

// DetectFormat guesses the format from the file name, then from the first
// non-blank byte of the content.
func DetectFormat(filename string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatBackup
	case ".csv", ".tsv", ".txt":
		return FormatSheet
	}

	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatBackup
	}

	return FormatSheet
}
