package budget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rows is the fixed number of rows every section holds once normalized.
const Rows = 20

var (
	ErrNotFound             = errors.New("document not found")
	ErrStorageCorrupt       = errors.New("stored document is corrupt")
	ErrMigrationUnavailable = errors.New("no earlier document to migrate")
	ErrMissingRow           = errors.New("row not found")
	ErrInvalidMonth         = errors.New("invalid month, expected YYYY-MM")
	ErrUnknownSection       = errors.New("unknown section")
	ErrUnknownField         = errors.New("unknown field")
	ErrSectionFull          = errors.New("section has no blank row left")
	ErrResetUnsupported     = errors.New("repository cannot delete documents")
)

// Section names one table of a month.
type Section string

const (
	SectionIncome   Section = "income"
	SectionSavings  Section = "savings"
	SectionDebt     Section = "debt"
	SectionVariable Section = "variable"
	SectionFixed    Section = "fixed"
)

// Sections lists every section in display order.
var Sections = []Section{SectionIncome, SectionSavings, SectionDebt, SectionVariable, SectionFixed}

func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == strings.ToLower(strings.TrimSpace(s)) {
			return sec, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

// Field names one editable column of a row.
type Field string

const (
	FieldName   Field = "name"
	FieldDay    Field = "day"
	FieldActual Field = "actual"
	FieldBudget Field = "budget"
)

var Fields = []Field{FieldName, FieldDay, FieldActual, FieldBudget}

func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == strings.ToLower(strings.TrimSpace(s)) {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth validates a YYYY-MM key. An empty input means the month of now.
func ParseMonth(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Format("2006-01"), nil
	}

	if !monthPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}

	return s, nil
}

// LineItem is one row of a section. Amounts are kept exactly as typed and only
// read as numbers when totals are computed. ID lives in memory only.
type LineItem struct {
	ID     uuid.UUID `json:"-"`
	Name   string    `json:"name"`
	Day    string    `json:"day"`
	Actual string    `json:"actual"`
	Budget string    `json:"budget"`
}

// UnmarshalJSON accepts any JSON value. Fields may be strings, numbers, bools or
// null; they are kept as their text form. A non-object decodes to a blank row.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	obj := objectOf(data)
	*li = LineItem{
		Name:   textOf(obj["name"]),
		Day:    textOf(obj["day"]),
		Actual: textOf(obj["actual"]),
		Budget: textOf(obj["budget"]),
	}

	return nil
}

// IsBlank reports whether every field is empty.
func (li LineItem) IsBlank() bool {
	return li.Name == "" && li.Day == "" && li.Actual == "" && li.Budget == ""
}

func (li LineItem) Get(f Field) string {
	switch f {
	case FieldName:
		return li.Name
	case FieldDay:
		return li.Day
	case FieldActual:
		return li.Actual
	case FieldBudget:
		return li.Budget
	}

	return ""
}

func (li *LineItem) Set(f Field, v string) error {
	switch f {
	case FieldName:
		li.Name = v
	case FieldDay:
		li.Day = v
	case FieldActual:
		li.Actual = v
	case FieldBudget:
		li.Budget = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}

	return nil
}

// MonthRecord is one month of the current schema.
type MonthRecord struct {
	Income   []LineItem `json:"income"`
	Savings  []LineItem `json:"savings"`
	Debt     []LineItem `json:"debt"`
	Variable []LineItem `json:"variable"`
	Fixed    []LineItem `json:"fixed"`
}

// UnmarshalJSON decodes each section on its own; a section that is not an array
// is left empty for Normalize to pad.
func (m *MonthRecord) UnmarshalJSON(data []byte) error {
	obj := objectOf(data)
	*m = MonthRecord{}

	for _, sec := range Sections {
		*m.rows(sec) = lineItemsOf(obj[string(sec)])
	}

	return nil
}

func (m *MonthRecord) rows(s Section) *[]LineItem {
	switch s {
	case SectionIncome:
		return &m.Income
	case SectionSavings:
		return &m.Savings
	case SectionDebt:
		return &m.Debt
	case SectionVariable:
		return &m.Variable
	case SectionFixed:
		return &m.Fixed
	}

	return nil
}

// Section returns the rows of s, or nil for an unknown section.
func (m MonthRecord) Section(s Section) []LineItem {
	p := m.rows(s)
	if p == nil {
		return nil
	}

	return *p
}

func (m MonthRecord) Clone() MonthRecord {
	var out MonthRecord
	for _, sec := range Sections {
		*out.rows(sec) = append([]LineItem(nil), m.Section(sec)...)
	}

	return out
}

// Document is the persisted object: month key to month record.
type Document struct {
	Months map[string]*MonthRecord `json:"months"`
}

func NewDocument() *Document {
	return &Document{Months: make(map[string]*MonthRecord)}
}

func (d *Document) Clone() *Document {
	out := NewDocument()
	for k, rec := range d.Months {
		c := rec.Clone()
		out.Months[k] = &c
	}

	return out
}

// objectOf returns the members of a JSON object, or nil for anything else.
func objectOf(data []byte) map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}

	return obj
}

// textOf renders a scalar JSON value as text. Objects, arrays and null read as "".
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}

	return ""
}

func lineItemsOf(raw json.RawMessage) []LineItem {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	items := make([]LineItem, len(elems))
	for i, e := range elems {
		_ = items[i].UnmarshalJSON(e)
	}

	return items
}
