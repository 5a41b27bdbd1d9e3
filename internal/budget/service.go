package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder observes the service; internal/metrics implements it.
type Recorder interface {
	DocumentLoaded(outcome Outcome)
	DocumentSaved()
	RowChanged(section Section, op string)
}

type nopRecorder struct{}

func (nopRecorder) DocumentLoaded(Outcome)     {}
func (nopRecorder) DocumentSaved()             {}
func (nopRecorder) RowChanged(Section, string) {}

// Service owns the live document. Every call runs to completion under one lock,
// and every change is written to the repository before the call returns.
type Service struct {
	repo     Repository
	now      func() time.Time
	recorder Recorder

	mu  sync.Mutex
	doc *Document
}

type Option func(*Service)

// WithClock replaces time.Now, used to resolve the current month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open loads the current document, migrating an older one if that is all there
// is. A migrated document is saved right away so migration never runs twice.
func (s *Service) Open(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openLocked(ctx)
}

func (s *Service) openLocked(ctx context.Context) (Outcome, error) {
	doc, outcome, err := LoadCurrent(ctx, s.repo)
	if err != nil {
		return Outcome{}, fmt.Errorf("opening document: %w", err)
	}

	s.doc = doc
	s.recorder.DocumentLoaded(outcome)

	if outcome.Kind == OutcomeMigrated {
		if err := s.persistLocked(ctx); err != nil {
			return outcome, err
		}
	}

	return outcome, nil
}

// ResetCurrent drops the current-version document and opens again, so the
// newest readable predecessor is migrated. Predecessor keys are kept.
func (s *Service) ResetCurrent(ctx context.Context) (Outcome, error) {
	del, ok := s.repo.(Deleter)
	if !ok {
		return Outcome{}, ErrResetUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := del.Delete(ctx, CurrentKey); err != nil {
		return Outcome{}, fmt.Errorf("deleting current document: %w", err)
	}

	slog.InfoContext(ctx, "current document deleted", "key", CurrentKey)

	return s.openLocked(ctx)
}

func (s *Service) ensureOpen(ctx context.Context) error {
	if s.doc != nil {
		return nil
	}

	_, err := s.openLocked(ctx)

	return err
}

func (s *Service) persistLocked(ctx context.Context) error {
	if err := SaveDocument(ctx, s.repo, CurrentKey, s.doc); err != nil {
		return err
	}

	s.recorder.DocumentSaved()

	return nil
}

// CurrentMonth is the YYYY-MM key of the service clock.
func (s *Service) CurrentMonth() string {
	return s.now().Format("2006-01")
}

// monthLocked returns the normalized record for month, seeding it when absent.
// A seeded month is saved immediately.
func (s *Service) monthLocked(ctx context.Context, month string) (string, *MonthRecord, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return "", nil, err
	}

	key, err := ParseMonth(month, s.now())
	if err != nil {
		return "", nil, err
	}

	rec, ok := s.doc.Months[key]
	if ok {
		*rec = Normalize(*rec)
		return key, rec, nil
	}

	seed := Seed()
	s.doc.Months[key] = &seed

	if err := s.persistLocked(ctx); err != nil {
		delete(s.doc.Months, key)
		return "", nil, err
	}

	slog.InfoContext(ctx, "seeded month", "month", key)

	return key, &seed, nil
}

// Month returns a copy of the month record, seeding it if needed.
func (s *Service) Month(ctx context.Context, month string) (MonthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.monthLocked(ctx, month)
	if err != nil {
		return MonthRecord{}, err
	}

	return rec.Clone(), nil
}

func (s *Service) Rows(ctx context.Context, month string, section Section) ([]LineItem, error) {
	rec, err := s.Month(ctx, month)
	if err != nil {
		return nil, err
	}

	rows := rec.Section(section)
	if rows == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	return rows, nil
}

func (s *Service) Totals(ctx context.Context, month string) (Totals, error) {
	rec, err := s.Month(ctx, month)
	if err != nil {
		return Totals{}, err
	}

	return ComputeTotals(rec), nil
}

func (s *Service) Insights(ctx context.Context, month string) (Insights, error) {
	rec, err := s.Month(ctx, month)
	if err != nil {
		return Insights{}, err
	}

	return ComputeInsights(rec), nil
}

func (s *Service) TodayBudget(ctx context.Context, month string) (TodayBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, rec, err := s.monthLocked(ctx, month)
	if err != nil {
		return TodayBudget{}, err
	}

	return ComputeTodayBudget(*rec, key, s.now()), nil
}

// mutate applies fn to one section of a month and saves the document. If the
// save fails the month is restored, so callers never observe a half-applied edit.
func (s *Service) mutate(ctx context.Context, month string, section Section, fn func(rows []LineItem) ([]LineItem, error)) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.monthLocked(ctx, month)
	if err != nil {
		return Totals{}, err
	}

	rows := rec.rows(section)
	if rows == nil {
		return Totals{}, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	before := rec.Clone()

	updated, err := fn(slices.Clone(*rows))
	if err != nil {
		return ComputeTotals(*rec), err
	}

	*rows = updated

	if err := s.persistLocked(ctx); err != nil {
		*rec = before
		return ComputeTotals(*rec), err
	}

	return ComputeTotals(*rec), nil
}

func indexOf(rows []LineItem, id uuid.UUID) int {
	return slices.IndexFunc(rows, func(li LineItem) bool { return li.ID == id })
}

// SetField overwrites one field of one row. An edit aimed at a row that no longer
// exists is dropped silently.
func (s *Service) SetField(ctx context.Context, month string, section Section, rowID uuid.UUID, field Field, value string) (Totals, error) {
	if _, err := ParseField(string(field)); err != nil {
		return Totals{}, err
	}

	totals, err := s.mutate(ctx, month, section, func(rows []LineItem) ([]LineItem, error) {
		i := indexOf(rows, rowID)
		if i < 0 {
			return nil, ErrMissingRow
		}

		if err := rows[i].Set(field, value); err != nil {
			return nil, err
		}

		return rows, nil
	})
	if errors.Is(err, ErrMissingRow) {
		slog.DebugContext(ctx, "dropping edit for missing row", "section", section, "row", rowID)
		return totals, nil
	}

	if err != nil {
		return totals, err
	}

	s.recorder.RowChanged(section, "set")

	return totals, nil
}

// AppendRow writes defaults into the first blank row of the section. The row
// keeps the identity the blank slot already had. The grid never grows, so a
// section without blank rows is full.
func (s *Service) AppendRow(ctx context.Context, month string, section Section, defaults LineItem) (uuid.UUID, Totals, error) {
	var id uuid.UUID

	totals, err := s.mutate(ctx, month, section, func(rows []LineItem) ([]LineItem, error) {
		i := slices.IndexFunc(rows, LineItem.IsBlank)
		if i < 0 {
			return nil, ErrSectionFull
		}

		id = rows[i].ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		row := defaults
		row.ID = id
		rows[i] = row

		return rows, nil
	})
	if err != nil {
		return uuid.Nil, totals, err
	}

	s.recorder.RowChanged(section, "append")

	return id, totals, nil
}

// DeleteRow removes a row by identity and pads a blank row at the end. Deleting a
// row that is already gone does nothing.
func (s *Service) DeleteRow(ctx context.Context, month string, section Section, rowID uuid.UUID) (Totals, error) {
	totals, err := s.mutate(ctx, month, section, func(rows []LineItem) ([]LineItem, error) {
		i := indexOf(rows, rowID)
		if i < 0 {
			return nil, ErrMissingRow
		}

		return append(slices.Delete(rows, i, i+1), BlankRow()), nil
	})
	if errors.Is(err, ErrMissingRow) {
		slog.DebugContext(ctx, "dropping delete for missing row", "section", section, "row", rowID)
		return totals, nil
	}

	if err != nil {
		return totals, err
	}

	s.recorder.RowChanged(section, "delete")

	return totals, nil
}

// Document returns a copy of the whole live document.
func (s *Service) Document(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	return s.doc.Clone(), nil
}

// Import stores raw documents under their schema keys. Unknown keys are ignored.
// The live document is reloaded when the current key was imported, or when it
// has never been saved, in which case an imported older schema is migrated.
func (s *Service) Import(ctx context.Context, entries map[string][]byte) ([]string, Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := append([]string{CurrentKey}, PredecessorKeys()...)

	_, err := s.repo.Get(ctx, CurrentKey)
	currentSaved := err == nil

	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, Outcome{}, fmt.Errorf("checking current document: %w", err)
	}

	var imported []string

	for _, key := range known {
		data, ok := entries[key]
		if !ok {
			continue
		}

		if err := s.repo.Put(ctx, key, data); err != nil {
			return imported, Outcome{}, fmt.Errorf("importing %s: %w", key, err)
		}

		imported = append(imported, key)
	}

	if len(imported) == 0 {
		return nil, Outcome{}, nil
	}

	if currentSaved && !slices.Contains(imported, CurrentKey) {
		return imported, Outcome{Kind: OutcomeLoaded}, nil
	}

	outcome, err := s.openLocked(ctx)

	return imported, outcome, err
}

// PutMonths replaces whole months of the live document, normalizing each one.
// Months not named are left alone.
func (s *Service) PutMonths(ctx context.Context, months map[string]MonthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	for key := range months {
		if _, err := ParseMonth(key, s.now()); err != nil || key == "" {
			return fmt.Errorf("%w: %q", ErrInvalidMonth, key)
		}
	}

	before := s.doc.Clone()

	for key, rec := range months {
		n := Normalize(rec)
		s.doc.Months[key] = &n
	}

	if err := s.persistLocked(ctx); err != nil {
		s.doc = before
		return err
	}

	for key := range months {
		slog.InfoContext(ctx, "replaced month", "month", key)
	}

	return nil
}
