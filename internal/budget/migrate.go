package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// OutcomeKind says which path LoadCurrent took.
type OutcomeKind string

const (
	OutcomeLoaded   OutcomeKind = "loaded"
	OutcomeMigrated OutcomeKind = "migrated"
	OutcomeCorrupt  OutcomeKind = "corrupt"
	OutcomeEmpty    OutcomeKind = "empty"
)

type Outcome struct {
	Kind OutcomeKind
	// From is the schema tag a migrated document came from.
	From string
}

func (o Outcome) String() string {
	if o.Kind == OutcomeMigrated {
		return string(o.Kind) + ":" + o.From
	}

	return string(o.Kind)
}

// step is one predecessor schema: where it is stored and how its months become
// current-version months.
type step interface {
	Tag() string
	Key() string
	Migrate(months map[string]json.RawMessage) map[string]*MonthRecord
}

type chainStep[T any] struct {
	tag     string
	key     string
	decode  func(json.RawMessage) T
	migrate func(T) MonthRecord
}

func (s chainStep[T]) Tag() string { return s.tag }
func (s chainStep[T]) Key() string { return s.key }

func (s chainStep[T]) Migrate(months map[string]json.RawMessage) map[string]*MonthRecord {
	out := make(map[string]*MonthRecord, len(months))
	for k, raw := range months {
		rec := Normalize(s.migrate(s.decode(raw)))
		out[k] = &rec
	}

	return out
}

// predecessors is tried in order, most recent schema first.
var predecessors = []step{
	chainStep[v3Month]{
		tag:     "v3",
		key:     "finance-dashboard.v3",
		decode:  decodeV3,
		migrate: v3ToV4,
	},
	chainStep[v2Month]{
		tag:    "v2",
		key:    "finance-dashboard.v2",
		decode: decodeV2,
		migrate: func(m v2Month) MonthRecord {
			return v3ToV4(v2ToV3(m))
		},
	},
}

// PredecessorKeys lists the storage keys of every older schema, newest first.
func PredecessorKeys() []string {
	keys := make([]string, len(predecessors))
	for i, p := range predecessors {
		keys[i] = p.Key()
	}

	return keys
}

// LoadCurrent returns the current-version document. When the current key is
// missing or corrupt it migrates the newest predecessor it can read, and falls
// back to an empty document. Migration is best-effort: fields the current schema
// has no place for are dropped.
//
// Only storage I/O failures are returned as errors; every data problem degrades
// to an empty document.
func LoadCurrent(ctx context.Context, repo Repository) (*Document, Outcome, error) {
	fallback := Outcome{Kind: OutcomeEmpty}

	doc, err := LoadDocument(ctx, repo, CurrentKey)
	switch {
	case err == nil:
		normalizeAll(doc)
		return doc, Outcome{Kind: OutcomeLoaded}, nil
	case errors.Is(err, ErrStorageCorrupt):
		slog.WarnContext(ctx, "current document is corrupt, trying earlier schemas", "key", CurrentKey, "error", err)
		fallback = Outcome{Kind: OutcomeCorrupt}
	case !errors.Is(err, ErrNotFound):
		return nil, Outcome{}, err
	}

	for _, p := range predecessors {
		migrated, err := migrateFrom(ctx, repo, p)
		if err != nil {
			slog.InfoContext(ctx, "skipping schema", "tag", p.Tag(), "key", p.Key(), "reason", err)
			continue
		}

		slog.InfoContext(ctx, "migrated document", "from", p.Tag(), "months", len(migrated.Months))

		return migrated, Outcome{Kind: OutcomeMigrated, From: p.Tag()}, nil
	}

	return NewDocument(), fallback, nil
}

func migrateFrom(ctx context.Context, repo Repository, p step) (doc *Document, err error) {
	data, err := repo.Get(ctx, p.Key())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrMigrationUnavailable
		}

		return nil, fmt.Errorf("reading %s: %w", p.Key(), err)
	}

	months, err := monthsOf(data)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("migrating %s: %v", p.Tag(), r)
		}
	}()

	return &Document{Months: p.Migrate(months)}, nil
}

func normalizeAll(doc *Document) {
	for k, rec := range doc.Months {
		n := Normalize(*rec)
		doc.Months[k] = &n
	}
}
