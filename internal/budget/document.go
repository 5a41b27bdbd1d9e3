package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentKey is the storage key of the current schema version.
const CurrentKey = "finance-dashboard.v4"

// Repository stores one opaque document per key.
//
//go:generate mockgen -source=document.go -destination=repository_mock.go -package=budget
type Repository interface {
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by repositories that can drop a document.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// monthsOf returns the raw month records of a stored document. A document that is
// not an object with a "months" object is reported as ErrStorageCorrupt.
func monthsOf(data []byte) (map[string]json.RawMessage, error) {
	var envelope struct {
		Months json.RawMessage `json:"months"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageCorrupt, err)
	}

	var months map[string]json.RawMessage
	if err := json.Unmarshal(envelope.Months, &months); err != nil || months == nil {
		return nil, fmt.Errorf("%w: missing months object", ErrStorageCorrupt)
	}

	return months, nil
}

// DecodeDocument decodes a current-version document. On ErrStorageCorrupt it still
// returns a usable empty document.
func DecodeDocument(data []byte) (*Document, error) {
	months, err := monthsOf(data)
	if err != nil {
		return NewDocument(), err
	}

	doc := NewDocument()
	for k, raw := range months {
		var rec MonthRecord
		_ = rec.UnmarshalJSON(raw)
		doc.Months[k] = &rec
	}

	return doc, nil
}

// LoadDocument reads and decodes the document stored under key. It returns
// ErrNotFound when the key is absent and an empty document with ErrStorageCorrupt
// when the stored text cannot be used.
func LoadDocument(ctx context.Context, repo Repository, key string) (*Document, error) {
	data, err := repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("loading document %s: %w", key, err)
	}

	return DecodeDocument(data)
}

// SaveDocument writes the whole document under key, replacing what was there.
func SaveDocument(ctx context.Context, repo Repository, key string, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if err := repo.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving document %s: %w", key, err)
	}

	return nil
}
