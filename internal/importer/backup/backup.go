// Package backup reads JSON backups: either a storage dump mapping schema keys
// to documents, or a single bare document whose schema is recognized by shape.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	enc "github.com/OrrForeshop/finance-dashboard/internal/encoding"
)

var ErrNotBackup = errors.New("not a finance dashboard backup")

// keyPrefix is shared by every schema key.
const keyPrefix = "finance-dashboard."

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the raw documents of the backup keyed by schema key. The
// documents are not validated beyond being JSON; the loader decides what is usable.
func (p *Parser) Parse(r io.Reader) (map[string][]byte, error) {
	data, err := enc.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBackup, err)
	}

	if months, ok := top["months"]; ok {
		key, err := detectSchema(months)
		if err != nil {
			return nil, err
		}

		return map[string][]byte{key: bytes.TrimSpace(data)}, nil
	}

	entries := make(map[string][]byte)

	for key, raw := range top {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		entries[key] = documentOf(raw)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no %s* keys", ErrNotBackup, keyPrefix)
	}

	return entries, nil
}

// documentOf unwraps a document stored as a JSON string, the way browser
// storage dumps hold it.
func documentOf(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}

	return raw
}

// detectSchema picks the schema key for a bare document from its first month,
// in key order so the result does not depend on map iteration.
func detectSchema(raw json.RawMessage) (string, error) {
	var months map[string]json.RawMessage
	if err := json.Unmarshal(raw, &months); err != nil {
		return "", fmt.Errorf("%w: months is not an object", ErrNotBackup)
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		var month map[string]json.RawMessage
		if err := json.Unmarshal(months[k], &month); err != nil || len(month) == 0 {
			continue
		}

		for _, s := range schemas {
			if s.match(month) {
				return s.Key, nil
			}
		}
	}

	return schemas[len(schemas)-1].Key, nil
}
