package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OrrForeshop/finance-dashboard/internal/budget"
	"github.com/OrrForeshop/finance-dashboard/internal/database"
)

// Store keeps one document per key in the kv_documents table. It implements
// budget.Repository.
type Store struct {
	db      *sql.DB
	dialect database.Driver
}

func New(db *sql.DB, dialect database.Driver) *Store {
	return &Store{db: db, dialect: dialect}
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != database.DriverPostgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)

	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}

		n++
		b.WriteString("$" + strconv.Itoa(n))
	}

	return b.String()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := s.rebind(`SELECT body FROM kv_documents WHERE doc_key = ?`)

	var body string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting document %s: %w", key, err)
	}

	return []byte(body), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	query := s.rebind(`
		INSERT INTO kv_documents (doc_key, body, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (doc_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`)

	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("putting document %s: %w", key, err)
	}

	return nil
}

// Keys lists every stored key in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_key FROM kv_documents ORDER BY doc_key`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning document key: %w", err)
		}

		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := s.rebind(`DELETE FROM kv_documents WHERE doc_key = ?`)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting document %s: %w", key, err)
	}

	return nil
}
