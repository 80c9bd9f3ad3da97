// Package history persists a local record of payments observed by the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS payments (
	reference_key TEXT PRIMARY KEY,
	label         TEXT NOT NULL DEFAULT '',
	amount        TEXT NOT NULL DEFAULT '0',
	status        TEXT NOT NULL DEFAULT 'pending',
	paid          INTEGER NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payments_updated_at ON payments (updated_at DESC);
`

// Entry is one recorded payment.
type Entry struct {
	ReferenceKey string
	Label        string
	Amount       decimal.Decimal
	Status       string
	Paid         bool
	UpdatedAt    time.Time
}

// Store is a SQLite-backed payment log. It is safe for concurrent use; the
// underlying pool serializes writers.
type Store struct {
	db *sql.DB
}

// Open creates or opens the payment log at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open payment history: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate payment history: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record upserts an entry keyed by reference. Later observations of the same
// payment overwrite earlier ones.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.ReferenceKey == "" {
		return fmt.Errorf("record payment: reference key is required")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (reference_key, label, amount, status, paid, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (reference_key) DO UPDATE SET
			label = excluded.label,
			amount = excluded.amount,
			status = excluded.status,
			paid = excluded.paid,
			updated_at = excluded.updated_at`,
		entry.ReferenceKey, entry.Label, entry.Amount.String(), entry.Status,
		entry.Paid, entry.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record payment %s: %w", entry.ReferenceKey, err)
	}
	return nil
}

// List returns entries newest first, at most limit of them. A limit of zero
// or less means no cap.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reference_key, label, amount, status, paid, updated_at
		FROM payments
		ORDER BY updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var amount, updatedAt string
		if err := rows.Scan(&entry.ReferenceKey, &entry.Label, &amount, &entry.Status, &entry.Paid, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}

		entry.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("payment %s has malformed amount %q: %w", entry.ReferenceKey, amount, err)
		}
		entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("payment %s has malformed timestamp %q: %w", entry.ReferenceKey, updatedAt, err)
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns the entry for one reference key, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, referenceKey string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT reference_key, label, amount, status, paid, updated_at
		FROM payments WHERE reference_key = ?`, referenceKey)

	var entry Entry
	var amount, updatedAt string
	if err := row.Scan(&entry.ReferenceKey, &entry.Label, &amount, &entry.Status, &entry.Paid, &updatedAt); err != nil {
		return Entry{}, err
	}

	var err error
	entry.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Entry{}, fmt.Errorf("payment %s has malformed amount %q: %w", referenceKey, amount, err)
	}
	entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("payment %s has malformed timestamp %q: %w", referenceKey, updatedAt, err)
	}
	return entry, nil
}
