// Package source reads the raw tables that seed the store. Backends (CSV
// files, Google Sheets, memory) all hand their cells to the shared parsers in
// this package so every backend enforces the same header and record rules.
package source

import (
	"context"
	"errors"
	"fmt"

	"findash/internal/core"
)

type Table string

const (
	UsersTable        Table = "users"
	CategoriesTable   Table = "categories"
	TransactionsTable Table = "transactions"
)

// Tables lists the source tables in load order: parents before dependents.
func Tables() []Table {
	return []Table{UsersTable, CategoriesTable, TransactionsTable}
}

// Columns returns the exact header a source table must carry.
func (t Table) Columns() []string {
	switch t {
	case UsersTable:
		return []string{"user_id", "name", "age", "income"}
	case CategoriesTable:
		return []string{"category_id", "category_name", "budget", "is_income_allowed"}
	case TransactionsTable:
		return []string{"transaction_id", "user_id", "date", "amount", "category", "type"}
	default:
		return nil
	}
}

var (
	ErrSourceMissing   = errors.New("source table missing")
	ErrColumnMismatch  = errors.New("column mismatch")
	ErrMalformedRecord = errors.New("malformed record")
	ErrDanglingRef     = errors.New("dangling reference")
	ErrDuplicateKey    = errors.New("duplicate key")
)

// RecordError pinpoints a bad source record. Line is 1-based and counts the
// header, so it matches what an editor shows for a CSV file. It is 0 when the
// record did not come from a file.
type RecordError struct {
	Table Table
	Line  int
	Err   error
}

func (e *RecordError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Dataset is the full content of one source, ready to load.
type Dataset struct {
	Users        []core.User
	Categories   []core.Category
	Transactions []core.Transaction
}

// Reader is implemented by every source backend.
type Reader interface {
	// Read returns the whole dataset or fails; there is no partial result.
	Read(ctx context.Context) (Dataset, error)
}

// Validate checks keys and references before anything touches the store, so
// a broken source never costs the existing data.
func (d Dataset) Validate() error {
	users := make(map[int64]struct{}, len(d.Users))
	for _, u := range d.Users {
		if err := u.Validate(); err != nil {
			return &RecordError{Table: UsersTable, Err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("%w: %s user_id %d", ErrDuplicateKey, UsersTable, u.ID)
		}
		users[u.ID] = struct{}{}
	}
	cats := make(map[int64]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		if err := c.Validate(); err != nil {
			return &RecordError{Table: CategoriesTable, Err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}
		}
		if _, dup := cats[c.ID]; dup {
			return fmt.Errorf("%w: %s category_id %d", ErrDuplicateKey, CategoriesTable, c.ID)
		}
		cats[c.ID] = struct{}{}
	}
	txs := make(map[int64]struct{}, len(d.Transactions))
	for _, t := range d.Transactions {
		if err := t.Validate(); err != nil {
			return &RecordError{Table: TransactionsTable, Err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}
		}
		if _, dup := txs[t.ID]; dup {
			return fmt.Errorf("%w: %s transaction_id %d", ErrDuplicateKey, TransactionsTable, t.ID)
		}
		txs[t.ID] = struct{}{}
		if _, ok := users[t.UserID]; !ok {
			return fmt.Errorf("%w: transaction %d references unknown user %d", ErrDanglingRef, t.ID, t.UserID)
		}
		if _, ok := cats[t.CategoryID]; !ok {
			return fmt.Errorf("%w: transaction %d references unknown category %d", ErrDanglingRef, t.ID, t.CategoryID)
		}
	}
	return nil
}
