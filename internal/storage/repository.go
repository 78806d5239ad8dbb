package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"findash/internal/core"
	"findash/internal/source"

	_ "modernc.org/sqlite"
)

// Store is a handle on the local SQLite file. Load and read phases each open
// their own Store; nothing here coordinates two writers.
type Store struct {
	db   *sql.DB
	path string
	dsn  string
}

// LoadStats counts the rows written by one Load.
type LoadStats struct {
	Users        int `json:"users"`
	Categories   int `json:"categories"`
	Transactions int `json:"transactions"`
}

// Rows returns the count for one source table.
func (ls LoadStats) Rows(t source.Table) int {
	switch t {
	case source.UsersTable:
		return ls.Users
	case source.CategoriesTable:
		return ls.Categories
	case source.TransactionsTable:
		return ls.Transactions
	}
	return 0
}

// DSN enables foreign keys on every pooled connection. SQLite leaves them off
// by default.
func DSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open opens (creating if needed) the store at path and applies any pending
// setup steps.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, path: path, dsn: dsn}, nil
}

// WithStore opens the store, runs fn and closes the store on every path out.
func WithStore(ctx context.Context, path string, fn func(*Store) error) (err error) {
	s, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()
	return fn(s)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Path() string { return s.path }

var sidecarSuffixes = []string{"-journal", "-wal", "-shm"}

// Remove deletes the store file at path and any SQLite sidecar files next to
// it. Missing files are not an error.
func Remove(path string) error {
	for _, p := range append([]string{path}, sidecars(path)...) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// Replace moves the closed store at src over dst in one rename. Sidecars left
// by an earlier store at dst are dropped first so SQLite never replays them
// against the new file.
func Replace(src, dst string) error {
	for _, p := range sidecars(dst) {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func sidecars(path string) []string {
	out := make([]string, 0, len(sidecarSuffixes))
	for _, suffix := range sidecarSuffixes {
		out = append(out, path+suffix)
	}
	return out
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Reset drops and recreates every table and view. All data is lost.
func (s *Store) Reset(ctx context.Context) error {
	if err := ResetSchema(s.dsn); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Schema reset", "component", "storage", "path", s.path)
	return nil
}

// Version reports the last applied setup step.
func (s *Store) Version() (uint, bool, error) {
	v, dirty, ok, err := SchemaVersion(s.dsn)
	if err != nil || !ok {
		return 0, false, err
	}
	return v, dirty, nil
}

// Load writes the dataset into the base tables inside one transaction. A
// constraint failure on any row rolls back all three tables.
func (s *Store) Load(ctx context.Context, ds source.Dataset) (LoadStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadStats{}, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stats LoadStats
	if stats.Users, err = insertUsers(ctx, tx, ds.Users); err != nil {
		return LoadStats{}, err
	}
	if stats.Categories, err = insertCategories(ctx, tx, ds.Categories); err != nil {
		return LoadStats{}, err
	}
	if stats.Transactions, err = insertTransactions(ctx, tx, ds.Transactions); err != nil {
		return LoadStats{}, err
	}
	if err := tx.Commit(); err != nil {
		return LoadStats{}, fmt.Errorf("commit load: %w", err)
	}

	slog.InfoContext(ctx, "Dataset loaded",
		"component", "storage",
		"users", stats.Users,
		"categories", stats.Categories,
		"transactions", stats.Transactions)
	return stats, nil
}

func insertUsers(ctx context.Context, tx *sql.Tx, users []core.User) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (user_id, name, age, income) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare users insert: %w", err)
	}
	defer stmt.Close()
	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.ID, u.Name, u.Age, u.Income); err != nil {
			return 0, fmt.Errorf("insert user %d: %w", u.ID, err)
		}
	}
	return len(users), nil
}

func insertCategories(ctx context.Context, tx *sql.Tx, cats []core.Category) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO expense_categories (category_id, category_name, budget, is_income_allowed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare categories insert: %w", err)
	}
	defer stmt.Close()
	for _, c := range cats {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Budget, c.IncomeAllowed); err != nil {
			return 0, fmt.Errorf("insert category %d: %w", c.ID, err)
		}
	}
	return len(cats), nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, txs []core.Transaction) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (transaction_id, user_id, date, amount, category, type) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare transactions insert: %w", err)
	}
	defer stmt.Close()
	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID,
			t.UserID,
			t.Date.String(),
			t.Amount.InexactFloat64(),
			t.CategoryID,
			t.StoredType(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}
	return len(txs), nil
}

// Typed reads, one per catalog view. Every query has a total ORDER BY so two
// reads of an unchanged store return identical slices.

func (s *Store) Users(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, name, age, income FROM users_view ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users_view: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var (
			u      core.User
			age    sql.NullInt64
			income sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Name, &age, &income); err != nil {
			return nil, fmt.Errorf("scan users_view: %w", err)
		}
		u.Age, u.Income = int(age.Int64), income.Int64
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category_id, category_name, budget, is_income_allowed FROM categories_view ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("query categories_view: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			budget sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &budget, &c.IncomeAllowed); err != nil {
			return nil, fmt.Errorf("scan categories_view: %w", err)
		}
		c.Budget = budget.Int64
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Transactions(ctx context.Context) ([]core.TransactionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, date, amount, type, category_name, is_income_allowed
		FROM transactions_view
		ORDER BY date, transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions_view: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionRow
	for rows.Next() {
		var r core.TransactionRow
		var typ string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &r.Amount, &typ, &r.Category, &r.IncomeAllowed); err != nil {
			return nil, fmt.Errorf("scan transactions_view: %w", err)
		}
		r.Type = core.TransactionType(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UserSummaries(ctx context.Context) ([]core.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, user_summary FROM user_summary ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query user_summary: %w", err)
	}
	defer rows.Close()

	var out []core.UserSummary
	for rows.Next() {
		var (
			r       core.UserSummary
			summary sql.NullString
		)
		if err := rows.Scan(&r.UserID, &summary); err != nil {
			return nil, fmt.Errorf("scan user_summary: %w", err)
		}
		r.Summary = summary.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UserStats(ctx context.Context) ([]core.UserStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, transaction_count, avg_transaction_amount, max_transaction_amount, min_transaction_amount
		FROM user_transaction_count
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query user_transaction_count: %w", err)
	}
	defer rows.Close()

	var out []core.UserStats
	for rows.Next() {
		var r core.UserStats
		if err := rows.Scan(&r.UserID, &r.Name, &r.Count, &r.Avg, &r.Max, &r.Min); err != nil {
			return nil, fmt.Errorf("scan user_transaction_count: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ExtendedTransactions(ctx context.Context) ([]core.ExtendedTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, date, transaction_month, transaction_year,
		       transaction_weekday, transaction_quarter, amount, type, category_name
		FROM transactions_extended
		ORDER BY date, transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions_extended: %w", err)
	}
	defer rows.Close()

	var out []core.ExtendedTransaction
	for rows.Next() {
		var r core.ExtendedTransaction
		var typ string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &r.Month, &r.Year, &r.Weekday, &r.Quarter, &r.Amount, &typ, &r.Category); err != nil {
			return nil, fmt.Errorf("scan transactions_extended: %w", err)
		}
		r.Type = core.TransactionType(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CumulativeExpenses(ctx context.Context) ([]core.CumulativeExpense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, user_id, date, amount, cumulative_sum
		FROM cumulative_expense
		ORDER BY user_id, date, transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("query cumulative_expense: %w", err)
	}
	defer rows.Close()

	var out []core.CumulativeExpense
	for rows.Next() {
		var r core.CumulativeExpense
		if err := rows.Scan(&r.TransactionID, &r.UserID, &r.Date, &r.Amount, &r.CumulativeSum); err != nil {
			return nil, fmt.Errorf("scan cumulative_expense: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) HighSpenders(ctx context.Context) ([]core.HighSpender, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, name, total_expense
		FROM high_spenders
		ORDER BY total_expense DESC, user_id`)
	if err != nil {
		return nil, fmt.Errorf("query high_spenders: %w", err)
	}
	defer rows.Close()

	var out []core.HighSpender
	for rows.Next() {
		var r core.HighSpender
		if err := rows.Scan(&r.UserID, &r.Name, &r.TotalExpense); err != nil {
			return nil, fmt.Errorf("scan high_spenders: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
