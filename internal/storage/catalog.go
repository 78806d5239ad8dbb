package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"findash/internal/core"
)

// View names a derived query in the catalog.
type View string

const (
	UsersView            View = "users_view"
	CategoriesView       View = "categories_view"
	TransactionsView     View = "transactions_view"
	UserSummaryView      View = "user_summary"
	UserTransactionCount View = "user_transaction_count"
	TransactionsExtended View = "transactions_extended"
	CumulativeExpense    View = "cumulative_expense"
	HighSpenders         View = "high_spenders"
)

var ErrUnknownView = errors.New("unknown view")

var views = []View{
	UsersView,
	CategoriesView,
	TransactionsView,
	UserSummaryView,
	UserTransactionCount,
	TransactionsExtended,
	CumulativeExpense,
	HighSpenders,
}

// orderBy gives each view a total order over its rows.
var orderBy = map[View]string{
	UsersView:            "user_id",
	CategoriesView:       "category_id",
	TransactionsView:     "date, transaction_id",
	UserSummaryView:      "user_id",
	UserTransactionCount: "user_id",
	TransactionsExtended: "date, transaction_id",
	CumulativeExpense:    "user_id, date, transaction_id",
	HighSpenders:         "total_expense DESC, user_id",
}

// Views lists the catalog in declaration order.
func Views() []View {
	return append([]View(nil), views...)
}

func ParseView(name string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := orderBy[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return v, nil
}

func (v View) String() string { return string(v) }

// Table is a view result in column order. Values are int64, float64, string,
// bool-as-int64 or nil as the engine returns them; dates come back as
// YYYY-MM-DD text.
type Table struct {
	View    View     `json:"view"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Fetch runs one catalog view and returns its rows.
func (s *Store) Fetch(ctx context.Context, v View) (Table, error) {
	order, ok := orderBy[v]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownView, string(v))
	}

	// v is one of the catalog constants, never caller text.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY %s", v, order))
	if err != nil {
		return Table{}, fmt.Errorf("query %s: %w", v, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("columns %s: %w", v, err)
	}

	t := Table{View: v, Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, fmt.Errorf("scan %s: %w", v, err)
		}
		for i, val := range vals {
			vals[i] = normalize(val)
		}
		t.Rows = append(t.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("rows %s: %w", v, err)
	}
	return t, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(core.DateLayout)
	default:
		return v
	}
}

// Column returns the index of name in t, or -1.
func (t Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
