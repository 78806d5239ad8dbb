package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"findash/internal/core"
	"findash/internal/source"
)

// Store is an in-memory source. It validates on every read so it rejects the
// same datasets a file source would.
type Store struct {
	mu sync.Mutex
	ds source.Dataset
}

var _ source.Reader = (*Store)(nil)

func New(ds source.Dataset) *Store {
	s := &Store{}
	s.Set(ds)
	return s
}

// Set replaces the dataset served by Read.
func (s *Store) Set(ds source.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = clone(ds)
}

func (s *Store) Read(ctx context.Context) (source.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return source.Dataset{}, err
	}
	s.mu.Lock()
	ds := clone(s.ds)
	s.mu.Unlock()

	if err := ds.Validate(); err != nil {
		return source.Dataset{}, err
	}
	return ds, nil
}

func clone(ds source.Dataset) source.Dataset {
	return source.Dataset{
		Users:        append([]core.User(nil), ds.Users...),
		Categories:   append([]core.Category(nil), ds.Categories...),
		Transactions: append([]core.Transaction(nil), ds.Transactions...),
	}
}

// Demo returns a small dataset covering the interesting cases: a user with
// both income and expenses, a high spender, a user without transactions, and
// mixed-case type spellings.
func Demo() source.Dataset {
	tx := func(id, user int64, date string, amount string, cat int64, typ string) core.Transaction {
		d, err := core.ParseDate(date)
		if err != nil {
			panic(err)
		}
		t, err := core.ParseTransactionType(typ)
		if err != nil {
			panic(err)
		}
		return core.Transaction{
			ID:         id,
			UserID:     user,
			Date:       d,
			Amount:     decimal.RequireFromString(amount),
			CategoryID: cat,
			Type:       t,
			RawType:    typ,
		}
	}
	return source.Dataset{
		Users: []core.User{
			{ID: 1, Name: "Ann", Age: 30, Income: 50000},
			{ID: 2, Name: "Boris", Age: 45, Income: 120000},
			{ID: 3, Name: "Clara", Age: 27, Income: 35000},
			{ID: 4, Name: "Dmitri", Age: 52, Income: 80000},
		},
		Categories: []core.Category{
			{ID: 1, Name: "Food", Budget: 15000, IncomeAllowed: false},
			{ID: 2, Name: "Transport", Budget: 5000, IncomeAllowed: false},
			{ID: 3, Name: "Salary", Budget: 0, IncomeAllowed: true},
			{ID: 4, Name: "Entertainment", Budget: 8000, IncomeAllowed: false},
			{ID: 5, Name: "Freelance", Budget: 0, IncomeAllowed: true},
		},
		Transactions: []core.Transaction{
			tx(1, 1, "2024-01-05", "200", 1, "expense"),
			tx(2, 1, "2024-01-20", "100", 2, "expense"),
			tx(3, 2, "2024-01-03", "120000", 3, "income"),
			tx(4, 2, "2024-01-10", "6500", 1, "expense"),
			tx(5, 2, "2024-02-14", "4200", 4, "Expense"),
			tx(6, 2, "2024-02-14", "900", 2, "expense"),
			tx(7, 2, "2024-03-02", "15000", 5, " INCOME "),
			tx(8, 4, "2024-02-01", "80000", 3, "income"),
			tx(9, 4, "2024-02-18", "3100", 1, "expense"),
			tx(10, 4, "2024-03-22", "2500", 4, "expense"),
		},
	}
}
