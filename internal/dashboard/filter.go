// Package dashboard turns catalog reads into the report behind the dashboard
// page: it applies the user, category, type and date filters and reshapes the
// filtered rows into breakdowns and the category trend matrix.
//
// Everything here except Service.Build is pure; the same rows and Params always
// produce the same output in the same order.
package dashboard

import (
	"fmt"
	"slices"
	"strings"

	"findash/internal/core"
)

// TypeFilter is the transaction type selector shown to the user.
type TypeFilter string

const (
	TypeAll     TypeFilter = "All"
	TypeIncome  TypeFilter = "Income"
	TypeExpense TypeFilter = "Expense"
)

// TypeFilters lists the selector options in display order.
func TypeFilters() []TypeFilter {
	return []TypeFilter{TypeAll, TypeIncome, TypeExpense}
}

// ParseTypeFilter matches s case-insensitively. Empty means TypeAll.
func ParseTypeFilter(s string) (TypeFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeAll, nil
	}
	for _, f := range TypeFilters() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownTransactionType, s)
}

// Type returns the transaction type the filter keeps; ok is false for TypeAll.
func (f TypeFilter) Type() (t core.TransactionType, ok bool) {
	switch f {
	case TypeIncome:
		return core.Income, true
	case TypeExpense:
		return core.Expense, true
	default:
		return "", false
	}
}

func (f TypeFilter) Label() string {
	if f == "" {
		return string(TypeAll)
	}
	return string(f)
}

// Params is one filter selection. A nil Categories keeps every category, an
// empty non-nil one keeps none. Zero From/To leave that end open.
type Params struct {
	UserID     int64      `json:"user_id"`
	Categories []string   `json:"categories"`
	Type       TypeFilter `json:"type"`
	From       core.Date  `json:"from"`
	To         core.Date  `json:"to"`
}

// DefaultParams selects the lowest user id, every category, all types and the
// observed date range. With no transactions the dates stay zero.
func DefaultParams(users []core.User, categories []core.Category, txs []core.TransactionRow) Params {
	p := Params{Type: TypeAll, Categories: CategoryNames(categories)}
	if len(users) > 0 {
		p.UserID = users[0].ID
		for _, u := range users[1:] {
			p.UserID = min(p.UserID, u.ID)
		}
	}
	if from, to, err := DateBounds(txs); err == nil {
		p.From, p.To = from, to
	}
	return p
}

// withDefaults fills every unset field of p from def.
func (p Params) withDefaults(def Params) Params {
	if p.UserID == 0 {
		p.UserID = def.UserID
	}
	if p.Categories == nil {
		p.Categories = def.Categories
	}
	if p.Type == "" {
		p.Type = def.Type
	}
	if p.From.IsZero() {
		p.From = def.From
	}
	if p.To.IsZero() {
		p.To = def.To
	}
	return p
}

// CategoryNames returns the sorted distinct category names.
func CategoryNames(categories []core.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// DateBounds returns the earliest and latest transaction dates.
func DateBounds(txs []core.TransactionRow) (from, to core.Date, err error) {
	if len(txs) == 0 {
		return core.Date{}, core.Date{}, core.ErrNoData
	}
	from, to = txs[0].Date, txs[0].Date
	for _, t := range txs[1:] {
		if t.Date.Before(from.Time) {
			from = t.Date
		}
		if t.Date.After(to.Time) {
			to = t.Date
		}
	}
	return from, to, nil
}

// ApplyFilter keeps the rows matching every selector in p. Both date ends are
// inclusive. The input order is preserved.
func ApplyFilter(txs []core.TransactionRow, p Params) []core.TransactionRow {
	var cats map[string]struct{}
	if p.Categories != nil {
		cats = make(map[string]struct{}, len(p.Categories))
		for _, c := range p.Categories {
			cats[c] = struct{}{}
		}
	}
	want, byType := p.Type.Type()

	out := make([]core.TransactionRow, 0, len(txs))
	for _, t := range txs {
		if t.UserID != p.UserID {
			continue
		}
		if cats != nil {
			if _, ok := cats[t.Category]; !ok {
				continue
			}
		}
		if byType && t.Type != want {
			continue
		}
		if !p.From.IsZero() && t.Date.Before(p.From.Time) {
			continue
		}
		if !p.To.IsZero() && t.Date.After(p.To.Time) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FindUser returns the user with id.
func FindUser(users []core.User, id int64) (core.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return core.User{}, false
}

// FindStats returns the user_transaction_count row for id.
func FindStats(stats []core.UserStats, id int64) (core.UserStats, bool) {
	for _, s := range stats {
		if s.UserID == id {
			return s, true
		}
	}
	return core.UserStats{}, false
}
