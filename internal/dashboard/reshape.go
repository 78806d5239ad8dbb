package dashboard

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// Bucket is one bar of a date-part breakdown.
type Bucket struct {
	Key    int             `json:"key"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// TrendPoint is one cell of the category trend matrix.
type TrendPoint struct {
	Month    core.Date       `json:"month"`
	Category string          `json:"category_name"`
	Amount   decimal.Decimal `json:"amount"`
}

// SumByCategory totals the rows of type t per category name, sorted by name.
func SumByCategory(txs []core.TransactionRow, t core.TransactionType) []core.CategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != t {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	slices.SortFunc(out, func(a, b core.CategoryAmount) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// SumByType totals the rows of type t.
func SumByType(txs []core.TransactionRow, t core.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func breakdown(rows []core.ExtendedTransaction, key func(core.ExtendedTransaction) int, label func(int) string) []Bucket {
	totals := make(map[int]decimal.Decimal)
	for _, r := range rows {
		k := key(r)
		totals[k] = totals[k].Add(r.Amount)
	}
	out := make([]Bucket, 0, len(totals))
	for k, amount := range totals {
		out = append(out, Bucket{Key: k, Label: label(k), Amount: amount})
	}
	slices.SortFunc(out, func(a, b Bucket) int { return cmp.Compare(a.Key, b.Key) })
	return out
}

func labelOr(s string, ok bool, k int) string {
	if !ok {
		return strconv.Itoa(k)
	}
	return s
}

// ByWeekday sums amounts per weekday, Sunday (0) first.
func ByWeekday(rows []core.ExtendedTransaction) []Bucket {
	return breakdown(rows,
		func(r core.ExtendedTransaction) int { return r.Weekday },
		func(k int) string { s, ok := core.WeekdayName(k); return labelOr(s, ok, k) })
}

func ByMonth(rows []core.ExtendedTransaction) []Bucket {
	return breakdown(rows,
		func(r core.ExtendedTransaction) int { return r.Month },
		func(k int) string { s, ok := core.MonthName(k); return labelOr(s, ok, k) })
}

func ByQuarter(rows []core.ExtendedTransaction) []Bucket {
	return breakdown(rows,
		func(r core.ExtendedTransaction) int { return r.Quarter },
		func(k int) string { s, ok := core.QuarterLabel(k); return labelOr(s, ok, k) })
}

func ByYear(rows []core.ExtendedTransaction) []Bucket {
	return breakdown(rows,
		func(r core.ExtendedTransaction) int { return r.Year },
		strconv.Itoa)
}

// CategoryTrend sums expense rows per (month, category) and completes the
// matrix: every observed month is paired with every observed category, and
// pairs without expenses get a zero amount. The result has P×C rows ordered by
// month, then category name. It is empty when there are no expense rows.
func CategoryTrend(txs []core.TransactionRow) []TrendPoint {
	type cell struct {
		month    int64
		category string
	}
	sums := make(map[cell]decimal.Decimal)
	months := make(map[int64]core.Date)
	var categories []string
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		m := tx.Date.MonthStart()
		key := cell{month: m.Unix(), category: tx.Category}
		sums[key] = sums[key].Add(tx.Amount)
		months[key.month] = m
		categories = append(categories, tx.Category)
	}
	if len(sums) == 0 {
		return nil
	}

	periods := make([]int64, 0, len(months))
	for k := range months {
		periods = append(periods, k)
	}
	slices.Sort(periods)
	slices.Sort(categories)
	categories = slices.Compact(categories)

	out := make([]TrendPoint, 0, len(periods)*len(categories))
	for _, p := range periods {
		for _, c := range categories {
			out = append(out, TrendPoint{
				Month:    months[p],
				Category: c,
				Amount:   sums[cell{month: p, category: c}],
			})
		}
	}
	return out
}
