package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"findash/internal/core"
)

// Reader is the part of the store the report needs: one read per catalog view.
type Reader interface {
	Users(ctx context.Context) ([]core.User, error)
	Categories(ctx context.Context) ([]core.Category, error)
	Transactions(ctx context.Context) ([]core.TransactionRow, error)
	UserSummaries(ctx context.Context) ([]core.UserSummary, error)
	UserStats(ctx context.Context) ([]core.UserStats, error)
	ExtendedTransactions(ctx context.Context) ([]core.ExtendedTransaction, error)
	CumulativeExpenses(ctx context.Context) ([]core.CumulativeExpense, error)
	HighSpenders(ctx context.Context) ([]core.HighSpender, error)
}

// Overview is the selected user's headline numbers.
type Overview struct {
	Name         string          `json:"name"`
	Age          int             `json:"age"`
	Income       decimal.Decimal `json:"income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Savings      decimal.Decimal `json:"savings"`
	Overspend    bool            `json:"overspend"`
	// Overspent is |Savings| when Overspend is set, zero otherwise.
	Overspent decimal.Decimal `json:"overspent"`
}

// UserIncome is one row of the users table.
type UserIncome struct {
	UserID  int64           `json:"user_id"`
	Name    string          `json:"name"`
	Summary string          `json:"user_summary"`
	Income  decimal.Decimal `json:"income"`
	Highest bool            `json:"highest"`
	Lowest  bool            `json:"lowest"`
}

// IncomeStats aggregates declared income over every user.
type IncomeStats struct {
	Total decimal.Decimal `json:"total"`
	Avg   decimal.Decimal `json:"avg"`
	Max   decimal.Decimal `json:"max"`
	Min   decimal.Decimal `json:"min"`
}

// Report is everything the dashboard page renders for one Params.
type Report struct {
	Params     Params       `json:"params"`
	Users      []core.User  `json:"users"`
	Categories []string     `json:"categories"`
	Types      []TypeFilter `json:"types"`

	UserMissing bool                  `json:"user_missing"`
	Overview    Overview              `json:"overview"`
	Stats       *core.UserStats       `json:"stats,omitempty"`
	Empty       bool                  `json:"empty"`
	NoExpenses  bool                  `json:"no_expenses"`
	Filtered    []core.TransactionRow `json:"transactions"`

	ExpenseByCategory []core.CategoryAmount `json:"expense_by_category"`
	IncomeByCategory  []core.CategoryAmount `json:"income_by_category"`

	ByWeekday []Bucket `json:"by_weekday"`
	ByMonth   []Bucket `json:"by_month"`
	ByQuarter []Bucket `json:"by_quarter"`
	ByYear    []Bucket `json:"by_year"`

	Trend []TrendPoint `json:"trend"`

	UserIncomes []UserIncome `json:"user_incomes"`
	IncomeStats IncomeStats  `json:"income_stats"`

	Cumulative   []core.CumulativeExpense `json:"cumulative_expense"`
	HighSpenders []core.HighSpender       `json:"high_spenders"`
}

type Service struct {
	reader Reader
	logger *slog.Logger
}

func NewService(reader Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, logger: logger.With("component", "dashboard")}
}

type snapshot struct {
	users      []core.User
	categories []core.Category
	txs        []core.TransactionRow
	summaries  []core.UserSummary
	stats      []core.UserStats
	extended   []core.ExtendedTransaction
	cumulative []core.CumulativeExpense
	spenders   []core.HighSpender
}

func (s *Service) fetch(ctx context.Context) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.users, err = s.reader.Users(ctx); return })
	g.Go(func() (err error) { snap.categories, err = s.reader.Categories(ctx); return })
	g.Go(func() (err error) { snap.txs, err = s.reader.Transactions(ctx); return })
	g.Go(func() (err error) { snap.summaries, err = s.reader.UserSummaries(ctx); return })
	g.Go(func() (err error) { snap.stats, err = s.reader.UserStats(ctx); return })
	g.Go(func() (err error) { snap.extended, err = s.reader.ExtendedTransactions(ctx); return })
	g.Go(func() (err error) { snap.cumulative, err = s.reader.CumulativeExpenses(ctx); return })
	g.Go(func() (err error) { snap.spenders, err = s.reader.HighSpenders(ctx); return })
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// Build reads every view once and recomputes the whole report for p. Unset
// fields of p take their DefaultParams value. An empty selection is not an
// error: it is reported through Empty, NoExpenses and UserMissing.
func (s *Service) Build(ctx context.Context, p Params) (Report, error) {
	snap, err := s.fetch(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetch views: %w", err)
	}

	p = p.withDefaults(DefaultParams(snap.users, snap.categories, snap.txs))
	r := Report{
		Params:       p,
		Users:        snap.users,
		Categories:   CategoryNames(snap.categories),
		Types:        TypeFilters(),
		Cumulative:   snap.cumulative,
		HighSpenders: snap.spenders,
	}
	r.UserIncomes, r.IncomeStats = userIncomes(snap.users, snap.summaries)

	user, ok := FindUser(snap.users, p.UserID)
	if !ok {
		r.UserMissing = true
		r.Empty = true
		r.NoExpenses = true
		s.logger.DebugContext(ctx, "Selected user not found", "user_id", p.UserID)
		return r, nil
	}

	r.Filtered = ApplyFilter(snap.txs, p)
	r.Empty = len(r.Filtered) == 0
	r.Overview = overview(user, r.Filtered)
	if st, ok := FindStats(snap.stats, user.ID); ok {
		r.Stats = &st
	}

	r.ExpenseByCategory = SumByCategory(r.Filtered, core.Expense)
	r.IncomeByCategory = SumByCategory(r.Filtered, core.Income)

	var deep []core.ExtendedTransaction
	for _, e := range snap.extended {
		if e.UserID == user.ID && e.Type == core.Expense {
			deep = append(deep, e)
		}
	}
	r.ByWeekday = ByWeekday(deep)
	r.ByMonth = ByMonth(deep)
	r.ByQuarter = ByQuarter(deep)
	r.ByYear = ByYear(deep)

	r.Trend = CategoryTrend(r.Filtered)
	r.NoExpenses = len(r.Trend) == 0

	s.logger.DebugContext(ctx, "Report built",
		"user_id", user.ID,
		"rows", len(r.Filtered),
		"trend_rows", len(r.Trend))
	return r, nil
}

func overview(u core.User, filtered []core.TransactionRow) Overview {
	o := Overview{
		Name:         u.Name,
		Age:          u.Age,
		Income:       decimal.NewFromInt(u.Income),
		TotalExpense: SumByType(filtered, core.Expense),
	}
	o.Savings = o.Income.Sub(o.TotalExpense)
	if o.Savings.IsNegative() {
		o.Overspend = true
		o.Overspent = o.Savings.Abs()
	}
	return o
}

// userIncomes joins user_summary with declared income and marks the highest
// and lowest earners. Ties are all marked.
func userIncomes(users []core.User, summaries []core.UserSummary) ([]UserIncome, IncomeStats) {
	var stats IncomeStats
	if len(users) == 0 {
		return nil, stats
	}
	summary := make(map[int64]string, len(summaries))
	for _, s := range summaries {
		summary[s.UserID] = s.Summary
	}

	out := make([]UserIncome, 0, len(users))
	for i, u := range users {
		income := decimal.NewFromInt(u.Income)
		out = append(out, UserIncome{
			UserID:  u.ID,
			Name:    summaryName(summary[u.ID], u.Name),
			Summary: summary[u.ID],
			Income:  income,
		})
		stats.Total = stats.Total.Add(income)
		if i == 0 || income.GreaterThan(stats.Max) {
			stats.Max = income
		}
		if i == 0 || income.LessThan(stats.Min) {
			stats.Min = income
		}
	}
	stats.Avg = stats.Total.Div(decimal.NewFromInt(int64(len(users)))).Round(2)

	for i := range out {
		out[i].Highest = out[i].Income.Equal(stats.Max)
		out[i].Lowest = out[i].Income.Equal(stats.Min)
	}
	return out, stats
}

// summaryName extracts the name from a "name (income: N)" summary.
func summaryName(summary, fallback string) string {
	if name, _, ok := strings.Cut(summary, " ("); ok && name != "" {
		return name
	}
	return fallback
}
