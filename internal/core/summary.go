package core

import "github.com/shopspring/decimal"

// Rows produced by the view catalog. None of these are stored.

// TransactionRow is a transactions_view row: a transaction joined with its
// category.
type TransactionRow struct {
	ID            int64           `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	Date          Date            `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      string          `json:"category_name"`
	IncomeAllowed bool            `json:"is_income_allowed"`
}

// UserSummary is a user_summary row.
type UserSummary struct {
	UserID  int64  `json:"user_id"`
	Summary string `json:"user_summary"`
}

// UserStats is a user_transaction_count row. The aggregates are invalid for
// users without transactions.
type UserStats struct {
	UserID int64               `json:"user_id"`
	Name   string              `json:"name"`
	Count  int64               `json:"transaction_count"`
	Avg    decimal.NullDecimal `json:"avg_transaction_amount"`
	Max    decimal.NullDecimal `json:"max_transaction_amount"`
	Min    decimal.NullDecimal `json:"min_transaction_amount"`
}

// ExtendedTransaction is a transactions_extended row.
type ExtendedTransaction struct {
	ID       int64           `json:"transaction_id"`
	UserID   int64           `json:"user_id"`
	Date     Date            `json:"date"`
	Month    int             `json:"transaction_month"`
	Year     int             `json:"transaction_year"`
	Weekday  int             `json:"transaction_weekday"`
	Quarter  int             `json:"transaction_quarter"`
	Amount   decimal.Decimal `json:"amount"`
	Type     TransactionType `json:"type"`
	Category string          `json:"category_name"`
}

// CumulativeExpense is a cumulative_expense row.
type CumulativeExpense struct {
	TransactionID int64           `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	Date          Date            `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	CumulativeSum decimal.Decimal `json:"cumulative_sum"`
}

// HighSpender is a high_spenders row.
type HighSpender struct {
	UserID       int64           `json:"user_id"`
	Name         string          `json:"name"`
	TotalExpense decimal.Decimal `json:"total_expense"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"category_name"`
	Amount decimal.Decimal `json:"amount"`
}
