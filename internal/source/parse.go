package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"findash/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("txtype", validateTransactionType)
	return v
}

func validateTransactionType(fl validator.FieldLevel) bool {
	_, err := core.ParseTransactionType(fl.Field().String())
	return err == nil
}

// Raw records as they come off the wire. Validation runs on the text so a
// failure names the offending column.
type (
	userRecord struct {
		UserID string `validate:"required,number"`
		Name   string `validate:"required"`
		Age    string `validate:"required,number"`
		Income string `validate:"required,number"`
	}

	categoryRecord struct {
		CategoryID      string `validate:"required,number"`
		CategoryName    string `validate:"required"`
		Budget          string `validate:"required,number"`
		IsIncomeAllowed string `validate:"required,boolean"`
	}

	transactionRecord struct {
		TransactionID string `validate:"required,number"`
		UserID        string `validate:"required,number"`
		Date          string `validate:"required,datetime=2006-01-02"`
		Amount        string `validate:"required"`
		Category      string `validate:"required,number"`
		Type          string `validate:"required,txtype"`
	}
)

// ParseDataset parses the three tables. rows[table][0] must be the header.
func ParseDataset(tables map[Table][][]string) (Dataset, error) {
	var ds Dataset
	var err error
	if ds.Users, err = ParseUsers(tables[UsersTable]); err != nil {
		return Dataset{}, err
	}
	if ds.Categories, err = ParseCategories(tables[CategoriesTable]); err != nil {
		return Dataset{}, err
	}
	if ds.Transactions, err = ParseTransactions(tables[TransactionsTable]); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func ParseUsers(rows [][]string) ([]core.User, error) {
	return parseTable(UsersTable, rows, func(cells []string) (core.User, error) {
		rec := userRecord{UserID: cells[0], Name: cells[1], Age: cells[2], Income: cells[3]}
		if err := validate.Struct(rec); err != nil {
			return core.User{}, describe(err)
		}
		age, err := strconv.Atoi(rec.Age)
		if err != nil {
			return core.User{}, fmt.Errorf("age: %w", err)
		}
		u := core.User{Name: rec.Name, Age: age}
		if u.ID, err = strconv.ParseInt(rec.UserID, 10, 64); err != nil {
			return core.User{}, fmt.Errorf("user_id: %w", err)
		}
		if u.Income, err = strconv.ParseInt(rec.Income, 10, 64); err != nil {
			return core.User{}, fmt.Errorf("income: %w", err)
		}
		return u, u.Validate()
	})
}

func ParseCategories(rows [][]string) ([]core.Category, error) {
	return parseTable(CategoriesTable, rows, func(cells []string) (core.Category, error) {
		rec := categoryRecord{CategoryID: cells[0], CategoryName: cells[1], Budget: cells[2], IsIncomeAllowed: cells[3]}
		if err := validate.Struct(rec); err != nil {
			return core.Category{}, describe(err)
		}
		c := core.Category{Name: rec.CategoryName}
		var err error
		if c.ID, err = strconv.ParseInt(rec.CategoryID, 10, 64); err != nil {
			return core.Category{}, fmt.Errorf("category_id: %w", err)
		}
		if c.Budget, err = strconv.ParseInt(rec.Budget, 10, 64); err != nil {
			return core.Category{}, fmt.Errorf("budget: %w", err)
		}
		if c.IncomeAllowed, err = strconv.ParseBool(rec.IsIncomeAllowed); err != nil {
			return core.Category{}, fmt.Errorf("is_income_allowed: %w", err)
		}
		return c, c.Validate()
	})
}

func ParseTransactions(rows [][]string) ([]core.Transaction, error) {
	return parseTable(TransactionsTable, rows, func(cells []string) (core.Transaction, error) {
		rec := transactionRecord{
			TransactionID: cells[0],
			UserID:        cells[1],
			Date:          cells[2],
			Amount:        cells[3],
			Category:      cells[4],
			Type:          cells[5],
		}
		if err := validate.Struct(rec); err != nil {
			return core.Transaction{}, describe(err)
		}
		var (
			tx  = core.Transaction{RawType: rec.Type}
			err error
		)
		if tx.ID, err = strconv.ParseInt(rec.TransactionID, 10, 64); err != nil {
			return core.Transaction{}, fmt.Errorf("transaction_id: %w", err)
		}
		if tx.UserID, err = strconv.ParseInt(rec.UserID, 10, 64); err != nil {
			return core.Transaction{}, fmt.Errorf("user_id: %w", err)
		}
		if tx.CategoryID, err = strconv.ParseInt(rec.Category, 10, 64); err != nil {
			return core.Transaction{}, fmt.Errorf("category: %w", err)
		}
		if tx.Date, err = core.ParseDate(rec.Date); err != nil {
			return core.Transaction{}, fmt.Errorf("date: %w", err)
		}
		if tx.Amount, err = core.ParseAmount(rec.Amount); err != nil {
			return core.Transaction{}, fmt.Errorf("amount: %w", err)
		}
		if tx.Type, err = core.ParseTransactionType(rec.Type); err != nil {
			return core.Transaction{}, fmt.Errorf("type: %w", err)
		}
		return tx, tx.Validate()
	})
}

func parseTable[T any](table Table, rows [][]string, build func([]string) (T, error)) ([]T, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", ErrColumnMismatch, table)
	}
	if err := checkHeader(table, rows[0]); err != nil {
		return nil, err
	}

	want := len(table.Columns())
	out := make([]T, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		if len(row) != want {
			return nil, &RecordError{Table: table, Line: line, Err: fmt.Errorf("%w: got %d fields, want %d", ErrMalformedRecord, len(row), want)}
		}
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(c)
		}
		// Type keeps its source spelling; only the parsed value is trimmed.
		if table == TransactionsTable {
			cells[5] = row[5]
		}
		v, err := build(cells)
		if err != nil {
			if !errors.Is(err, ErrMalformedRecord) {
				err = fmt.Errorf("%w: %w", ErrMalformedRecord, err)
			}
			return nil, &RecordError{Table: table, Line: line, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

func checkHeader(table Table, header []string) error {
	want := table.Columns()
	got := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		got[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if len(got) != len(want) {
		return fmt.Errorf("%w: %s header %v, want %v", ErrColumnMismatch, table, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: %s header %v, want %v", ErrColumnMismatch, table, got, want)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// describe flattens validator errors into one message naming each field.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s (value %q)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s (value %q)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrMalformedRecord, strings.Join(parts, "; "))
}
