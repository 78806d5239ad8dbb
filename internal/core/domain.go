package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and wire format for transaction dates.
const DateLayout = "2006-01-02"

// HighSpenderThreshold is the total expense a user must strictly exceed to be
// listed in high_spenders.
const HighSpenderThreshold = 10000

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	User struct {
		ID     int64  `json:"user_id"`
		Name   string `json:"name"`
		Age    int    `json:"age"`
		Income int64  `json:"income"`
	}

	Category struct {
		ID            int64  `json:"category_id"`
		Name          string `json:"category_name"`
		Budget        int64  `json:"budget"`
		IncomeAllowed bool   `json:"is_income_allowed"`
	}

	// Transaction is one base-table row. RawType keeps the type text exactly
	// as it appeared in the source; Type is its normalized form.
	Transaction struct {
		ID         int64
		UserID     int64
		Date       Date
		Amount     decimal.Decimal
		CategoryID int64
		Type       TransactionType
		RawType    string
	}
)

var (
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidDate            = errors.New("invalid date")
	ErrEmptyName              = errors.New("empty name")
	ErrNoData                 = errors.New("no data")
	ErrInvalidID              = errors.New("id must be positive")
	ErrNegativeAmount         = errors.New("amount must not be negative")
)

// ParseTransactionType trims and lower-cases s before matching it against the
// two known types.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan accepts the shapes the sqlite driver produces for DATE columns: a
// time.Time when the declared type is visible, otherwise the stored text.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores dates as ISO text so strftime can read them.
func (d Date) Value() (driver.Value, error) {
	return d.Format(DateLayout), nil
}

func (u User) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("user_id %d: %w", u.ID, ErrInvalidID)
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("category_id %d: %w", c.ID, ErrInvalidID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Validate rejects non-positive keys and negative amounts; the type carries
// the direction of money.
func (t Transaction) Validate() error {
	for _, k := range []struct {
		name string
		id   int64
	}{{"transaction_id", t.ID}, {"user_id", t.UserID}, {"category", t.CategoryID}} {
		if k.id <= 0 {
			return fmt.Errorf("%s %d: %w", k.name, k.id, ErrInvalidID)
		}
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount %s: %w", t.Amount, ErrNegativeAmount)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTransactionType, t.Type)
	}
	return nil
}

// StoredType is the text written to the type column: the source spelling when
// known, the normalized value otherwise.
func (t Transaction) StoredType() string {
	if t.RawType != "" {
		return t.RawType
	}
	return string(t.Type)
}
