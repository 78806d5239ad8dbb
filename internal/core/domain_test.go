package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{"expense", Expense, true},
		{" Expense ", Expense, true},
		{"INCOME", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnknownTransactionType) {
			t.Fatalf("%q expected ErrUnknownTransactionType, got %v", tc.in, err)
		}
	}
}

func TestDateScan(t *testing.T) {
	want := NewDate(2024, 1, 5)
	inputs := []any{
		"2024-01-05",
		[]byte("2024-01-05"),
		"2024-01-05 00:00:00",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d Date
		if err := d.Scan(in); err != nil {
			t.Fatalf("scan %v: %v", in, err)
		}
		if !d.Equal(want.Time) {
			t.Fatalf("scan %v: got %s, want %s", in, d, want)
		}
	}

	var d Date
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("scan nil: got %s err=%v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: NewDate(2024, 3, 9)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2024-03-09","z":null}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var back struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-03-09"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.D.String() != "2024-03-09" {
		t.Fatalf("round trip got %s", back.D)
	}
}

func TestMonthStart(t *testing.T) {
	if got := NewDate(2024, 2, 29).MonthStart().String(); got != "2024-02-01" {
		t.Fatalf("MonthStart = %s", got)
	}
}

func TestTransactionStoredType(t *testing.T) {
	tx := Transaction{Type: Expense, RawType: " Expense"}
	if tx.StoredType() != " Expense" {
		t.Fatalf("expected raw spelling, got %q", tx.StoredType())
	}
	tx.RawType = ""
	if tx.StoredType() != "expense" {
		t.Fatalf("expected normalized fallback, got %q", tx.StoredType())
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := func() Transaction {
		return Transaction{ID: 1, UserID: 1, CategoryID: 1, Date: NewDate(2024, 1, 5), Amount: decimal.NewFromInt(200), Type: Expense}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero id", func(tx *Transaction) { tx.ID = 0 }, ErrInvalidID},
		{"zero user", func(tx *Transaction) { tx.UserID = 0 }, ErrInvalidID},
		{"negative category", func(tx *Transaction) { tx.CategoryID = -3 }, ErrInvalidID},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"unknown type", func(tx *Transaction) { tx.Type = "refund" }, ErrUnknownTransactionType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid()
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}

	if err := (User{ID: 0, Name: "Zed"}).Validate(); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("user 0 accepted: %v", err)
	}
}
