package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"findash/internal/source"
)

const (
	usersCSV        = "user_id,name,age,income\n1,Ann,30,50000\n2,Bob,41,20000\n"
	categoriesCSV   = "category_id,category_name,budget,is_income_allowed\n1,Food,5000,False\n2,Salary,0,True\n"
	transactionsCSV = "transaction_id,user_id,date,amount,category,type\n" +
		"1,1,2024-01-05,200,1,expense\n" +
		"2,1,2024-01-20,100,1,Expense\n" +
		"3,1,2024-01-31,50000,2,income\n"
)

func writeSource(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestReadDataset(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"users.csv":        usersCSV,
		"categories.csv":   categoriesCSV,
		"transactions.csv": transactionsCSV,
	})
	ds, err := New(dir, nil).Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds.Users) != 2 || len(ds.Categories) != 2 || len(ds.Transactions) != 3 {
		t.Fatalf("unexpected sizes: %d users, %d categories, %d transactions", len(ds.Users), len(ds.Categories), len(ds.Transactions))
	}
	if ds.Transactions[1].RawType != "Expense" {
		t.Fatalf("raw type not preserved: %q", ds.Transactions[1].RawType)
	}
}

func TestReadMissingFile(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"users.csv":      usersCSV,
		"categories.csv": categoriesCSV,
	})
	_, err := New(dir, nil).Read(context.Background())
	if !errors.Is(err, source.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestReadColumnMismatch(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"users.csv":        "user_id,name,income\n1,Ann,50000\n",
		"categories.csv":   categoriesCSV,
		"transactions.csv": transactionsCSV,
	})
	_, err := New(dir, nil).Read(context.Background())
	if !errors.Is(err, source.ErrColumnMismatch) {
		t.Fatalf("expected ErrColumnMismatch, got %v", err)
	}
}

func TestReadMalformedQuoting(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"users.csv":        "user_id,name,age,income\n1,\"Ann,30,50000\n",
		"categories.csv":   categoriesCSV,
		"transactions.csv": transactionsCSV,
	})
	_, err := New(dir, nil).Read(context.Background())
	if !errors.Is(err, source.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	var rerr *source.RecordError
	if !errors.As(err, &rerr) || rerr.Table != source.UsersTable {
		t.Fatalf("expected users RecordError, got %v", err)
	}
}

func TestReadCancelled(t *testing.T) {
	dir := writeSource(t, map[string]string{
		"users.csv":        usersCSV,
		"categories.csv":   categoriesCSV,
		"transactions.csv": transactionsCSV,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(dir, nil).Read(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
