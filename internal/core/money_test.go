package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"-200", "-200", true},
		{" 2.50 ", "2.5", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":        "0.00",
		"12.5":     "12.50",
		"1234.5":   "1,234.50",
		"-1234.5":  "-1,234.50",
		"1000000":  "1,000,000.00",
		"999.999":  "1,000.00",
		"-0.001":   "0.00",
		"50000":    "50,000.00",
		"123456.7": "123,456.70",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNullAmount(t *testing.T) {
	if got := FormatNullAmount(decimal.NullDecimal{}); got != "n/a" {
		t.Fatalf("null got %q", got)
	}
	if got := FormatNullAmount(decimal.NewNullDecimal(decimal.NewFromInt(150))); got != "150.00" {
		t.Fatalf("valid got %q", got)
	}
}
