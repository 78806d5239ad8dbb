// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts from source text and
// formatting them for display.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign, since transaction amounts are signed.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-200")   -> -200, nil
//	ParseAmount("1.2.3")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with two decimals and a comma thousands separator,
// e.g. "-1,234.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatNullAmount renders an optional aggregate, "n/a" when absent.
func FormatNullAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return FormatAmount(d.Decimal)
}
