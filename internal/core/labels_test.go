package core

import (
	"testing"
	"time"
)

func TestWeekdayNamesCoverEveryDay(t *testing.T) {
	for n := 0; n < 7; n++ {
		name, ok := WeekdayName(n)
		if !ok || name == "" {
			t.Fatalf("weekday %d has no label", n)
		}
		if name != time.Weekday(n).String() {
			t.Fatalf("weekday %d = %q, want %q", n, name, time.Weekday(n))
		}
	}
	if _, ok := WeekdayName(7); ok {
		t.Fatalf("weekday 7 should be rejected")
	}
	if _, ok := WeekdayName(-1); ok {
		t.Fatalf("weekday -1 should be rejected")
	}
}

func TestMonthNamesCoverEveryMonth(t *testing.T) {
	for n := 1; n <= 12; n++ {
		name, ok := MonthName(n)
		if !ok || name != time.Month(n).String() {
			t.Fatalf("month %d = %q, want %q", n, name, time.Month(n))
		}
	}
	for _, n := range []int{0, 13} {
		if _, ok := MonthName(n); ok {
			t.Fatalf("month %d should be rejected", n)
		}
	}
}

func TestQuarters(t *testing.T) {
	want := map[int]int{1: 1, 3: 1, 4: 2, 6: 2, 7: 3, 9: 3, 10: 4, 12: 4}
	for month, q := range want {
		if got := QuarterOf(month); got != q {
			t.Errorf("QuarterOf(%d) = %d, want %d", month, got, q)
		}
	}
	if l, ok := QuarterLabel(2); !ok || l != "Q2" {
		t.Fatalf("QuarterLabel(2) = %q", l)
	}
	if _, ok := QuarterLabel(5); ok {
		t.Fatalf("quarter 5 should be rejected")
	}
}
