package core

import (
	"fmt"
	"time"
)

// Static label tables for date parts. Weekday numbering follows the
// transactions_extended view: 0 = Sunday ... 6 = Saturday, which is also
// time.Weekday's numbering.

var weekdayNames = [7]string{
	time.Sunday:    "Sunday",
	time.Monday:    "Monday",
	time.Tuesday:   "Tuesday",
	time.Wednesday: "Wednesday",
	time.Thursday:  "Thursday",
	time.Friday:    "Friday",
	time.Saturday:  "Saturday",
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WeekdayName returns the label for a 0-based (Sunday first) weekday number.
func WeekdayName(n int) (string, bool) {
	if n < 0 || n >= len(weekdayNames) {
		return "", false
	}
	return weekdayNames[n], true
}

// MonthName returns the label for a 1-based month number.
func MonthName(n int) (string, bool) {
	if n < 1 || n > len(monthNames) {
		return "", false
	}
	return monthNames[n-1], true
}

// QuarterLabel returns "Q1".."Q4".
func QuarterLabel(q int) (string, bool) {
	if q < 1 || q > 4 {
		return "", false
	}
	return fmt.Sprintf("Q%d", q), true
}

// QuarterOf returns the 1-based quarter of a 1-based month.
func QuarterOf(month int) int {
	return (month + 2) / 3
}
