// Package week contains calendar helpers for the weekly rotation.
// A week is identified by its Monday, stored as a civil date at midnight UTC.
package week

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for week starts.
const Layout = "2006-01-02"

// Date returns the civil date of t (in t's own location) as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Start returns the Monday of the week containing t.
func Start(t time.Time) time.Time {
	d := Date(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// IsMonday reports whether d falls on a Monday.
func IsMonday(d time.Time) bool {
	return d.Weekday() == time.Monday
}

// Add returns the week start n weeks after w (n may be negative).
func Add(w time.Time, n int) time.Time {
	return w.AddDate(0, 0, 7*n)
}

// Between returns the number of whole weeks from anchor to w, rounded toward
// negative infinity.
func Between(anchor, w time.Time) int {
	days := int(Date(w).Sub(Date(anchor)).Hours() / 24)
	return FloorDiv(days, 7)
}

// FloorDiv divides a by b rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a modulo n normalized into [0, n).
func Mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// Format renders a week start in Layout.
func Format(w time.Time) string {
	return w.Format(Layout)
}

// Parse parses a YYYY-MM-DD date and requires it to be a Monday.
func Parse(s string) (time.Time, error) {
	d, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week %q: expected YYYY-MM-DD", s)
	}
	if !IsMonday(d) {
		return time.Time{}, fmt.Errorf("week %s must be a Monday (got %s)", s, d.Weekday())
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD date without the Monday requirement.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}
