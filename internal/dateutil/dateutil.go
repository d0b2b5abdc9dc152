// Package dateutil provides the date and range checks every
// range-accepting operation runs before touching the store. Dates are
// ISO YYYY-MM-DD strings; day-of-week is evaluated in UTC so behaviour
// does not drift with the host timezone.
package dateutil

import "time"

const isoLayout = "2006-01-02"

// MinNights is the shortest stay any range may cover.
const MinNights = 7

// IsISODate reports whether s matches the literal YYYY-MM-DD pattern
// and parses as a calendar date. Non-conforming input is rejected, not
// coerced.
func IsISODate(s string) bool {
	if len(s) != len(isoLayout) {
		return false
	}
	_, err := time.Parse(isoLayout, s)
	return err == nil
}

// NightsBetween returns the whole-day difference b minus a. ok is false
// when either date is unparsable.
func NightsBetween(a, b string) (int, bool) {
	ta, err := time.Parse(isoLayout, a)
	if err != nil {
		return 0, false
	}
	tb, err := time.Parse(isoLayout, b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta) / (24 * time.Hour)), true
}

// IsMonday reports whether the ISO date falls on a Monday in UTC terms.
func IsMonday(s string) bool {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return false
	}
	return t.UTC().Weekday() == time.Monday
}

// IsWholeWeeks reports whether [a, b) covers at least one week and an
// exact multiple of seven nights.
func IsWholeWeeks(a, b string) bool {
	nights, ok := NightsBetween(a, b)
	return ok && nights >= MinNights && nights%7 == 0
}

// ValidateRange applies the canonical reservation shape policy: valid
// ISO dates, checkin before checkout, at least seven nights, whole
// weeks, both endpoints on a Monday. The same rule gates direct
// creation, updates, request submission and approval.
func ValidateRange(checkin, checkout string) error {
	if !IsISODate(checkin) || !IsISODate(checkout) {
		return ErrBadDate
	}
	nights, ok := NightsBetween(checkin, checkout)
	if !ok || nights < MinNights {
		return ErrTooShort
	}
	if !IsMonday(checkin) || !IsMonday(checkout) || nights%7 != 0 {
		return ErrNotWeekAligned
	}
	return nil
}
