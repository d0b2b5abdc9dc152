// Package pricing computes the total price for a whole-week stay. The
// result is exact integer arithmetic in whole currency units; display
// formatting belongs to the notification layer.
package pricing

import "github.com/rsolheim/unitbooking/internal/dateutil"

const (
	// StandardWeekRate applies to stays shorter than LongStayWeeks.
	StandardWeekRate int64 = 2500
	// LongStayWeekRate applies from LongStayWeeks on.
	LongStayWeekRate int64 = 2000
	// LongStayWeeks is the threshold at which the discounted rate kicks in.
	LongStayWeeks = 4
)

// Weeks returns the number of whole weeks covered by [checkin, checkout).
// ok is false when the range is not whole-week aligned.
func Weeks(checkin, checkout string) (int, bool) {
	if !dateutil.IsWholeWeeks(checkin, checkout) {
		return 0, false
	}
	nights, _ := dateutil.NightsBetween(checkin, checkout)
	return nights / 7, true
}

// ForRange returns the total price for the range, or ok=false when the
// range carries no price (not whole-week aligned).
func ForRange(checkin, checkout string) (int64, bool) {
	weeks, ok := Weeks(checkin, checkout)
	if !ok {
		return 0, false
	}
	return ForWeeks(weeks), true
}

// ForWeeks prices a whole-week duration using the tiered weekly rate.
func ForWeeks(weeks int) int64 {
	rate := StandardWeekRate
	if weeks >= LongStayWeeks {
		rate = LongStayWeekRate
	}
	return int64(weeks) * rate
}
