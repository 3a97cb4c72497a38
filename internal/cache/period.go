package cache

import (
	"time"

	"github.com/dgnsrekt/mordoo/internal/reading"
)

// lastMillisecond is the nanosecond field of the last instant of a day.
const lastMillisecond = 999 * int(time.Millisecond)

// EndOfDay returns 23:59:59.999 on t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, lastMillisecond, t.Location())
}

// EndOfWeek returns the last instant of the Sunday closing t's ISO week.
func EndOfWeek(t time.Time) time.Time {
	daysToSunday := (7 - int(t.Weekday())) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d+daysToSunday, 23, 59, 59, lastMillisecond, t.Location())
}

// EndOfMonth returns the last instant of t's calendar month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	// Day 0 of the next month is the last day of this one
	return time.Date(y, m+1, 0, 23, 59, 59, lastMillisecond, t.Location())
}

// EndOfYear returns the last instant of December 31st of t's year.
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 23, 59, 59, lastMillisecond, t.Location())
}

// UntilEndOfDay returns the time left from t until EndOfDay(t).
func UntilEndOfDay(t time.Time) time.Duration {
	return EndOfDay(t).Sub(t)
}

// UntilEndOfWeek returns the time left from t until EndOfWeek(t).
func UntilEndOfWeek(t time.Time) time.Duration {
	return EndOfWeek(t).Sub(t)
}

// UntilEndOfMonth returns the time left from t until EndOfMonth(t).
func UntilEndOfMonth(t time.Time) time.Duration {
	return EndOfMonth(t).Sub(t)
}

// UntilEndOfYear returns the time left from t until EndOfYear(t).
func UntilEndOfYear(t time.Time) time.Duration {
	return EndOfYear(t).Sub(t)
}

// TTLFor returns the TTL that makes an entry written at t expire when the
// period containing t ends. Unknown periods get the daily TTL.
func TTLFor(period reading.Period, t time.Time) time.Duration {
	switch period {
	case reading.PeriodWeekly:
		return UntilEndOfWeek(t)
	case reading.PeriodMonthly:
		return UntilEndOfMonth(t)
	case reading.PeriodYearly:
		return UntilEndOfYear(t)
	default:
		return UntilEndOfDay(t)
	}
}

// PeriodOptions builds Options for a reading of kind that covers period,
// written at t.
func PeriodOptions(kind reading.Kind, period reading.Period, t time.Time) Options {
	return Options{
		TTL:       TTLFor(period, t),
		Namespace: kind.String(),
	}
}
