package fees

import "time"

// NextPaymentDate computes the first payment date after the reference date.
// With a salary day it is the next occurrence of that day-of-month strictly
// after the reference date, clamped to the last day of shorter months; with
// no salary day it is a fixed term-based offset from the start date. The
// computation is calendar-date arithmetic in UTC, never instant-based.
func NextPaymentDate(startDate time.Time, termDays, salaryDay int) time.Time {
	reference := toDate(startDate)
	if salaryDay == 0 {
		return reference.AddDate(0, 0, termDays)
	}
	return nextOccurrence(reference, salaryDay)
}

// nextOccurrence returns the next day-of-month occurrence strictly after the
// given date. Day 31 in a 30-day month clamps to day 30, not an overflow
// into the following month.
func nextOccurrence(after time.Time, salaryDay int) time.Time {
	after = toDate(after)
	if salaryDay == 0 {
		return after.AddDate(0, 0, 30)
	}

	year, month, _ := after.Date()
	candidate := clampedDate(year, month, salaryDay)
	if candidate.After(after) {
		return candidate
	}

	next := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return clampedDate(next.Year(), next.Month(), salaryDay)
}

// clampedDate builds a date in the given month, pulling the day back to the
// month's last day when it would overflow.
func clampedDate(year int, month time.Month, day int) time.Time {
	last := daysInMonth(year, month)
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func toDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
