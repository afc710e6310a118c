package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date used on every external surface.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidDateRange, s)
	}
	return t, nil
}

const secondsPerDay = 24 * 60 * 60

// Nights counts the nights in [checkIn, checkOut); <= 0 for an invalid range.
// Counted on Unix seconds, which do not saturate like time.Duration.
func Nights(checkIn, checkOut time.Time) int {
	return int((Day(checkOut).Unix() - Day(checkIn).Unix()) / secondsPerDay)
}

// ValidateRange rejects zero dates, ranges where checkOut is not after checkIn
// and stays longer than MaxStayNights.
func ValidateRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return fmt.Errorf("%w: check-in and check-out are required", ErrInvalidDateRange)
	}
	n := Nights(checkIn, checkOut)
	if n <= 0 {
		return fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidDateRange, checkOut.Format(DateLayout), checkIn.Format(DateLayout))
	}
	if n > MaxStayNights {
		return fmt.Errorf("%w: stay of %d nights exceeds %d", ErrInvalidDateRange, n, MaxStayNights)
	}
	return nil
}

// EachNight calls fn for every night in [checkIn, checkOut).
func EachNight(checkIn, checkOut time.Time, fn func(night time.Time)) {
	end := Day(checkOut)
	for d := Day(checkIn); d.Before(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
