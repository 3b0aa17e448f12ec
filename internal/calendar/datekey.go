// Package calendar provides pure date arithmetic: calendar-date keys,
// Easter computation, and tabular Islamic calendar conversion.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when a date string is malformed or names a
// day that does not exist.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the ISO calendar-date layout used for every DateKey.
const DateLayout = "2006-01-02"

// DateKey is a calendar date with no time component and no zone.
//
// Two DateKeys are equal iff their fields are equal, so DateKey can be
// compared with == and used as a map key.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDateKey builds a DateKey, normalizing out-of-range days and months
// the same way time.Date does (e.g. Jan 32 becomes Feb 1).
func NewDateKey(year int, month time.Month, day int) DateKey {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDateKey parses a YYYY-MM-DD string. Impossible dates such as
// 2025-02-30 are rejected rather than normalized.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("%w: %q: use YYYY-MM-DD", ErrInvalidDate, s)
	}
	return DateKey{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// DateKeyOf returns the calendar date of t as seen in t's own location.
// It never converts to UTC first.
func DateKeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// DateKeyIn returns the calendar date of t as seen in loc.
func DateKeyIn(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.Local
	}
	return DateKeyOf(t.In(loc))
}

// IsZero reports whether k is the zero value.
func (k DateKey) IsZero() bool {
	return k == DateKey{}
}

// In returns midnight of k in loc.
func (k DateKey) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

// utc is used for day arithmetic; a UTC midnight never crosses a DST edge.
func (k DateKey) utc() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after k (n may be negative).
func (k DateKey) AddDays(n int) DateKey {
	return NewDateKey(k.Year, k.Month, k.Day+n)
}

// Weekday returns the day of the week of k.
func (k DateKey) Weekday() time.Weekday {
	return k.utc().Weekday()
}

// DaysSince returns the whole number of days from other to k.
func (k DateKey) DaysSince(other DateKey) int {
	// Unix seconds rather than Sub: a time.Duration overflows past ~292 years.
	return int((k.utc().Unix() - other.utc().Unix()) / 86400)
}

// Compare returns -1, 0 or +1 ordering k against other lexicographically
// on (year, month, day).
func (k DateKey) Compare(other DateKey) int {
	switch {
	case k.Year != other.Year:
		return cmpInt(k.Year, other.Year)
	case k.Month != other.Month:
		return cmpInt(int(k.Month), int(other.Month))
	default:
		return cmpInt(k.Day, other.Day)
	}
}

// Before reports whether k is strictly earlier than other.
func (k DateKey) Before(other DateKey) bool { return k.Compare(other) < 0 }

// After reports whether k is strictly later than other.
func (k DateKey) After(other DateKey) bool { return k.Compare(other) > 0 }

// String formats k as YYYY-MM-DD.
func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (k DateKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DateKey) UnmarshalText(b []byte) error {
	parsed, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
