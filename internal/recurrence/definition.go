// Package recurrence expands weekly-by-weekday recurrence definitions into
// concrete occurrence dates and materializes them into start/end instants.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// Validation errors. Callers can match them with errors.Is.
var (
	ErrNoBound         = errors.New("one of max count or until date is required")
	ErrBothBounds      = errors.New("max count and until date are mutually exclusive")
	ErrInvalidCount    = errors.New("max count must be positive")
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrInvalidWeekday  = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrMissingStart    = errors.New("start instant is required")
)

// Definition describes a recurring event. It is a value: build it once,
// validate it, and pass it to Generate. It is never mutated afterwards.
type Definition struct {
	// Start carries both the first date and the time of day. Its
	// location defines what "local" means for every occurrence.
	Start time.Time

	// Weekdays restricts occurrences to these days. Empty means
	// "the weekday of Start".
	Weekdays []time.Weekday

	// IntervalWeeks is the week step; values below 1 are treated as 1.
	IntervalWeeks int

	DurationMinutes int

	// Exactly one of MaxCount or Until must be set.
	MaxCount int
	Until    *calendar.DateKey
}

// Validate rejects definitions that cannot be expanded. It does not
// reject IntervalWeeks < 1; Generate clamps that to 1.
func (d Definition) Validate() error {
	if d.Start.IsZero() {
		return ErrMissingStart
	}
	if d.DurationMinutes <= 0 {
		return fmt.Errorf("%w: got %d minutes", ErrInvalidDuration, d.DurationMinutes)
	}
	for _, wd := range d.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(wd))
		}
	}

	hasCount := d.MaxCount != 0
	hasUntil := d.Until != nil
	switch {
	case hasCount && hasUntil:
		return ErrBothBounds
	case !hasCount && !hasUntil:
		return ErrNoBound
	case hasCount && d.MaxCount < 0:
		return fmt.Errorf("%w: got %d", ErrInvalidCount, d.MaxCount)
	}
	return nil
}

// Interval returns IntervalWeeks clamped to at least 1.
func (d Definition) Interval() int {
	if d.IntervalWeeks < 1 {
		return 1
	}
	return d.IntervalWeeks
}

// StartDate is the local calendar date of Start.
func (d Definition) StartDate() calendar.DateKey {
	return calendar.DateKeyOf(d.Start)
}

// TimeOfDay is the local wall-clock time of Start.
func (d Definition) TimeOfDay() TimeOfDay {
	return TimeOfDay{Hour: d.Start.Hour(), Minute: d.Start.Minute()}
}

// Duration returns DurationMinutes as a time.Duration.
func (d Definition) Duration() time.Duration {
	return time.Duration(d.DurationMinutes) * time.Minute
}

// weekdaySet returns the accepted weekdays as a lookup table, or nil when
// the definition uses the start weekday only.
func (d Definition) weekdaySet() *[7]bool {
	if len(d.Weekdays) == 0 {
		return nil
	}
	var set [7]bool
	for _, wd := range d.Weekdays {
		if wd >= time.Sunday && wd <= time.Saturday {
			set[wd] = true
		}
	}
	return &set
}
