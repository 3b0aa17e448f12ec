package recurrence

import (
	"fmt"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: use HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Occurrence is one concrete instance of an event. Series is the ID of
// the originating recurring series, or empty for a one-off event.
type Occurrence struct {
	Series string    `json:"series_id,omitempty"`
	Index  int       `json:"index"`
	Date   string    `json:"date"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Materialize combines a date with a local time of day in loc and adds
// the duration. The start is built from calendar fields, so its wall-clock
// date and time in loc are exactly date+tod whatever the process zone is.
func Materialize(date calendar.DateKey, tod TimeOfDay, duration time.Duration, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start = time.Date(date.Year, date.Month, date.Day, tod.Hour, tod.Minute, 0, 0, loc)
	return start, start.Add(duration)
}

// ResolveDuration picks the duration of an event. A positive duration
// always wins; the explicit end instant is only a fallback used when no
// duration was given, in which case the duration is end - start.
func ResolveDuration(start time.Time, durationMinutes int, end *time.Time) (time.Duration, error) {
	if durationMinutes > 0 {
		return time.Duration(durationMinutes) * time.Minute, nil
	}
	if end == nil {
		return 0, ErrInvalidDuration
	}
	d := end.Sub(start)
	if d <= 0 {
		return 0, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidDuration, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return d, nil
}

// ResolveEndTime derives a duration from a local end time of day on the
// same date as start. An end time at or before the start time is taken to
// fall on the next day.
func ResolveEndTime(start time.Time, endTOD TimeOfDay) time.Duration {
	end := time.Date(start.Year(), start.Month(), start.Day(), endTOD.Hour, endTOD.Minute, 0, 0, start.Location())
	if !end.After(start) {
		end = time.Date(start.Year(), start.Month(), start.Day()+1, endTOD.Hour, endTOD.Minute, 0, 0, start.Location())
	}
	return end.Sub(start)
}

// Expand generates and materializes every occurrence of d, in order. The
// location of d.Start is the local zone of each occurrence.
func Expand(d Definition, seriesID string) []Occurrence {
	dates := Generate(d)
	tod := d.TimeOfDay()
	dur := d.Duration()
	loc := d.Start.Location()

	out := make([]Occurrence, 0, len(dates))
	for i, date := range dates {
		start, end := Materialize(date, tod, dur, loc)
		out = append(out, Occurrence{
			Series: seriesID,
			Index:  i + 1,
			Date:   date.String(),
			Start:  start,
			End:    end,
		})
	}
	return out
}
