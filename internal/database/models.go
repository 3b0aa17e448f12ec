package database

import (
	"fmt"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// Series is a stored recurring event definition.
type Series struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	StartAt         time.Time `json:"start"`    // first occurrence, local to Timezone
	Timezone        string    `json:"timezone"` // IANA zone name
	Weekdays        []int     `json:"weekdays"` // 0=Sunday through 6=Saturday
	IntervalWeeks   int       `json:"interval_weeks"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxCount        int       `json:"max_count,omitempty"` // 0 when bounded by Until
	Until           *string   `json:"until,omitempty"`     // YYYY-MM-DD, inclusive
	RRule           string    `json:"rrule"`
	Occurrences     int       `json:"occurrence_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSeries builds a Series row from a validated definition.
func NewSeries(id, title string, def recurrence.Definition) *Series {
	s := &Series{
		ID:              id,
		Title:           title,
		StartAt:         def.Start,
		Timezone:        def.Start.Location().String(),
		IntervalWeeks:   def.Interval(),
		DurationMinutes: def.DurationMinutes,
		MaxCount:        def.MaxCount,
		RRule:           def.RRule(),
	}
	for _, wd := range def.Weekdays {
		s.Weekdays = append(s.Weekdays, int(wd))
	}
	if def.Until != nil {
		u := def.Until.String()
		s.Until = &u
	}
	return s
}

// Definition rebuilds the recurrence definition, restoring the start
// instant in its original zone.
func (s *Series) Definition() (recurrence.Definition, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return recurrence.Definition{}, fmt.Errorf("series %s: load timezone %q: %w", s.ID, s.Timezone, err)
	}
	def := recurrence.Definition{
		Start:           s.StartAt.In(loc),
		IntervalWeeks:   s.IntervalWeeks,
		DurationMinutes: s.DurationMinutes,
		MaxCount:        s.MaxCount,
	}
	for _, wd := range s.Weekdays {
		def.Weekdays = append(def.Weekdays, time.Weekday(wd))
	}
	if s.Until != nil {
		until, err := calendar.ParseDateKey(*s.Until)
		if err != nil {
			return recurrence.Definition{}, fmt.Errorf("series %s: %w", s.ID, err)
		}
		def.Until = &until
	}
	return def, nil
}

// CachedHoliday is one raw provider response stored in SQLite.
type CachedHoliday struct {
	Region    string
	Year      int
	Body      []byte
	FetchedAt time.Time
}
