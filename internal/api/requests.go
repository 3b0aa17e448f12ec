package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// RecurrenceRequest is the body of POST /api/v1/recurrences/preview and
// POST /api/v1/series.
//
// The start is an ISO-8601 instant. Without an offset it is read as wall
// clock time in Timezone (or the server default). The duration comes from
// DurationMinutes, else EndTime (HH:MM local), else End (an instant).
// Either RRule or the Weekdays/IntervalWeeks/MaxCount/Until fields
// describe the pattern.
type RecurrenceRequest struct {
	Title           string `json:"title" validate:"omitempty,max=200"`
	Start           string `json:"start" validate:"required"`
	Timezone        string `json:"timezone" validate:"omitempty,timezone"`
	Weekdays        []int  `json:"weekdays" validate:"omitempty,max=7,dive,min=0,max=6"`
	IntervalWeeks   int    `json:"interval_weeks"` // below 1 means weekly
	DurationMinutes int    `json:"duration_minutes" validate:"min=0,max=10080"`
	EndTime         string `json:"end_time" validate:"omitempty,datetime=15:04"`
	End             string `json:"end" validate:"omitempty"`
	MaxCount        int    `json:"max_count" validate:"min=0,max=10000"`
	Until           string `json:"until" validate:"omitempty,datetime=2006-01-02"`
	RRule           string `json:"rrule" validate:"omitempty,max=500"`
}

var errRRuleConflict = errors.New("rrule cannot be combined with weekdays, interval_weeks, max_count or until")

// localLayouts are accepted start/end layouts without an offset.
var localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseInstant parses an RFC 3339 instant, re-expressed in loc, or a local
// date-time interpreted in loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 date-time", calendar.ErrInvalidDate, s)
}

// Definition converts a validated request into a recurrence definition.
func (req RecurrenceRequest) Definition(defaultLoc *time.Location) (recurrence.Definition, error) {
	loc := defaultLoc
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return recurrence.Definition{}, fmt.Errorf("timezone %q: %w", req.Timezone, err)
		}
		loc = l
	}

	start, err := parseInstant(req.Start, loc)
	if err != nil {
		return recurrence.Definition{}, fmt.Errorf("start: %w", err)
	}

	var def recurrence.Definition
	if req.RRule != "" {
		if len(req.Weekdays) > 0 || req.IntervalWeeks != 0 || req.MaxCount != 0 || req.Until != "" {
			return recurrence.Definition{}, errRRuleConflict
		}
		if def, err = recurrence.FromRRule(req.RRule, start); err != nil {
			return recurrence.Definition{}, err
		}
	} else {
		def = recurrence.Definition{
			Start:         start,
			IntervalWeeks: req.IntervalWeeks,
			MaxCount:      req.MaxCount,
		}
		for _, wd := range req.Weekdays {
			def.Weekdays = append(def.Weekdays, time.Weekday(wd))
		}
		if req.Until != "" {
			until, err := calendar.ParseDateKey(req.Until)
			if err != nil {
				return recurrence.Definition{}, fmt.Errorf("until: %w", err)
			}
			def.Until = &until
		}
	}

	if def.DurationMinutes, err = req.durationMinutes(start, loc); err != nil {
		return recurrence.Definition{}, err
	}

	if err := def.Validate(); err != nil {
		return recurrence.Definition{}, err
	}
	return def, nil
}

func (req RecurrenceRequest) durationMinutes(start time.Time, loc *time.Location) (int, error) {
	if req.DurationMinutes > 0 {
		return req.DurationMinutes, nil
	}

	var d time.Duration
	switch {
	case req.EndTime != "":
		tod, err := recurrence.ParseTimeOfDay(req.EndTime)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", recurrence.ErrInvalidDuration, err)
		}
		d = recurrence.ResolveEndTime(start, tod)
	default:
		var end *time.Time
		if req.End != "" {
			t, err := parseInstant(req.End, loc)
			if err != nil {
				return 0, fmt.Errorf("end: %w", err)
			}
			end = &t
		}
		resolved, err := recurrence.ResolveDuration(start, 0, end)
		if err != nil {
			return 0, err
		}
		d = resolved
	}

	minutes := int(d / time.Minute)
	if minutes < 1 {
		return 0, fmt.Errorf("%w: event must last at least one minute", recurrence.ErrInvalidDuration)
	}
	return minutes, nil
}

// isValidationError reports whether err stems from bad client input.
func isValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve) ||
		errors.Is(err, errRRuleConflict) ||
		errors.Is(err, calendar.ErrInvalidDate) ||
		errors.Is(err, recurrence.ErrNoBound) ||
		errors.Is(err, recurrence.ErrBothBounds) ||
		errors.Is(err, recurrence.ErrInvalidCount) ||
		errors.Is(err, recurrence.ErrInvalidDuration) ||
		errors.Is(err, recurrence.ErrInvalidWeekday) ||
		errors.Is(err, recurrence.ErrMissingStart) ||
		errors.Is(err, recurrence.ErrUnsupportedRule)
}
