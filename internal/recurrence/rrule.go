package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// ErrUnsupportedRule is returned for RRULEs outside the weekly
// weekday/interval pattern this package expands.
var ErrUnsupportedRule = errors.New("unsupported recurrence rule")

var toRRuleWeekday = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// FromRRule converts an RRULE string into a Definition starting at start.
// Only FREQ=WEEKLY with optional INTERVAL, BYDAY (no ordinals) and exactly
// one of COUNT or UNTIL is accepted. The duration is left for the caller.
//
// Weeks are anchored on start, not on WKST; for INTERVAL=1 the two agree.
func FromRRule(rule string, start time.Time) (Definition, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")

	opt, err := rrule.StrToROptionInLocation(rule, start.Location())
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %v", ErrUnsupportedRule, err)
	}
	if opt.Freq != rrule.WEEKLY {
		return Definition{}, fmt.Errorf("%w: only FREQ=WEEKLY is supported", ErrUnsupportedRule)
	}
	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Bymonthday) > 0 ||
		len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return Definition{}, fmt.Errorf("%w: only INTERVAL, BYDAY, COUNT and UNTIL may be set", ErrUnsupportedRule)
	}

	def := Definition{
		Start:         start,
		IntervalWeeks: opt.Interval,
		MaxCount:      opt.Count,
	}

	for _, wd := range opt.Byweekday {
		if wd.N() != 0 {
			return Definition{}, fmt.Errorf("%w: ordinal BYDAY %s", ErrUnsupportedRule, wd.String())
		}
		// rrule-go numbers weekdays from Monday = 0
		def.Weekdays = append(def.Weekdays, time.Weekday((wd.Day()+1)%7))
	}

	if !opt.Until.IsZero() {
		until := calendar.DateKeyIn(opt.Until, start.Location())
		def.Until = &until
	}

	switch {
	case def.MaxCount > 0 && def.Until != nil:
		return Definition{}, ErrBothBounds
	case def.MaxCount == 0 && def.Until == nil:
		return Definition{}, ErrNoBound
	}

	return def, nil
}

// RRule renders d as an RRULE value (without the "RRULE:" prefix).
func (d Definition) RRule() string {
	opt := rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: d.Interval(),
		Count:    d.MaxCount,
	}
	for _, wd := range d.Weekdays {
		if wd >= time.Sunday && wd <= time.Saturday {
			opt.Byweekday = append(opt.Byweekday, toRRuleWeekday[wd])
		}
	}
	if d.Until != nil {
		// Inclusive through the end of the until date, expressed in UTC.
		end := time.Date(d.Until.Year, d.Until.Month, d.Until.Day, 23, 59, 59, 0, d.Start.Location())
		opt.Until = end.UTC()
	}
	return opt.RRuleString()
}
