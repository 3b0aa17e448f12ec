package recurrence

import "github.com/zapponejosh/campus-calendar-api/internal/calendar"

// MaxVisitedDays caps the day-by-day walk so pathological definitions
// (huge interval, tight count) still terminate.
const MaxVisitedDays = 10000

// Generate returns the ordered occurrence dates of d.
//
// With weekdays set, every date from the start date onward is visited and
// accepted when its weekday is in the set and the number of whole weeks
// since the start date is a multiple of the interval. Week 0 is anchored on
// the start date itself, not on a calendar-week boundary. Without
// weekdays, dates step by 7*interval days from the start date.
//
// Generation stops after MaxCount accepted dates, once a date passes
// Until (a date equal to Until is still accepted), or after MaxVisitedDays
// visited dates, whichever comes first. An Until before the start date
// yields an empty result. Generate does not validate d; call Validate
// first to reject unbounded definitions.
func Generate(d Definition) []calendar.DateKey {
	start := d.StartDate()
	interval := d.Interval()

	if d.Until != nil && d.Until.Before(start) {
		return []calendar.DateKey{}
	}
	if d.Until == nil && d.MaxCount <= 0 {
		return []calendar.DateKey{}
	}

	full := func(n int) bool {
		return d.MaxCount > 0 && n >= d.MaxCount
	}
	past := func(k calendar.DateKey) bool {
		return d.Until != nil && k.After(*d.Until)
	}

	out := make([]calendar.DateKey, 0, initialCap(d))

	set := d.weekdaySet()
	if set == nil {
		step := 7 * interval
		for i := 0; i < MaxVisitedDays && !full(len(out)); i++ {
			k := start.AddDays(i * step)
			if past(k) {
				break
			}
			out = append(out, k)
		}
		return out
	}

	for i := 0; i < MaxVisitedDays && !full(len(out)); i++ {
		k := start.AddDays(i)
		if past(k) {
			break
		}
		weekIndex := i / 7
		if set[k.Weekday()] && weekIndex%interval == 0 {
			out = append(out, k)
		}
	}
	return out
}

func initialCap(d Definition) int {
	if d.MaxCount > 0 && d.MaxCount < 512 {
		return d.MaxCount
	}
	return 16
}
