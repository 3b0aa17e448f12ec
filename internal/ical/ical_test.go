package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

var stamp = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHolidays(t *testing.T) {
	entries := []holiday.Entry{
		{Date: calendar.NewDateKey(2025, time.August, 17), Name: "Independence Day", LocalName: "Hari Kemerdekaan", Source: holiday.SourceRemote},
		{Date: calendar.NewDateKey(2025, time.April, 20), Name: holiday.NameEaster, Source: holiday.SourceEaster},
	}

	out := Holidays("ID", holiday.SingleYear(2025), entries, stamp)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"DTSTART;VALUE=DATE:20250817",
		"DTEND;VALUE=DATE:20250818",
		"SUMMARY:Independence Day",
		"DESCRIPTION:Hari Kemerdekaan",
		"CATEGORIES:computed-easter",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	// UIDs are stable across renders.
	if again := Holidays("ID", holiday.SingleYear(2025), entries, stamp); again != out {
		t.Error("rendering is not deterministic")
	}
}

func TestOccurrences(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	def := recurrence.Definition{
		Start:           time.Date(2025, 9, 1, 10, 30, 0, 0, loc),
		Weekdays:        []time.Weekday{time.Monday},
		DurationMinutes: 90,
		MaxCount:        3,
	}
	occ := recurrence.Expand(def, "s1")

	out := Occurrences("s1", "Calculus I", occ, stamp)

	if n := strings.Count(out, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("expected 3 events, got %d", n)
	}
	for _, want := range []string{
		"DTSTART:20250901T153000Z",
		"DTEND:20250901T170000Z",
		"DTSTART:20250915T153000Z",
		"SUMMARY:Calculus I",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
