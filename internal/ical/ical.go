// Package ical renders holiday lists and series occurrences as iCalendar
// (RFC 5545) documents.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// ContentType is the MIME type of the rendered documents.
const ContentType = "text/calendar; charset=utf-8"

const productID = "-//campus-calendar-api//Holidays and Schedules//EN"

// uidNamespace scopes the name-based UIDs, so the same holiday or
// occurrence keeps its UID across exports.
var uidNamespace = uuid.MustParse("5f2b8c1e-6a2d-4c53-9f0e-2d7c1b8a4e11")

func uid(parts ...any) string {
	return uuid.NewSHA1(uidNamespace, []byte(fmt.Sprint(parts...))).String() + "@campus-calendar-api"
}

func newCalendar(name string) *ics.Calendar {
	cal := ics.NewCalendarFor("campus-calendar-api")
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	cal.SetName(name)
	cal.SetXWRCalName(name)
	return cal
}

// Holidays renders entries as all-day, transparent events.
func Holidays(region string, years holiday.YearRange, entries []holiday.Entry, stamp time.Time) string {
	cal := newCalendar(fmt.Sprintf("Holidays %s %s", region, years))

	for _, e := range entries {
		ev := cal.AddEvent(uid(region, "|", e.Key()))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(e.Date.In(time.UTC))
		ev.SetAllDayEndAt(e.Date.AddDays(1).In(time.UTC))
		ev.SetSummary(e.Name)
		if e.LocalName != "" && e.LocalName != e.Name {
			ev.SetDescription(e.LocalName)
		}
		ev.AddCategory(string(e.Source))
		ev.SetProperty(ics.ComponentPropertyTransp, "TRANSPARENT")
	}
	return cal.Serialize()
}

// Occurrences renders one timed event per occurrence. Times are written
// in UTC so no VTIMEZONE block is needed.
func Occurrences(seriesID, title string, occ []recurrence.Occurrence, stamp time.Time) string {
	cal := newCalendar(title)

	for _, o := range occ {
		ev := cal.AddEvent(uid(seriesID, "|", o.Index))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(o.Start)
		ev.SetEndAt(o.End)
		ev.SetSummary(title)
		ev.SetDescription(fmt.Sprintf("Session %d", o.Index))
	}
	return cal.Serialize()
}
