// Package ics renders calendar events as an iCalendar document so they can
// be imported into other calendar applications.
package ics

import (
	"fmt"
	"io"

	ical "github.com/arran4/golang-ical"

	"github.com/s153756/My-Friend-Calendar/client"
)

const prodID = "-//My Friend Calendar//Client//EN"

// Export writes the events as a single VCALENDAR stream.
func Export(w io.Writer, events []client.CalendarEvent) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, ev := range events {
		if ev.ID == "" || ev.Start.IsZero() {
			continue
		}
		ve := cal.AddEvent(ev.ID)
		ve.SetSummary(ev.Title)
		ve.SetDtStampTime(ev.UpdatedAt)
		if ev.AllDay {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End)
		} else {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		if ev.Status == client.StatusCancelled {
			ve.SetStatus(ical.ObjectStatusCancelled)
		}
		if rule, ok := rruleFor(ev.RepeatRule); ok {
			ve.AddRrule(rule)
		}
		for _, p := range ev.Participants {
			ve.AddAttendee(p)
		}
	}
	return cal.SerializeTo(w)
}

// rruleFor maps the recurrence enum onto an RRULE line.
func rruleFor(rule client.RepeatRule) (string, bool) {
	switch rule {
	case client.RepeatDaily:
		return "FREQ=DAILY", true
	case client.RepeatWeekly:
		return "FREQ=WEEKLY", true
	case client.RepeatMonthly:
		return "FREQ=MONTHLY", true
	}
	return "", false
}

// ExportOne renders a single event; convenient for per-event download links.
func ExportOne(w io.Writer, ev client.CalendarEvent) error {
	if ev.ID == "" {
		return fmt.Errorf("ics export: event has no id")
	}
	return Export(w, []client.CalendarEvent{ev})
}
