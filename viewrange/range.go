// Package viewrange computes the time window a calendar view displays and
// selects the cached events that fall inside it.
package viewrange

import (
	"time"

	"github.com/s153756/My-Friend-Calendar/client"
)

// Granularity names one of the calendar's view modes.
type Granularity string

const (
	Day    Granularity = "day"
	Week   Granularity = "week"
	Agenda Granularity = "agenda"
	Month  Granularity = "month"
)

// agendaDays is the length of the rolling agenda window.
const agendaDays = 31

// Range is an inclusive time window.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether an event intersects the window. Touching an edge
// counts: an event ending exactly at the window start is still visible.
func (r Range) Overlaps(start, end time.Time) bool {
	return !end.Before(r.Start) && !start.After(r.End)
}

// Compute returns the visible window for a view anchored at ref. Any
// unrecognized granularity falls back to the month view.
func Compute(g Granularity, ref time.Time) Range {
	switch g {
	case Day:
		start := startOfDay(ref)
		return Range{Start: start, End: endOfDay(start)}
	case Week:
		start := startOfWeek(ref)
		return Range{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
	case Agenda:
		start := startOfDay(ref)
		return Range{Start: start, End: endOfDay(start.AddDate(0, 0, agendaDays-1))}
	default:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return Range{Start: first, End: endOfDay(first.AddDate(0, 1, -1))}
	}
}

// VisibleEvents filters events down to those overlapping the window,
// expanding repeating events into their occurrences inside it. Input order is
// preserved; occurrences of one event stay adjacent.
func VisibleEvents(events []client.CalendarEvent, r Range) []client.CalendarEvent {
	var out []client.CalendarEvent
	for _, ev := range events {
		if ev.RepeatRule != "" && ev.RepeatRule != client.RepeatNone {
			out = append(out, Occurrences(ev, r)...)
			continue
		}
		if r.Overlaps(ev.Start, ev.End) {
			out = append(out, ev)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is the last representable millisecond of t's day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// startOfWeek is the Monday of t's week, at midnight.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
