package viewrange

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/s153756/My-Friend-Calendar/client"
)

// maxOccurrences caps expansion per event so a years-old daily event cannot
// flood a wide agenda window.
const maxOccurrences = 100

// Occurrences expands a repeating event into the concrete occurrences that
// overlap the window. Each occurrence keeps the source event's fields and
// duration; only Start and End move. The first occurrence is the event's own
// start, never earlier.
func Occurrences(ev client.CalendarEvent, r Range) []client.CalendarEvent {
	freq, ok := frequencyFor(ev.RepeatRule)
	if !ok {
		if r.Overlaps(ev.Start, ev.End) {
			return []client.CalendarEvent{ev}
		}
		return nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: ev.Start,
		Count:   maxOccurrences,
	})
	if err != nil {
		if r.Overlaps(ev.Start, ev.End) {
			return []client.CalendarEvent{ev}
		}
		return nil
	}

	duration := ev.End.Sub(ev.Start)
	// Widen the lower bound so an occurrence that started before the window
	// but spills into it is still found.
	starts := rule.Between(r.Start.Add(-duration), r.End, true)

	out := make([]client.CalendarEvent, 0, len(starts))
	for _, start := range starts {
		occ := ev
		occ.Start = start
		occ.End = start.Add(duration)
		if !r.Overlaps(occ.Start, occ.End) {
			continue
		}
		if !start.Equal(ev.Start) {
			occ.ID = occurrenceID(ev.ID, start)
		}
		out = append(out, occ)
	}
	return out
}

func frequencyFor(rule client.RepeatRule) (rrule.Frequency, bool) {
	switch rule {
	case client.RepeatDaily:
		return rrule.DAILY, true
	case client.RepeatWeekly:
		return rrule.WEEKLY, true
	case client.RepeatMonthly:
		return rrule.MONTHLY, true
	}
	return 0, false
}

// occurrenceID derives a stable synthetic ID for a non-first occurrence so
// view code can key on it without colliding with the source event.
func occurrenceID(base string, start time.Time) string {
	return fmt.Sprintf("%s@%s", base, start.Format("20060102T150405"))
}
