package viewrange

import (
	"testing"
	"time"

	"github.com/s153756/My-Friend-Calendar/client"
)

func TestComputeDay(t *testing.T) {
	ref := time.Date(2026, 3, 4, 15, 30, 0, 0, time.Local)
	r := Compute(Day, ref)

	wantStart := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2026, 3, 4, 23, 59, 59, int(999*time.Millisecond), time.Local)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantEnd) {
		t.Fatalf("day range = [%v, %v], want [%v, %v]", r.Start, r.End, wantStart, wantEnd)
	}
}

func TestComputeWeekStartsOnMonday(t *testing.T) {
	// 2026-03-04 is a Wednesday; its week runs Mon 2026-03-02 .. Sun 2026-03-08.
	ref := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)
	r := Compute(Week, ref)

	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	if !r.Start.Equal(wantStart) {
		t.Fatalf("week start = %v, want Monday %v", r.Start, wantStart)
	}
	if r.End.Day() != 8 || r.End.Hour() != 23 {
		t.Fatalf("week end = %v, want Sunday night", r.End)
	}
}

func TestComputeWeekOnSunday(t *testing.T) {
	// A Sunday anchors to the Monday six days earlier, not the next day.
	ref := time.Date(2026, 3, 8, 9, 0, 0, 0, time.Local)
	r := Compute(Week, ref)
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	if !r.Start.Equal(wantStart) {
		t.Fatalf("week start = %v, want %v", r.Start, wantStart)
	}
}

func TestComputeAgendaIs31Days(t *testing.T) {
	ref := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)
	r := Compute(Agenda, ref)

	if !r.Start.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("agenda start = %v", r.Start)
	}
	wantLastDay := time.Date(2026, 4, 3, 0, 0, 0, 0, time.Local)
	if r.End.Year() != wantLastDay.Year() || r.End.YearDay() != wantLastDay.YearDay() {
		t.Fatalf("agenda end = %v, want the 31st day %v", r.End, wantLastDay)
	}
}

func TestComputeMonthSpansCalendarMonth(t *testing.T) {
	ref := time.Date(2026, 2, 14, 12, 0, 0, 0, time.Local)
	r := Compute(Month, ref)

	if !r.Start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("month start = %v", r.Start)
	}
	if r.End.Day() != 28 || r.End.Month() != time.February {
		t.Fatalf("month end = %v, want Feb 28th night", r.End)
	}
}

func TestComputeUnknownGranularityFallsBackToMonth(t *testing.T) {
	ref := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)
	if got, want := Compute("fortnight", ref), Compute(Month, ref); !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Fatalf("fallback range = %+v, want month %+v", got, want)
	}
}

func TestOverlapsIsEdgeInclusive(t *testing.T) {
	r := Range{
		Start: time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local),
		End:   time.Date(2026, 3, 4, 23, 59, 59, 0, time.Local),
	}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", r.Start.Add(time.Hour), r.Start.Add(2 * time.Hour), true},
		{"ends at range start", r.Start.Add(-time.Hour), r.Start, true},
		{"starts at range end", r.End, r.End.Add(time.Hour), true},
		{"spans whole range", r.Start.AddDate(0, 0, -2), r.End.AddDate(0, 0, 2), true},
		{"ends before", r.Start.Add(-2 * time.Hour), r.Start.Add(-time.Hour), false},
		{"starts after", r.End.Add(time.Hour), r.End.Add(2 * time.Hour), false},
	}
	for _, tc := range cases {
		if got := r.Overlaps(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestVisibleEventsFiltersAndPreservesOrder(t *testing.T) {
	r := Compute(Day, time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local))

	in := func(h int) time.Time { return time.Date(2026, 3, 4, h, 0, 0, 0, time.Local) }
	events := []client.CalendarEvent{
		{ID: "a", Title: "early", Start: in(8), End: in(9), RepeatRule: client.RepeatNone},
		{ID: "gone", Title: "yesterday", Start: in(8).AddDate(0, 0, -1), End: in(9).AddDate(0, 0, -1), RepeatRule: client.RepeatNone},
		{ID: "b", Title: "multi-day", Start: in(8).AddDate(0, 0, -1), End: in(9).AddDate(0, 0, 1), RepeatRule: client.RepeatNone},
	}

	got := VisibleEvents(events, r)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("visible = %+v, want [a b]", got)
	}
}
