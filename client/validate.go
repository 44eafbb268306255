package client

import (
	"fmt"
	"regexp"
)

// Validation rules enforced client-side before anything reaches the wire.
// The server validates again; these exist so obviously bad input fails fast
// with a message the caller can show.

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

func validColor(color string) bool { return colorRegex.MatchString(color) }

func validStatus(s EventStatus) bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func validRepeatRule(r RepeatRule) bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

func validReminder(r Reminder) bool {
	switch r {
	case RemindNone, RemindHourBefore, RemindDayBefore, RemindWeekBefore:
		return true
	}
	return false
}

// ValidateEvent checks a create request. All-day events may start and end at
// the same instant; timed events must end strictly after they start.
func ValidateEvent(req CreateEventRequest) error {
	if req.Title == "" {
		return fmt.Errorf("event title is required")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("event start and end are required")
	}
	if req.AllDay {
		if req.End.Before(req.Start) {
			return fmt.Errorf("event end %s is before start %s", req.End, req.Start)
		}
	} else if !req.End.After(req.Start) {
		return fmt.Errorf("event end %s is not after start %s", req.End, req.Start)
	}
	if req.Color != "" && !validColor(req.Color) {
		return fmt.Errorf("invalid color %q, expected #RRGGBB", req.Color)
	}
	if req.Status != "" && !validStatus(req.Status) {
		return fmt.Errorf("invalid status %q", req.Status)
	}
	if req.RepeatRule != "" && !validRepeatRule(req.RepeatRule) {
		return fmt.Errorf("invalid repeat rule %q", req.RepeatRule)
	}
	if req.Reminder != "" && !validReminder(req.Reminder) {
		return fmt.Errorf("invalid reminder %q", req.Reminder)
	}
	for _, p := range req.Participants {
		if err := validateEmail(p); err != nil {
			return fmt.Errorf("participant: %w", err)
		}
	}
	return nil
}

// ValidatePatch checks the fields a partial update does carry.
func ValidatePatch(patch EventPatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return fmt.Errorf("event title cannot be cleared")
	}
	if patch.Start != nil && patch.End != nil && !patch.End.After(*patch.Start) {
		allDay := patch.AllDay != nil && *patch.AllDay
		if !(allDay && patch.End.Equal(*patch.Start)) {
			return fmt.Errorf("event end %s is not after start %s", *patch.End, *patch.Start)
		}
	}
	if patch.Color != nil && *patch.Color != "" && !validColor(*patch.Color) {
		return fmt.Errorf("invalid color %q, expected #RRGGBB", *patch.Color)
	}
	if patch.Status != nil && !validStatus(*patch.Status) {
		return fmt.Errorf("invalid status %q", *patch.Status)
	}
	if patch.RepeatRule != nil && !validRepeatRule(*patch.RepeatRule) {
		return fmt.Errorf("invalid repeat rule %q", *patch.RepeatRule)
	}
	if patch.Reminder != nil && !validReminder(*patch.Reminder) {
		return fmt.Errorf("invalid reminder %q", *patch.Reminder)
	}
	if patch.Participants != nil {
		for _, p := range *patch.Participants {
			if err := validateEmail(p); err != nil {
				return fmt.Errorf("participant: %w", err)
			}
		}
	}
	return nil
}
