package client

import (
	"time"

	"github.com/s153756/My-Friend-Calendar/session"
)

// ------------------------------
// Core domain types and payloads
// ------------------------------

// EventStatus is the lifecycle state of a calendar event.
type EventStatus string

const (
	StatusPlanned    EventStatus = "planned"
	StatusInProgress EventStatus = "in_progress"
	StatusCompleted  EventStatus = "completed"
	StatusCancelled  EventStatus = "cancelled"
)

// RepeatRule selects the recurrence frequency of an event.
type RepeatRule string

const (
	RepeatNone    RepeatRule = "none"
	RepeatDaily   RepeatRule = "daily"
	RepeatWeekly  RepeatRule = "weekly"
	RepeatMonthly RepeatRule = "monthly"
)

// Reminder selects how far ahead of the start a reminder fires.
type Reminder string

const (
	RemindNone       Reminder = "none"
	RemindHourBefore Reminder = "hour_before"
	RemindDayBefore  Reminder = "day_before"
	RemindWeekBefore Reminder = "week_before"
)

// CalendarEvent is the canonical in-memory event shape. IDs are
// server-assigned once persisted; optimistic pre-persistence events carry a
// client-assigned UUID. End is after Start, or equal-or-after for all-day
// events.
type CalendarEvent struct {
	ID             string
	Title          string
	Start          time.Time
	End            time.Time
	AllDay         bool
	Description    string
	Location       string
	Color          string
	Status         EventStatus
	RepeatRule     RepeatRule
	Reminder       Reminder
	Participants   []string
	CreatedByEmail string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateEventRequest holds the fields accepted by the create endpoint.
type CreateEventRequest struct {
	Title        string
	Description  string
	Location     string
	Color        string
	Status       EventStatus
	AllDay       bool
	Start        time.Time
	End          time.Time
	RepeatRule   RepeatRule
	Reminder     Reminder
	Participants []string
}

// EventPatch is a partial update; nil fields are left untouched. The same
// shape drives both the PATCH wire payload and in-cache merges.
type EventPatch struct {
	Title        *string
	Description  *string
	Location     *string
	Color        *string
	Status       *EventStatus
	RepeatRule   *RepeatRule
	Reminder     *Reminder
	AllDay       *bool
	Start        *time.Time
	End          *time.Time
	Participants *[]string
	UpdatedAt    *time.Time
}

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	RepeatedPassword string `json:"repeated_password"`
	FullName         string `json:"full_name"`
	DisplayName      string `json:"display_name"`
}

// loginResponse is shared by the login and register endpoints.
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}

// refreshResponse is the success body of POST /api/auth/refresh.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}
