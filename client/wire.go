package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// The backend speaks snake_case with a few shape ambiguities (numeric or
// string ids, bare array or {data: [...]} envelopes, naive or zoned
// timestamps). Everything is decoded here, at the boundary, into the one
// canonical CalendarEvent shape; the ambiguity never travels inward.

// createTimeLayout is the local-time format (no zone suffix) the create
// endpoint expects.
const createTimeLayout = "2006-01-02T15:04:05"

// eventID accepts either a JSON number or a JSON string.
type eventID string

func (id *eventID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = eventID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	*id = eventID(n.String())
	return nil
}

// apiTime accepts RFC 3339 instants as well as the backend's naive local
// timestamps.
type apiTime struct{ time.Time }

func (t *apiTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(createTimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("event time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// eventRecord mirrors one raw event as the list endpoint returns it.
type eventRecord struct {
	ID          eventID  `json:"id"`
	Title       string   `json:"title"`
	StartTime   apiTime  `json:"start_time"`
	EndTime     apiTime  `json:"end_time"`
	AllDay      bool     `json:"all_day"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Color       string   `json:"color"`
	Status      string   `json:"status"`
	RepeatRule  string   `json:"repeat_rule"`
	Reminder    string   `json:"reminder"`
	Owner       *struct {
		Email string `json:"email"`
	} `json:"owner"`
	Participants []string `json:"participants"`
	CreatedAt    apiTime  `json:"created_at"`
	UpdatedAt    apiTime  `json:"updated_at"`
}

func (r eventRecord) toEvent() CalendarEvent {
	ev := CalendarEvent{
		ID:           string(r.ID),
		Title:        r.Title,
		Start:        r.StartTime.Time,
		End:          r.EndTime.Time,
		AllDay:       r.AllDay,
		Description:  r.Description,
		Location:     r.Location,
		Color:        r.Color,
		Status:       EventStatus(r.Status),
		RepeatRule:   RepeatRule(r.RepeatRule),
		Reminder:     Reminder(r.Reminder),
		Participants: r.Participants,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
	if r.Owner != nil {
		ev.CreatedByEmail = r.Owner.Email
	}
	if ev.Status == "" {
		ev.Status = StatusPlanned
	}
	if ev.RepeatRule == "" {
		ev.RepeatRule = RepeatNone
	}
	if ev.Reminder == "" {
		ev.Reminder = RemindNone
	}
	return ev
}

// eventListEnvelope decodes both list response shapes: a bare array and an
// object wrapping the array under "data".
type eventListEnvelope struct {
	Events []eventRecord
}

func (e *eventListEnvelope) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(b, &e.Events)
	}
	var wrapped struct {
		Data []eventRecord `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	e.Events = wrapped.Data
	return nil
}

// createEventPayload is the create endpoint's wire shape: local-time
// formatted timestamps without a zone suffix.
type createEventPayload struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Location     string   `json:"location,omitempty"`
	Color        string   `json:"color,omitempty"`
	Status       string   `json:"status,omitempty"`
	AllDay       bool     `json:"all_day"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	RepeatRule   string   `json:"repeat_rule,omitempty"`
	Reminder     string   `json:"reminder,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

func newCreateEventPayload(req CreateEventRequest) createEventPayload {
	return createEventPayload{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Color:        req.Color,
		Status:       string(req.Status),
		AllDay:       req.AllDay,
		StartTime:    req.Start.Format(createTimeLayout),
		EndTime:      req.End.Format(createTimeLayout),
		RepeatRule:   string(req.RepeatRule),
		Reminder:     string(req.Reminder),
		Participants: req.Participants,
	}
}

// patchEventPayload is the PATCH wire shape: any subset of mutable fields,
// times as full ISO-8601 instants.
func patchEventPayload(patch EventPatch) map[string]any {
	out := make(map[string]any)
	if patch.Title != nil {
		out["title"] = *patch.Title
	}
	if patch.Description != nil {
		out["description"] = *patch.Description
	}
	if patch.Location != nil {
		out["location"] = *patch.Location
	}
	if patch.Color != nil {
		out["color"] = *patch.Color
	}
	if patch.Status != nil {
		out["status"] = string(*patch.Status)
	}
	if patch.RepeatRule != nil {
		out["repeat_rule"] = string(*patch.RepeatRule)
	}
	if patch.Reminder != nil {
		out["reminder"] = string(*patch.Reminder)
	}
	if patch.AllDay != nil {
		out["all_day"] = *patch.AllDay
	}
	if patch.Start != nil {
		out["start_time"] = patch.Start.Format(time.RFC3339)
	}
	if patch.End != nil {
		out["end_time"] = patch.End.Format(time.RFC3339)
	}
	if patch.Participants != nil {
		out["participants"] = *patch.Participants
	}
	return out
}
