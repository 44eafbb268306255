package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/session"
)

//--------------------------------------------------------------------
// Calendar event operations
//--------------------------------------------------------------------

// ListEvents fetches every event visible to the current user. All gateway
// semantics apply: bearer attachment, one refresh-and-retry on 401.
func (c *Client) ListEvents(ctx context.Context) ([]CalendarEvent, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/calendar/events/", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list events: read response: %w", err)
	}
	var envelope eventListEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("list events: decode response: %w", err)
	}

	events := make([]CalendarEvent, 0, len(envelope.Events))
	for _, rec := range envelope.Events {
		events = append(events, rec.toEvent())
	}
	log.Debug().Int("count", len(events)).Msg("fetched events")
	return events, nil
}

// CreateEvent persists a new event and returns the server's canonical copy,
// server-assigned ID included. The caller must not treat the event as
// persisted until this returns.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (CalendarEvent, error) {
	if err := ValidateEvent(req); err != nil {
		return CalendarEvent{}, err
	}

	payload, err := json.Marshal(newCreateEventPayload(req))
	if err != nil {
		return CalendarEvent{}, err
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/calendar/events/create", payload)
	if err != nil {
		return CalendarEvent{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return CalendarEvent{}, c.apiError(resp)
	}

	var rec eventRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return CalendarEvent{}, fmt.Errorf("create event: decode response: %w", err)
	}
	c.store.AddNotification("Event created", session.KindSuccess)
	return rec.toEvent(), nil
}

// UpdateEvent applies a partial update to an existing event. Only non-nil
// patch fields are sent.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch EventPatch) (CalendarEvent, error) {
	if id == "" {
		return CalendarEvent{}, fmt.Errorf("update event: empty id")
	}
	fields := patchEventPayload(patch)
	if len(fields) == 0 {
		return CalendarEvent{}, fmt.Errorf("update event: empty patch")
	}
	if err := ValidatePatch(patch); err != nil {
		return CalendarEvent{}, err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return CalendarEvent{}, err
	}
	resp, err := c.send(ctx, http.MethodPatch, "/api/calendar/events/"+url.PathEscape(id), payload)
	if err != nil {
		return CalendarEvent{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return CalendarEvent{}, c.apiError(resp)
	}

	var rec eventRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return CalendarEvent{}, fmt.Errorf("update event: decode response: %w", err)
	}
	c.store.AddNotification("Event updated", session.KindSuccess)
	return rec.toEvent(), nil
}
