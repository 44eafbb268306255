// Package cache holds the client-side copy of the user's calendar events.
// It is the single source the UI reads from; the server is consulted only
// through explicit fetches and mutations.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/s153756/My-Friend-Calendar/client"
)

// Cache is an in-memory event store keyed by event ID, preserving insertion
// order. Lookup and iteration order can never drift apart because one
// structure backs both.
type Cache struct {
	mu      sync.Mutex
	events  *orderedmap.OrderedMap[string, client.CalendarEvent]
	loading bool
	loadErr error
}

func New() *Cache {
	return &Cache{events: orderedmap.New[string, client.CalendarEvent]()}
}

// Replace swaps the entire contents for a fresh server snapshot. The previous
// contents are discarded, not merged.
func (c *Cache) Replace(events []client.CalendarEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = orderedmap.New[string, client.CalendarEvent]()
	for _, ev := range events {
		c.events.Set(ev.ID, ev)
	}
	c.loading = false
	c.loadErr = nil
}

// Add inserts or overwrites one event. Overwriting keeps the event's original
// position.
func (c *Cache) Add(ev client.CalendarEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.Set(ev.ID, ev)
}

// AddOptimistic inserts an event that has not been persisted yet, assigning a
// client-side UUID when it carries no ID. The assigned ID is returned so the
// caller can later Promote or Delete the placeholder.
func (c *Cache) AddOptimistic(ev client.CalendarEvent) string {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	c.Add(ev)
	return ev.ID
}

// Promote replaces an optimistic placeholder with the server's canonical
// copy. The placeholder's position is not kept; the canonical event re-enters
// at the end like any fresh insert.
func (c *Cache) Promote(tempID string, ev client.CalendarEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.Delete(tempID)
	c.events.Set(ev.ID, ev)
}

// Update merges a partial patch into an existing event. Unknown IDs are a
// no-op; a patch must never conjure an event the server has not shown us.
// When the patch carries no UpdatedAt, the merge stamps the current time.
func (c *Cache) Update(id string, patch client.EventPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev, ok := c.events.Get(id)
	if !ok {
		return
	}
	applyPatch(&ev, patch)
	c.events.Set(id, ev)
}

// Delete removes one event. Unknown IDs are a no-op.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events.Delete(id)
}

// Clear empties the store and resets the loading state. Called on identity
// loss so no stale events survive into the next session.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = orderedmap.New[string, client.CalendarEvent]()
	c.loading = false
	c.loadErr = nil
}

// Events materializes the current contents in insertion order.
func (c *Cache) Events() []client.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.CalendarEvent, 0, c.events.Len())
	for pair := c.events.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Get returns one event by ID.
func (c *Cache) Get(id string) (client.CalendarEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Get(id)
}

// Len reports the number of cached events.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.Len()
}

// Loading reports whether a fetch is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error recorded by the last failed fetch, if any.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *Cache) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = v
}

func (c *Cache) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadErr = err
	c.loading = false
}

func applyPatch(ev *client.CalendarEvent, patch client.EventPatch) {
	if patch.Title != nil {
		ev.Title = *patch.Title
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if patch.Location != nil {
		ev.Location = *patch.Location
	}
	if patch.Color != nil {
		ev.Color = *patch.Color
	}
	if patch.Status != nil {
		ev.Status = *patch.Status
	}
	if patch.RepeatRule != nil {
		ev.RepeatRule = *patch.RepeatRule
	}
	if patch.Reminder != nil {
		ev.Reminder = *patch.Reminder
	}
	if patch.AllDay != nil {
		ev.AllDay = *patch.AllDay
	}
	if patch.Start != nil {
		ev.Start = *patch.Start
	}
	if patch.End != nil {
		ev.End = *patch.End
	}
	if patch.Participants != nil {
		ev.Participants = *patch.Participants
	}
	if patch.UpdatedAt != nil {
		ev.UpdatedAt = *patch.UpdatedAt
	} else {
		ev.UpdatedAt = time.Now()
	}
}
