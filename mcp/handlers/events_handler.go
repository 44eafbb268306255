// Package handlers exposes calendar operations as MCP tools.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/s153756/My-Friend-Calendar/cache"
	"github.com/s153756/My-Friend-Calendar/client"
	"github.com/s153756/My-Friend-Calendar/viewrange"
)

// EventsHandler exposes the list_events, create_event and delete_event tools.
type EventsHandler struct {
	client *client.Client
	cache  *cache.Cache
}

func NewEventsHandler(c *client.Client, store *cache.Cache) *EventsHandler {
	return &EventsHandler{client: c, cache: store}
}

// RegisterTools registers all calendar tools on the server.
func (eh *EventsHandler) RegisterTools(s *server.MCPServer) error {
	listTool := mcp.NewTool("list_events",
		mcp.WithDescription("List calendar events. Optionally restrict to a view window: day, week, agenda (31 days) or month, anchored on a reference date."),
		mcp.WithString("view", mcp.Description("One of: day, week, agenda, month. Omit to list everything.")),
		mcp.WithString("date", mcp.Description("Anchor date for the view, RFC 3339 or YYYY-MM-DD. Defaults to today.")),
	)
	s.AddTool(listTool, eh.handleList)

	createTool := mcp.NewTool("create_event",
		mcp.WithDescription("Create a calendar event. Times are RFC 3339."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start time, RFC 3339")),
		mcp.WithString("end", mcp.Required(), mcp.Description("End time, RFC 3339")),
		mcp.WithBoolean("all_day", mcp.Description("All-day event")),
		mcp.WithString("description", mcp.Description("Free-text description")),
		mcp.WithString("location", mcp.Description("Location")),
		mcp.WithString("repeat_rule", mcp.Description("One of: none, daily, weekly, monthly")),
	)
	s.AddTool(createTool, eh.handleCreate)

	deleteTool := mcp.NewTool("delete_event",
		mcp.WithDescription("Remove a calendar event from the local event store by ID."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("The event ID")),
	)
	s.AddTool(deleteTool, eh.handleDelete)
	return nil
}

func (eh *EventsHandler) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events, err := eh.client.ListEvents(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list events failed: %v", err)), nil
	}
	eh.cache.Replace(events)

	if view, ok := req.GetArguments()["view"].(string); ok && view != "" {
		ref := time.Now()
		if raw, ok := req.GetArguments()["date"].(string); ok && raw != "" {
			parsed, err := parseDate(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			ref = parsed
		}
		r := viewrange.Compute(viewrange.Granularity(view), ref)
		events = viewrange.VisibleEvents(events, r)
	}

	b, _ := json.MarshalIndent(map[string]interface{}{
		"events": events,
		"count":  len(events),
	}, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (eh *EventsHandler) handleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	startRaw, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	endRaw, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start: %v", err)), nil
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end: %v", err)), nil
	}

	create := client.CreateEventRequest{Title: title, Start: start, End: end}
	args := req.GetArguments()
	if v, ok := args["all_day"].(bool); ok {
		create.AllDay = v
	}
	if v, ok := args["description"].(string); ok {
		create.Description = v
	}
	if v, ok := args["location"].(string); ok {
		create.Location = v
	}
	if v, ok := args["repeat_rule"].(string); ok && v != "" {
		create.RepeatRule = client.RepeatRule(v)
	}

	ev, err := eh.client.CreateEvent(ctx, create)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create event failed: %v", err)), nil
	}
	eh.cache.Add(ev)

	b, _ := json.MarshalIndent(ev, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (eh *EventsHandler) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := eh.cache.Get(id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown event %q", id)), nil
	}
	eh.cache.Delete(id)
	return mcp.NewToolResultText(fmt.Sprintf("event %s removed", id)), nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want RFC 3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
