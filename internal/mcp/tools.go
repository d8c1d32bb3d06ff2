package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/teamsync"
)

// parseDay validates a YYYY-MM-DD date. "today" maps to the current date.
func parseDay(s string) (string, error) {
	if s == "today" {
		return time.Now().Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return "", err
	}
	return s, nil
}

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List scheduled workout sessions. Returns every phase with its exercises, the date and the time slot."),
	mcp.WithString("date", mcp.Description("Only sessions on this date (YYYY-MM-DD or 'today'), ordered by time slot. Defaults to all sessions.")),
)

var toolListBlueprints = mcp.NewTool("list_blueprints",
	mcp.WithDescription("List reusable workout blueprints (templates) from the team library."),
)

var toolShareSession = mcp.NewTool("share_session",
	mcp.WithDescription("Create a team sync link for one scheduled session. Opening the link adds or replaces the session in the receiver's schedule."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolShareDay = mcp.NewTool("share_day",
	mcp.WithDescription("Create a team sync link for every session on a date."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD or 'today')")),
)

var toolShareBlueprint = mcp.NewTool("share_blueprint",
	mcp.WithDescription("Create a team sync link for a blueprint. Opening the link adds it to the receiver's library."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Blueprint ID")),
)

var toolImportLink = mcp.NewTool("import_link",
	mcp.WithDescription("Import a team sync link received from another coach. Records with the same ID are replaced, others are added."),
	mcp.WithString("link", mcp.Required(), mcp.Description("The full link containing a wod, day or blueprint parameter")),
)

// --- Tool handlers ---

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date != "" {
		var err error
		if date, err = parseDay(date); err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
	}

	workouts, err := h.ds.Sessions(ctx, date)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listBlueprints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.Blueprints(ctx)
	if err != nil {
		h.log.Error("mcp list_blueprints", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) shareSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	return h.share(ctx, share.KindSingleSession, id)
}

func (h *handlers) shareDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	if date, err = parseDay(date); err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	return h.share(ctx, share.KindDayBatch, date)
}

func (h *handlers) shareBlueprint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	return h.share(ctx, share.KindBlueprint, id)
}

func (h *handlers) share(ctx context.Context, kind share.Kind, key string) (*mcp.CallToolResult, error) {
	link, err := h.ds.ShareLink(ctx, kind, key)
	switch {
	case errors.Is(err, share.ErrPayloadTooLarge):
		return mcp.NewToolResultError(teamsync.MessageTooLarge), nil
	case err != nil:
		h.log.Warn("mcp share", "kind", kind, "key", key, "error", err)
		return mcp.NewToolResultError("share failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(link), nil
}

func (h *handlers) importLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := req.RequireString("link")
	if err != nil {
		return mcp.NewToolResultError("link parameter is required"), nil
	}

	n, err := h.ds.ImportLink(ctx, link)
	if err != nil {
		h.log.Warn("mcp import_link", "error", err)
		if n != nil {
			return mcp.NewToolResultError(n.Message), nil
		}
		return mcp.NewToolResultError("import failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(n)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
