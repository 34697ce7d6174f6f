package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	workouts, err := h.ds.TodayWorkouts(ctx, uid)
	if err != nil {
		return nil, err
	}

	active, err := h.ds.ActiveSession(ctx)
	if err != nil {
		h.log.Warn("today: active session lookup failed", "error", err)
	}

	data, err := json.Marshal(map[string]any{
		"workouts":       workouts,
		"active_session": active,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
