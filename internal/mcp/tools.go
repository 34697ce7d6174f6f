package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/reptrack/internal/schedule"
)

// --- Tool definitions ---

var toolGetTodayWorkouts = mcp.NewTool("get_today_workouts",
	mcp.WithDescription("List today's assigned exercises with target, completed and remaining reps."),
)

var toolGetReminders = mcp.NewTool("get_reminders",
	mcp.WithDescription("List today's exercises that are not yet completed, with the reps still to do."),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Month calendar of assigned workouts grouped by day, with days_in_month and start_weekday (Monday = 0)."),
	mcp.WithString("month", mcp.Description("Month as YYYY-MM. Defaults to the current month.")),
)

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("The workout session in progress: exercise, current reps, target, stage and last joint angle. Reports active=false when idle."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with IDs and descriptions."),
)

// --- Tool handlers ---

func (h *handlers) getTodayWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.ds.TodayWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_today_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pending, err := h.ds.Reminders(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_reminders", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if len(pending) == 0 {
		return mcp.NewToolResultText("All of today's workouts are completed."), nil
	}
	return jsonResult(pending)
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	month := req.GetString("month", "")
	cal, err := h.ds.Calendar(ctx, UserIDFromContext(ctx), month)
	if errors.Is(err, schedule.ErrInvalidMonth) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(cal)
}

func (h *handlers) getActiveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.ds.ActiveSession(ctx)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if s == nil {
		return jsonResult(map[string]any{"active": false})
	}
	return jsonResult(map[string]any{
		"active":         true,
		"session":        s,
		"remaining_reps": s.RemainingReps(),
	})
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
