package server

import (
	"context"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerRollingTools() {
	logging.Debug("Registering tool", "name", "get_rolling_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_rolling_stats",
		Description: `Get trailing 7-day and 10-day distance and duration totals for each day with activities.

Use when:
- User asks "How much have I been running lately?" or "Is my load going up?"
- User wants the training load trend shown on the dashboard

Parameters:
- start_date (string): Only return days on or after this date, YYYY-MM-DD. Earlier activities still count toward the windows.
- last_days (integer): Only return the most recent N days with activities. Default: all.

Returns: Days ascending with distance_7d (km), duration_7d (minutes), distance_10d and duration_10d (null until ten days of history exist), plus load insights.

Example: {"start_date": "2024-01-01"} or {"last_days": 14}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Rolling Stats",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getRollingStats)
}

type GetRollingStatsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"Only return days on or after this date in YYYY-MM-DD format."`
	LastDays  int    `json:"last_days,omitempty" jsonschema:"Only return the most recent N days with activities. Leave empty for all days."`
}

type GetRollingStatsOutput struct {
	Days             []dashboard.RollingStat `json:"days"`
	Latest           *dashboard.RollingStat  `json:"latest,omitempty"`
	Insights         []Insight               `json:"insights,omitempty"`
	SuggestedActions []SuggestedAction       `json:"suggested_actions,omitempty"`
}

func (s *Server) getRollingStats(ctx context.Context, req *mcp.CallToolRequest, input GetRollingStatsInput) (*mcp.CallToolResult, GetRollingStatsOutput, error) {
	logging.Info("MCP tool call", "tool", "get_rolling_stats", "start_date", input.StartDate, "last_days", input.LastDays)

	filter, err := dashboard.ParseFilter(nil, nil, input.StartDate)
	if err != nil {
		return nil, GetRollingStatsOutput{}, Classify("rolling stats", err)
	}
	if input.LastDays < 0 {
		return nil, GetRollingStatsOutput{}, NewInvalidInputError("last_days must not be negative")
	}

	days, err := s.dashboard.RollingStats(ctx, filter.StartDate)
	if err != nil {
		logging.Error("get_rolling_stats failed", "error", err)
		return nil, GetRollingStatsOutput{}, Classify("rolling stats", err)
	}

	if input.LastDays > 0 && len(days) > input.LastDays {
		days = days[len(days)-input.LastDays:]
	}

	output := GetRollingStatsOutput{
		Days:             days,
		SuggestedActions: SuggestNextActions("rolling"),
	}
	if len(days) > 0 {
		latest := days[len(days)-1]
		output.Latest = &latest
		output.Insights = trainingLoadInsights(latest)
	}

	logging.Info("MCP tool completed", "tool", "get_rolling_stats", "days", len(days))
	if logging.IsVerbose() {
		logging.Debug("MCP response", "tool", "get_rolling_stats", "output", logging.ToJSON(output))
	}
	return nil, output, nil
}
