package server

import (
	"context"
	"fmt"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts registers all MCP prompts for the server
func (s *Server) registerPrompts() {
	logging.Debug("Registering MCP prompts")

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "weekly_review",
		Description: "Review the last week of running with load trends and recommendations",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "start_date",
				Description: "First day of the week to review, YYYY-MM-DD. Defaults to seven days ago.",
				Required:    false,
			},
		},
	}, s.weeklyReviewPrompt)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "zone_analysis",
		Description: "Analyze the power zone distribution of one activity",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "id",
				Description: "Activity ID to analyze",
				Required:    true,
			},
		},
	}, s.zoneAnalysisPrompt)

	logging.Debug("MCP prompts registered", "count", 2)
}

// weeklyReviewPrompt generates a prompt for a weekly training review
func (s *Server) weeklyReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	startDate := s.now().AddDate(0, 0, -7).Format(dashboard.DateLayout)
	if req.Params.Arguments != nil {
		if d, ok := req.Params.Arguments["start_date"]; ok && d != "" {
			if _, err := dashboard.ParseDate(d); err != nil {
				return nil, Classify("weekly review", err)
			}
			startDate = d
		}
	}

	logging.Info("MCP prompt requested", "prompt", "weekly_review", "start_date", startDate)

	promptText := fmt.Sprintf(`Please review my running since %s.

Use the following tools to gather data:
1. **list_activities** with start_date="%s" to see every activity of the week
2. **get_rolling_stats** with start_date="%s" for the 7-day and 10-day load
3. **get_power_zones** for the key sessions to check intensity

Then provide:
- **Summary**: Activities completed, total distance and duration
- **Load Trend**: How the 7-day load compares with the 10-day window
- **Intensity**: Time spent easy versus hard based on power zones
- **Recovery Check**: Signs of overreaching or adequate recovery
- **Recommendations**: Suggestions for the coming week based on the data

Please be specific with numbers and use the actual data from the tools.`, startDate, startDate, startDate)

	return &mcp.GetPromptResult{
		Description: "Weekly training review prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}

// zoneAnalysisPrompt generates a prompt for power zone analysis of one activity
func (s *Server) zoneAnalysisPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var raw string
	if req.Params.Arguments != nil {
		raw = req.Params.Arguments["id"]
	}
	id, err := dashboard.ParseActivityID(raw)
	if err != nil {
		return nil, Classify("zone analysis", err)
	}

	logging.Info("MCP prompt requested", "prompt", "zone_analysis", "id", id)

	promptText := fmt.Sprintf(`Please analyze the intensity of activity %d.

Use the following tools to gather data:
1. **get_activity** with id=%d to see the laps and averages
2. **get_power_zones** with id=%d for the zone distribution
3. **get_power_zones** with id=%d and the work laps only, if the session had intervals

Then provide:
- **Zone Distribution**: Percentage of time in each zone (Z1-Z5)
- **Session Type**: Was this an easy run, a tempo, or an interval session?
- **Execution**: Did the work laps land in the intended zone?
- **Recommendations**: How should the next similar session be adjusted?`, id, id, id, id)

	return &mcp.GetPromptResult{
		Description: "Power zone analysis prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}
