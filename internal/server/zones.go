package server

import (
	"context"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerZoneTools() {
	logging.Debug("Registering tool", "name", "get_power_zones")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_power_zones",
		Description: `Get time spent in each power zone for one activity, relative to critical power (CP).

Zones: Z1 Easy (<80% CP), Z2 Moderate (80-90%), Z3 Threshold (90-100%), Z4 Interval (100-115%), Z5 Repetition (115-130%).

Use when:
- User asks "How hard was that run?" or "How much time did I spend at threshold?"

Parameters:
- id (integer, required): Activity ID.
- cp (number): Critical power in watts. Defaults to the CP recorded with the activity.
- laps (array of integer): Only count samples inside these laps.

Returns: Zones with watt bounds, seconds and percentage of all power samples, plus distribution insights.

Example: {"id": 42} or {"id": 42, "cp": 280, "laps": [2, 3]}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Power Zones",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getPowerZones)
}

// GetPowerZonesInput - input for the power zone breakdown of one activity
type GetPowerZonesInput struct {
	ID   int64   `json:"id" jsonschema:"Activity ID."`
	CP   float64 `json:"cp,omitempty" jsonschema:"Critical power in watts. Leave empty to use the CP recorded with the activity."`
	Laps []int64 `json:"laps,omitempty" jsonschema:"Lap numbers to include. Leave empty for the whole activity."`
}

type PowerZonesOutput struct {
	ActivityID       int64                 `json:"activity_id"`
	ActivityName     string                `json:"activity_name,omitempty"`
	CP               float64               `json:"critical_power_watts"`
	Zones            []dashboard.PowerZone `json:"zones"`
	TotalTime        string                `json:"total_time"`
	Insights         []Insight             `json:"insights,omitempty"`
	SuggestedActions []SuggestedAction     `json:"suggested_actions,omitempty"`
}

func (s *Server) getPowerZones(ctx context.Context, req *mcp.CallToolRequest, input GetPowerZonesInput) (*mcp.CallToolResult, PowerZonesOutput, error) {
	logging.Info("MCP tool call", "tool", "get_power_zones", "id", input.ID, "cp", input.CP, "laps", input.Laps)

	if input.ID <= 0 {
		return nil, PowerZonesOutput{}, NewInvalidInputError("id must be a positive activity ID")
	}
	if input.CP < 0 {
		return nil, PowerZonesOutput{}, NewInvalidInputError("cp must not be negative")
	}

	activity, err := s.dashboard.Activity(ctx, input.ID)
	if err != nil {
		return nil, PowerZonesOutput{}, Classify("power zones", err)
	}

	cp := input.CP
	if cp == 0 && activity.Ftp != nil {
		cp = *activity.Ftp
	}
	if cp <= 0 {
		return nil, PowerZonesOutput{}, NewInvalidInputErrorWithDetails(
			"no critical power recorded for this activity", "pass cp explicitly")
	}

	samples, err := s.dashboard.Timeseries(ctx, input.ID)
	if err != nil {
		return nil, PowerZonesOutput{}, Classify("power zones", err)
	}
	if len(input.Laps) > 0 {
		laps, err := s.dashboard.Laps(ctx, input.ID)
		if err != nil {
			return nil, PowerZonesOutput{}, Classify("power zones", err)
		}
		samples = dashboard.FilterByLaps(samples, laps, input.Laps)
	}

	zones := dashboard.PowerZones(samples, cp)
	if zones == nil {
		zones = []dashboard.PowerZone{}
	}

	var total int64
	for _, z := range zones {
		total += int64(z.Seconds)
	}

	output := PowerZonesOutput{
		ActivityID:       activity.ID,
		ActivityName:     activity.Name,
		CP:               cp,
		Zones:            zones,
		TotalTime:        dashboard.FormatDuration(total),
		Insights:         zoneInsights(zones),
		SuggestedActions: SuggestNextActions("zones"),
	}

	logging.Info("MCP tool completed", "tool", "get_power_zones", "zones", len(zones), "seconds", total)
	return nil, output, nil
}
