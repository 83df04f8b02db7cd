package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/multierr"
)

// ptr returns a pointer to the given value - useful for optional fields in structs
func ptr[T any](v T) *T {
	return &v
}

// Dashboard is the read model the MCP tools are served from
type Dashboard interface {
	ListActivities(ctx context.Context, f dashboard.Filter) ([]dashboard.Activity, error)
	Activity(ctx context.Context, id int64) (dashboard.Activity, error)
	ActivityDetail(ctx context.Context, id int64) (*dashboard.Detail, error)
	Timeseries(ctx context.Context, activityID int64) ([]dashboard.TimeseriesSample, error)
	Laps(ctx context.Context, activityID int64) ([]dashboard.Lap, error)
	RollingStats(ctx context.Context, startDate *time.Time) ([]dashboard.RollingStat, error)
	Tags(ctx context.Context) ([]string, error)
	Types(ctx context.Context) ([]string, error)
	TrainingSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error)
}

// Server wraps the MCP server and the dashboard it reads from
type Server struct {
	mcp       *mcp.Server
	dashboard Dashboard
	now       func() time.Time
}

// MCPServer returns the underlying MCP server (for use with HTTP/SSE transport)
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// New creates a new MCP server with activity query tools
func New(d Dashboard) *Server {
	logging.Info("MCP server initializing", "name", "stryd-dashboard", "version", "1.0.0")

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "stryd-dashboard",
		Version: "1.0.0",
	}, nil)

	s := &Server{
		mcp:       mcpServer,
		dashboard: d,
		now:       time.Now,
	}

	logging.Debug("Registering MCP tools")
	s.registerTools()
	s.registerRollingTools()
	s.registerZoneTools()

	logging.Debug("Registering MCP resources")
	s.registerResources()

	logging.Debug("Registering MCP prompts")
	s.registerPrompts()

	logging.Info("MCP server initialized", "tools_registered", 5, "resources_registered", 2, "prompts_registered", 2)
	return s
}

// Run starts the MCP server over stdio transport
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server starting")
	defer logging.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	logging.Debug("Registering tool", "name", "list_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_activities",
		Description: `List Stryd activities, newest first, filtered by tags, types and start date.

Use when:
- User asks "Show me my latest runs" or "What did I do since March?"
- User wants activities carrying a tag such as "Tempo" or "Race"

Parameters:
- tags (array of string): Keep activities carrying any of these tags (case-insensitive).
- types (array of string): Keep activities whose type is one of these.
- start_date (string): Keep activities on or after this date, YYYY-MM-DD.
- limit (integer): Number of activities to return. Default: 20, Max: 100.

Returns: Activities with id, name, type, date, distance, duration, pace, power, heart rate and tags.

Example: {"tags": ["Tempo"], "start_date": "2024-01-01", "limit": 10}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "List Activities",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.listActivities)

	logging.Debug("Registering tool", "name", "get_activity")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_activity",
		Description: `Get one activity with its laps and a summary of its per-second samples.

Use when:
- User asks about a specific run, its laps or its effort
- User wants to focus on selected laps of an interval session

Parameters:
- id (integer, required): Activity ID.
- laps (array of integer): Only summarise samples inside these laps.

Returns: Activity details, laps, sample and GPS point counts and averages over the selected samples.

Example: {"id": 42} or {"id": 42, "laps": [2, 4]}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Activity",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getActivity)

	logging.Debug("Registering tool", "name", "list_tags_and_types")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_tags_and_types",
		Description: `List every distinct activity tag and activity type in the store.

Use when:
- User asks "Which tags do I use?" or before filtering activities by tag or type

Returns: Sorted tags and types.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "List Tags and Types",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.listTagsAndTypes)
}

// Input/Output types

type ListActivitiesInput struct {
	Tags      []string `json:"tags,omitempty" jsonschema:"Keep activities carrying any of these tags. Matching ignores case."`
	Types     []string `json:"types,omitempty" jsonschema:"Keep activities whose type is one of these, e.g. Run."`
	StartDate string   `json:"start_date,omitempty" jsonschema:"Keep activities on or after this date in YYYY-MM-DD format."`
	Limit     int      `json:"limit,omitempty" jsonschema:"Maximum number of activities to return. Default: 20. Maximum: 100."`
}

type ListActivitiesOutput struct {
	Filter           string            `json:"filter,omitempty"`
	Activities       []ActivitySummary `json:"activities"`
	TotalMatching    int               `json:"total_matching"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

type GetActivityInput struct {
	ID   int64   `json:"id" jsonschema:"Activity ID."`
	Laps []int64 `json:"laps,omitempty" jsonschema:"Lap numbers to summarise. Leave empty for the whole activity."`
}

type GetActivityOutput struct {
	Activity         ActivitySummary   `json:"activity"`
	Laps             []dashboard.Lap   `json:"laps"`
	Samples          int               `json:"samples"`
	SelectedSamples  int               `json:"selected_samples"`
	GPSPoints        int               `json:"gps_points"`
	AvgPower         int               `json:"avg_power_watts,omitempty"`
	AvgHeartrate     int               `json:"avg_heartrate_bpm,omitempty"`
	PartialErrors    []string          `json:"partial_errors,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

type ListTagsAndTypesInput struct{}

type ListTagsAndTypesOutput struct {
	Tags             []string          `json:"tags"`
	Types            []string          `json:"types"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

type ActivitySummary struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name,omitempty"`
	Type         string   `json:"type,omitempty"`
	Date         string   `json:"date,omitempty"`
	Distance     string   `json:"distance,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Pace         string   `json:"pace,omitempty"`
	AvgPower     int      `json:"avg_power_watts,omitempty"`
	AvgHeartrate int      `json:"avg_heartrate_bpm,omitempty"`
	AvgCadence   int      `json:"avg_cadence_spm,omitempty"`
	CP           int      `json:"critical_power_watts,omitempty"`
	Elevation    string   `json:"elevation_gain,omitempty"`
	Calories     int      `json:"calories,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Tool handlers

func (s *Server) listActivities(ctx context.Context, req *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	logging.Info("MCP tool call", "tool", "list_activities", "tags", input.Tags, "types", input.Types, "start_date", input.StartDate)
	if logging.IsVerbose() {
		logging.Debug("MCP request params", "tool", "list_activities", "input", logging.ToJSON(input))
	}

	filter, err := dashboard.ParseFilter(input.Tags, input.Types, input.StartDate)
	if err != nil {
		return nil, ListActivitiesOutput{}, Classify("list activities", err)
	}

	activities, err := s.dashboard.ListActivities(ctx, filter)
	if err != nil {
		logging.Error("list_activities failed", "error", err)
		return nil, ListActivitiesOutput{}, Classify("list activities", err)
	}

	limit := applyLimit(input.Limit)
	output := ListActivitiesOutput{
		Filter:           describeFilter(filter),
		Activities:       []ActivitySummary{},
		TotalMatching:    len(activities),
		SuggestedActions: SuggestNextActions("activities"),
	}
	if len(activities) > limit {
		activities = activities[:limit]
	}
	output.Activities = convertActivities(activities)

	logging.Info("MCP tool completed", "tool", "list_activities", "returned", len(output.Activities), "matching", output.TotalMatching)
	if logging.IsVerbose() {
		logging.Debug("MCP response", "tool", "list_activities", "output", logging.ToJSON(output))
	}
	return nil, output, nil
}

func (s *Server) getActivity(ctx context.Context, req *mcp.CallToolRequest, input GetActivityInput) (*mcp.CallToolResult, GetActivityOutput, error) {
	logging.Info("MCP tool call", "tool", "get_activity", "id", input.ID, "laps", input.Laps)

	if input.ID <= 0 {
		return nil, GetActivityOutput{}, NewInvalidInputError("id must be a positive activity ID")
	}

	detail, err := s.dashboard.ActivityDetail(ctx, input.ID)
	if detail == nil {
		return nil, GetActivityOutput{}, Classify("get activity", err)
	}

	output := GetActivityOutput{
		Activity:         convertActivity(detail.Activity),
		Laps:             detail.Laps,
		Samples:          len(detail.Timeseries),
		GPSPoints:        len(detail.GPSPoints),
		SuggestedActions: SuggestNextActions("activity"),
	}
	if err != nil {
		// Parts that failed stay empty; report them next to what loaded.
		for _, e := range multierr.Errors(err) {
			output.PartialErrors = append(output.PartialErrors, e.Error())
		}
	}

	selected := dashboard.FilterByLaps(detail.Timeseries, detail.Laps, input.Laps)
	output.SelectedSamples = len(selected)
	output.AvgPower, output.AvgHeartrate = sampleAverages(selected)

	logging.Info("MCP tool completed", "tool", "get_activity", "samples", output.Samples, "selected", output.SelectedSamples)
	return nil, output, nil
}

func (s *Server) listTagsAndTypes(ctx context.Context, req *mcp.CallToolRequest, input ListTagsAndTypesInput) (*mcp.CallToolResult, ListTagsAndTypesOutput, error) {
	logging.Info("MCP tool call", "tool", "list_tags_and_types")

	tags, err := s.dashboard.Tags(ctx)
	if err != nil {
		return nil, ListTagsAndTypesOutput{}, Classify("list tags", err)
	}
	types, err := s.dashboard.Types(ctx)
	if err != nil {
		return nil, ListTagsAndTypesOutput{}, Classify("list types", err)
	}

	logging.Info("MCP tool completed", "tool", "list_tags_and_types", "tags", len(tags), "types", len(types))
	return nil, ListTagsAndTypesOutput{
		Tags:             tags,
		Types:            types,
		SuggestedActions: SuggestNextActions("filters"),
	}, nil
}

// Helper functions

func applyLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func describeFilter(f dashboard.Filter) string {
	var parts []string
	if len(f.Tags) > 0 {
		parts = append(parts, "tags="+strings.Join(f.Tags, ","))
	}
	if len(f.Types) > 0 {
		parts = append(parts, "types="+strings.Join(f.Types, ","))
	}
	if f.StartDate != nil {
		parts = append(parts, "since="+f.StartDate.Format(dashboard.DateLayout))
	}
	if len(parts) == 0 {
		return "all activities"
	}
	return strings.Join(parts, " ")
}

func convertActivities(activities []dashboard.Activity) []ActivitySummary {
	result := make([]ActivitySummary, len(activities))
	for i, a := range activities {
		result[i] = convertActivity(a)
	}
	return result
}

func convertActivity(a dashboard.Activity) ActivitySummary {
	summary := ActivitySummary{
		ID:   a.ID,
		Name: a.Name,
		Type: a.Type,
		Tags: a.Tags,
	}

	if a.Date != nil {
		summary.Date = a.Date.Format("2006-01-02 15:04")
	}
	if a.Distance != nil {
		summary.Distance = dashboard.FormatDistance(*a.Distance)
	}
	if a.MovingTime != nil {
		summary.Duration = dashboard.FormatDuration(*a.MovingTime)
	}
	if a.AverageSpeed != nil && *a.AverageSpeed > 0 {
		summary.Pace = dashboard.FormatPace(*a.AverageSpeed)
	}
	if a.AveragePower != nil {
		summary.AvgPower = int(*a.AveragePower + 0.5)
	}
	if a.AverageHeartRate != nil {
		summary.AvgHeartrate = int(*a.AverageHeartRate + 0.5)
	}
	if a.AverageCadence != nil {
		summary.AvgCadence = int(*a.AverageCadence + 0.5)
	}
	if a.Ftp != nil {
		summary.CP = int(*a.Ftp + 0.5)
	}
	if a.TotalElevationGain != nil && *a.TotalElevationGain > 0 {
		summary.Elevation = fmt.Sprintf("%.0f m", *a.TotalElevationGain)
	}
	if a.Calories != nil {
		summary.Calories = int(*a.Calories)
	}

	return summary
}

// sampleAverages returns the rounded mean power and heart rate of the
// samples carrying each series.
func sampleAverages(samples []dashboard.TimeseriesSample) (power, heartRate int) {
	var powerSum, hrSum float64
	var powerN, hrN int
	for _, s := range samples {
		if s.Power != nil {
			powerSum += *s.Power
			powerN++
		}
		if s.HeartRate != nil {
			hrSum += *s.HeartRate
			hrN++
		}
	}
	if powerN > 0 {
		power = int(powerSum/float64(powerN) + 0.5)
	}
	if hrN > 0 {
		heartRate = int(hrSum/float64(hrN) + 0.5)
	}
	return power, heartRate
}
