package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const trainingSummaryURI = "stryd://summary/training"

// registerResources registers all MCP resources for the server
func (s *Server) registerResources() {
	logging.Debug("Registering MCP resources")

	// Static resource: training snapshot
	s.mcp.AddResource(&mcp.Resource{
		URI:         trainingSummaryURI,
		Name:        "training_summary",
		Description: "Overall totals, the last seven days and the latest twenty activities",
		MIMEType:    "application/json",
	}, s.readTrainingSummary)

	// Resource template: Activity by ID
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "stryd://activities/{id}",
		Name:        "activity_by_id",
		Description: "Fetch a specific activity with its laps by ID",
		MIMEType:    "application/json",
	}, s.readActivityByID)

	logging.Debug("MCP resources registered", "count", 2)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, NewInternalErrorWithCause("failed to marshal resource", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(jsonData),
			},
		},
	}, nil
}

// readTrainingSummary returns the training snapshot also given to the chat assistant
func (s *Server) readTrainingSummary(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	logging.Info("MCP resource read", "resource", "training_summary")

	snap, err := s.dashboard.TrainingSnapshot(ctx, s.now())
	if err != nil {
		logging.Error("readTrainingSummary failed", "error", err)
		return nil, Classify("training summary", err)
	}

	recent := convertActivities(snap.Recent)
	return jsonResource(trainingSummaryURI, struct {
		Totals   dashboard.Totals  `json:"totals"`
		LastWeek dashboard.Period  `json:"last_week"`
		Recent   []ActivitySummary `json:"recent"`
	}{snap.Totals, snap.LastWeek, recent})
}

// readActivityByID returns a specific activity and its laps
func (s *Server) readActivityByID(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	// URI format: stryd://activities/{id}
	uri := req.Params.URI
	idx := strings.LastIndex(uri, "/")
	if idx < 0 {
		return nil, NewInvalidInputError("invalid activity URI format")
	}

	idStr := uri[idx+1:]
	activityID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || activityID <= 0 {
		return nil, NewInvalidInputErrorWithDetails("invalid activity ID", idStr)
	}

	logging.Info("MCP resource read", "resource", "activity_by_id", "id", activityID)

	activity, err := s.dashboard.Activity(ctx, activityID)
	if err != nil {
		if errors.Is(err, dashboard.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		logging.Error("readActivityByID failed", "error", err)
		return nil, Classify("read activity", err)
	}

	laps, err := s.dashboard.Laps(ctx, activityID)
	if err != nil {
		logging.Warn("laps unavailable for activity resource", "id", activityID, "error", err)
		laps = []dashboard.Lap{}
	}

	return jsonResource(uri, struct {
		ActivitySummary
		Laps []dashboard.Lap `json:"laps"`
		Link string          `json:"link"`
	}{convertActivity(activity), laps, fmt.Sprintf("/activity/%d", activityID)})
}
