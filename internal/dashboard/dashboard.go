// Package dashboard implements the read-side queries behind the dashboard:
// activity filtering, rolling training load, per-activity detail and the
// derived views built from them.
package dashboard

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joshdurbin/stryd-dashboard/internal/db"
)

var (
	// ErrNotFound is returned when an activity id does not exist.
	ErrNotFound = errors.New("activity not found")
	// ErrInvalidFilter is returned for a malformed id, date or filter value.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrStorage wraps any failure reported by the activity store.
	ErrStorage = errors.New("activity store query failed")
)

// Querier defines the store queries the dashboard depends on.
type Querier interface {
	ListActivities(ctx context.Context, arg db.ListActivitiesParams) ([]db.Activity, error)
	GetActivity(ctx context.Context, id int64) (db.Activity, error)
	GetRecentActivities(ctx context.Context, limit int64) ([]db.Activity, error)
	GetActivityTags(ctx context.Context) ([]string, error)
	GetActivityTypes(ctx context.Context) ([]string, error)
	GetRollingStats(ctx context.Context, startDate sql.NullString) ([]db.GetRollingStatsRow, error)
	GetTimeseries(ctx context.Context, activityID int64) ([]db.TimeseriesRow, error)
	GetLaps(ctx context.Context, activityID int64) ([]db.Lap, error)
	GetGPSPoints(ctx context.Context, activityID int64) ([]db.GPSPointRow, error)
	// Summary queries
	CountActivities(ctx context.Context) (int64, error)
	GetLatestActivityDate(ctx context.Context) (interface{}, error)
	GetOldestActivityDate(ctx context.Context) (interface{}, error)
	GetTrainingSummary(ctx context.Context) (db.GetTrainingSummaryRow, error)
	GetPeriodSummary(ctx context.Context, since string) (db.GetPeriodSummaryRow, error)
}

// Service answers dashboard queries. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	queries Querier
}

// New creates a dashboard service over the given queries.
func New(queries Querier) *Service {
	return &Service{queries: queries}
}
