package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/db"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// Activity is one recorded session. Optional measurements are nil when the
// store holds no value.
type Activity struct {
	ID                 int64      `json:"id"`
	UserID             string     `json:"user_id,omitempty"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Type               string     `json:"type,omitempty"`
	Date               *time.Time `json:"date,omitempty"`
	Distance           *float64   `json:"distance,omitempty"`
	MovingTime         *int64     `json:"moving_time,omitempty"`
	AverageSpeed       *float64   `json:"average_speed,omitempty"`
	AveragePower       *float64   `json:"average_power,omitempty"`
	AverageHeartRate   *float64   `json:"average_heart_rate,omitempty"`
	AverageCadence     *float64   `json:"average_cadence,omitempty"`
	Ftp                *float64   `json:"ftp,omitempty"`
	Tags               []string   `json:"tags"`
	Calories           *float64   `json:"calories,omitempty"`
	TotalElevationGain *float64   `json:"total_elevation_gain,omitempty"`
}

// timeLayouts are the date formats found in the store's TEXT date column.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	DateLayout,
}

func parseStoreTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func convertActivity(a db.Activity) Activity {
	out := Activity{
		ID:                 a.ID,
		UserID:             a.UserID.String,
		Name:               a.Name.String,
		Description:        a.Description.String,
		Type:               a.Type.String,
		Distance:           nullFloat(a.Distance),
		MovingTime:         nullInt(a.MovingTime),
		AverageSpeed:       nullFloat(a.AverageSpeed),
		AveragePower:       nullFloat(a.AveragePower),
		AverageHeartRate:   nullFloat(a.AverageHeartRate),
		AverageCadence:     nullFloat(a.AverageCadence),
		Ftp:                nullFloat(a.Ftp),
		Tags:               SplitTags(a.Tags.String),
		Calories:           nullFloat(a.Calories),
		TotalElevationGain: nullFloat(a.TotalElevationGain),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	if a.Date.Valid {
		if t, ok := parseStoreTime(a.Date.String); ok {
			out.Date = &t
		} else {
			logging.Warn("unparseable activity date", "activity_id", a.ID, "date", a.Date.String)
		}
	}

	return out
}

func convertActivities(rows []db.Activity) []Activity {
	result := make([]Activity, len(rows))
	for i, a := range rows {
		result[i] = convertActivity(a)
	}
	return result
}

// ListActivities returns the activities matching every active predicate of
// the filter, newest first. An empty result is a valid answer; store failures
// are returned as errors wrapping ErrStorage.
func (s *Service) ListActivities(ctx context.Context, f Filter) ([]Activity, error) {
	params := db.ListActivitiesParams{Types: f.Types}
	if f.StartDate != nil {
		params.StartDate = sql.NullString{String: f.StartDate.Format(DateLayout), Valid: true}
	}

	rows, err := s.queries.ListActivities(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: listing activities: %w", ErrStorage, err)
	}

	wanted := compact(f.Tags)
	activities := make([]Activity, 0, len(rows))
	for _, row := range rows {
		a := convertActivity(row)
		if len(wanted) > 0 && !matchesTags(a.Tags, wanted) {
			continue
		}
		activities = append(activities, a)
	}

	logging.Debug("activities listed",
		"tags", len(wanted), "types", len(f.Types), "rows", len(rows), "matched", len(activities))
	return activities, nil
}

// Activity returns a single activity or ErrNotFound.
func (s *Service) Activity(ctx context.Context, id int64) (Activity, error) {
	row, err := s.queries.GetActivity(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Activity{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
		}
		return Activity{}, fmt.Errorf("%w: querying activity %d: %w", ErrStorage, id, err)
	}
	return convertActivity(row), nil
}

// RecentActivities returns at most limit activities, newest first.
func (s *Service) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := s.queries.GetRecentActivities(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: querying recent activities: %w", ErrStorage, err)
	}
	return convertActivities(rows), nil
}

// Tags returns every distinct tag in the store, trimmed, non-empty, with
// original casing, sorted byte-wise.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	raw, err := s.queries.GetActivityTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tags: %w", ErrStorage, err)
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, field := range raw {
		for _, t := range SplitTags(field) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Types returns the distinct non-null activity types, sorted.
func (s *Service) Types(ctx context.Context) ([]string, error) {
	types, err := s.queries.GetActivityTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying types: %w", ErrStorage, err)
	}
	if types == nil {
		types = []string{}
	}
	return types, nil
}
