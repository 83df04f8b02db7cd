package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// recentActivityLimit is how many activities a training snapshot carries.
const recentActivityLimit = 20

// Totals aggregates every activity in the store.
type Totals struct {
	Activities       int64   `json:"activities"`
	Distance         float64 `json:"distance"`
	MovingTime       float64 `json:"moving_time"`
	AveragePower     float64 `json:"average_power"`
	AverageHeartRate float64 `json:"average_heart_rate"`
	AverageCadence   float64 `json:"average_cadence"`
	AverageSpeed     float64 `json:"average_speed"`
}

// Period aggregates the activities since a date.
type Period struct {
	Since      string  `json:"since"`
	Activities int64   `json:"activities"`
	Distance   float64 `json:"distance"`
	MovingTime float64 `json:"moving_time"`
}

// Snapshot summarises recent training for the chat assistant.
type Snapshot struct {
	Totals   Totals     `json:"totals"`
	LastWeek Period     `json:"last_week"`
	Recent   []Activity `json:"recent"`
}

// TrainingSnapshot gathers overall totals, the seven days before now and the
// latest activities.
func (s *Service) TrainingSnapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	summary, err := s.queries.GetTrainingSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: querying training summary: %w", ErrStorage, err)
	}

	since := now.AddDate(0, 0, -7).Format(DateLayout)
	period, err := s.queries.GetPeriodSummary(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: querying period summary: %w", ErrStorage, err)
	}

	recent, err := s.RecentActivities(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Totals: Totals{
			Activities:       summary.TotalActivities,
			Distance:         summary.TotalDistance.Float64,
			MovingTime:       summary.TotalTime.Float64,
			AveragePower:     summary.AvgPower.Float64,
			AverageHeartRate: summary.AvgHeartRate.Float64,
			AverageCadence:   summary.AvgCadence.Float64,
			AverageSpeed:     summary.AvgSpeed.Float64,
		},
		LastWeek: Period{
			Since:      since,
			Activities: period.Count,
			Distance:   period.Distance.Float64,
			MovingTime: period.Duration.Float64,
		},
		Recent: recent,
	}, nil
}

// LogDatabaseStats logs current store statistics
func (s *Service) LogDatabaseStats(ctx context.Context) {
	log := logging.Logger

	count, err := s.queries.CountActivities(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count activities")
		return
	}

	if count == 0 {
		log.Info().Int64("total_activities", 0).Msg("database statistics")
		return
	}

	newestRaw, _ := s.queries.GetLatestActivityDate(ctx)
	oldestRaw, _ := s.queries.GetOldestActivityDate(ctx)

	log.Info().
		Int64("total_activities", count).
		Str("newest_activity", formatDate(newestRaw)).
		Str("oldest_activity", formatDate(oldestRaw)).
		Msg("database statistics")
}

func formatDate(raw interface{}) string {
	if raw == nil {
		return "unknown"
	}
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return "unknown"
}
