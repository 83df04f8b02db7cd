package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RollingStat is the trailing training load for one day with activities.
// Distances are km and durations minutes; the 10-day fields are nil until the
// store holds ten days of history before the day.
type RollingStat struct {
	Day         string   `json:"day"`
	Distance7d  float64  `json:"distance_7d"`
	Duration7d  float64  `json:"duration_7d"`
	Distance10d *float64 `json:"distance_10d"`
	Duration10d *float64 `json:"duration_10d"`
}

// RollingStats returns the 7- and 10-day trailing sums for every day with at
// least one activity, ascending. startDate only limits the days emitted;
// activities before it still count toward the windows.
func (s *Service) RollingStats(ctx context.Context, startDate *time.Time) ([]RollingStat, error) {
	var since sql.NullString
	if startDate != nil {
		since = sql.NullString{String: startDate.Format(DateLayout), Valid: true}
	}

	rows, err := s.queries.GetRollingStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: computing rolling stats: %w", ErrStorage, err)
	}

	stats := make([]RollingStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, RollingStat{
			Day:         r.Day,
			Distance7d:  r.Distance7d.Float64,
			Duration7d:  r.Duration7d.Float64,
			Distance10d: nullFloat(r.Distance10d),
			Duration10d: nullFloat(r.Duration10d),
		})
	}
	return stats, nil
}
