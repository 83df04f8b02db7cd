package db

import (
	"context"
	"database/sql"
)

// getRollingStats sums distance (km) and moving time (minutes) per calendar
// day, then re-sums the trailing [day-6, day] and [day-9, day] windows for
// every day that has a daily row. A window sum is only defined once the whole
// window lies on or after the first day in the store; rows whose 7-day sum is
// undefined are dropped, the 10-day sum stays NULL until it is defined.
// The start date limits which days are emitted, never the lookback.
const getRollingStats = `
WITH daily_stats AS (
    SELECT
        DATE(date) AS day,
        SUM(distance) / 1000.0 AS daily_distance_km,
        SUM(moving_time) / 60.0 AS daily_duration_min
    FROM activities
    WHERE date IS NOT NULL AND DATE(date) IS NOT NULL
    GROUP BY DATE(date)
),
bounds AS (
    SELECT MIN(day) AS first_day FROM daily_stats
),
rolling AS (
    SELECT
        ds1.day,
        CASE WHEN DATE(ds1.day, '-6 days') >= b.first_day THEN (
            SELECT SUM(ds2.daily_distance_km)
            FROM daily_stats ds2
            WHERE ds2.day <= ds1.day
              AND ds2.day >= DATE(ds1.day, '-6 days')
        ) END AS distance_7d,
        CASE WHEN DATE(ds1.day, '-6 days') >= b.first_day THEN (
            SELECT SUM(ds2.daily_duration_min)
            FROM daily_stats ds2
            WHERE ds2.day <= ds1.day
              AND ds2.day >= DATE(ds1.day, '-6 days')
        ) END AS duration_7d,
        CASE WHEN DATE(ds1.day, '-9 days') >= b.first_day THEN (
            SELECT SUM(ds2.daily_distance_km)
            FROM daily_stats ds2
            WHERE ds2.day <= ds1.day
              AND ds2.day >= DATE(ds1.day, '-9 days')
        ) END AS distance_10d,
        CASE WHEN DATE(ds1.day, '-9 days') >= b.first_day THEN (
            SELECT SUM(ds2.daily_duration_min)
            FROM daily_stats ds2
            WHERE ds2.day <= ds1.day
              AND ds2.day >= DATE(ds1.day, '-9 days')
        ) END AS duration_10d
    FROM daily_stats ds1
    CROSS JOIN bounds b
    WHERE ?1 IS NULL OR ds1.day >= DATE(?1)
)
SELECT day, distance_7d, duration_7d, distance_10d, duration_10d
FROM rolling
WHERE distance_7d IS NOT NULL
ORDER BY day`

// GetRollingStats returns the trailing 7/10-day distance and duration sums.
func (q *Queries) GetRollingStats(ctx context.Context, startDate sql.NullString) ([]GetRollingStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, getRollingStats, startDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetRollingStatsRow
	for rows.Next() {
		var i GetRollingStatsRow
		if err := rows.Scan(
			&i.Day,
			&i.Distance7d,
			&i.Duration7d,
			&i.Distance10d,
			&i.Duration10d,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
