package db

import "context"

const countActivities = `SELECT COUNT(*) FROM activities`

func (q *Queries) CountActivities(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActivities)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getLatestActivityDate = `SELECT MAX(date) FROM activities`

// GetLatestActivityDate returns nil for an empty store.
func (q *Queries) GetLatestActivityDate(ctx context.Context) (interface{}, error) {
	row := q.db.QueryRowContext(ctx, getLatestActivityDate)
	var maxDate interface{}
	err := row.Scan(&maxDate)
	return maxDate, err
}

const getOldestActivityDate = `SELECT MIN(date) FROM activities`

// GetOldestActivityDate returns nil for an empty store.
func (q *Queries) GetOldestActivityDate(ctx context.Context) (interface{}, error) {
	row := q.db.QueryRowContext(ctx, getOldestActivityDate)
	var minDate interface{}
	err := row.Scan(&minDate)
	return minDate, err
}

const getTrainingSummary = `
SELECT
    COUNT(*) AS total_activities,
    SUM(distance) AS total_distance,
    SUM(moving_time) AS total_time,
    AVG(average_power) AS avg_power,
    AVG(average_heart_rate) AS avg_hr,
    AVG(average_cadence) AS avg_cadence,
    AVG(average_speed) AS avg_speed
FROM activities`

func (q *Queries) GetTrainingSummary(ctx context.Context) (GetTrainingSummaryRow, error) {
	row := q.db.QueryRowContext(ctx, getTrainingSummary)
	var i GetTrainingSummaryRow
	err := row.Scan(
		&i.TotalActivities,
		&i.TotalDistance,
		&i.TotalTime,
		&i.AvgPower,
		&i.AvgHeartRate,
		&i.AvgCadence,
		&i.AvgSpeed,
	)
	return i, err
}

const getPeriodSummary = `
SELECT
    COUNT(*) AS count,
    SUM(distance) AS distance,
    SUM(moving_time) AS duration
FROM activities
WHERE DATE(date) >= DATE(?)`

// GetPeriodSummary aggregates activities dated on or after since (YYYY-MM-DD).
func (q *Queries) GetPeriodSummary(ctx context.Context, since string) (GetPeriodSummaryRow, error) {
	row := q.db.QueryRowContext(ctx, getPeriodSummary, since)
	var i GetPeriodSummaryRow
	err := row.Scan(&i.Count, &i.Distance, &i.Duration)
	return i, err
}
