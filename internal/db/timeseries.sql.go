package db

import "context"

const getTimeseries = `
SELECT
    p.timestamp,
    p.total_power AS power,
    c.heart_rate,
    k.speed,
    k.cadence,
    k.distance,
    k.stride_length,
    e.elevation
FROM timeseries_power p
LEFT JOIN timeseries_cardio c ON p.activity_id = c.activity_id AND p.timestamp = c.timestamp
LEFT JOIN timeseries_kinematics k ON p.activity_id = k.activity_id AND p.timestamp = k.timestamp
LEFT JOIN timeseries_elevation e ON p.activity_id = e.activity_id AND p.timestamp = e.timestamp
WHERE p.activity_id = ?
ORDER BY p.timestamp`

// GetTimeseries returns one row per power-series timestamp of the activity.
// Missing secondary samples leave the corresponding fields NULL.
func (q *Queries) GetTimeseries(ctx context.Context, activityID int64) ([]TimeseriesRow, error) {
	rows, err := q.db.QueryContext(ctx, getTimeseries, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TimeseriesRow
	for rows.Next() {
		var i TimeseriesRow
		if err := rows.Scan(
			&i.Timestamp,
			&i.Power,
			&i.HeartRate,
			&i.Speed,
			&i.Cadence,
			&i.Distance,
			&i.StrideLength,
			&i.Elevation,
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

const getLaps = `
SELECT activity_id, lap_number, timestamp, "trigger", workout_step
FROM laps
WHERE activity_id = ?
ORDER BY lap_number`

func (q *Queries) GetLaps(ctx context.Context, activityID int64) ([]Lap, error) {
	rows, err := q.db.QueryContext(ctx, getLaps, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Lap
	for rows.Next() {
		var i Lap
		if err := rows.Scan(
			&i.ActivityID,
			&i.LapNumber,
			&i.Timestamp,
			&i.Trigger,
			&i.WorkoutStep,
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

const getGPSPoints = `
SELECT
    g.timestamp,
    g.lat,
    g.lng,
    p.total_power AS power
FROM gps_points g
LEFT JOIN timeseries_power p ON g.activity_id = p.activity_id AND g.timestamp = p.timestamp
WHERE g.activity_id = ?
ORDER BY g.timestamp`

// GetGPSPoints returns every GPS fix of the activity with the power sample at
// the same timestamp, when there is one.
func (q *Queries) GetGPSPoints(ctx context.Context, activityID int64) ([]GPSPointRow, error) {
	rows, err := q.db.QueryContext(ctx, getGPSPoints, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GPSPointRow
	for rows.Next() {
		var i GPSPointRow
		if err := rows.Scan(
			&i.Timestamp,
			&i.Lat,
			&i.Lng,
			&i.Power,
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
