package db

import (
	"context"
	"database/sql"
	"strings"
)

const activityColumns = `id, user_id, name, description, type, date, distance, moving_time,
	average_speed, average_power, average_heart_rate, average_cadence,
	ftp, tags, calories, total_elevation_gain`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (Activity, error) {
	var a Activity
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Description, &a.Type, &a.Date,
		&a.Distance, &a.MovingTime, &a.AverageSpeed, &a.AveragePower,
		&a.AverageHeartRate, &a.AverageCadence, &a.Ftp, &a.Tags,
		&a.Calories, &a.TotalElevationGain,
	)
	return a, err
}

func (q *Queries) queryActivities(ctx context.Context, query string, args ...interface{}) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListActivitiesParams narrows ListActivities. Zero values disable a predicate.
type ListActivitiesParams struct {
	// StartDate is an ISO calendar date (YYYY-MM-DD), compared against the
	// calendar day of each activity.
	StartDate sql.NullString
	Types     []string
}

// inPlaceholders returns "(?,?,...)" and the matching args.
func inPlaceholders(values []string) (string, []interface{}) {
	ph := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		ph[i] = "?"
		args[i] = v
	}
	return "(" + strings.Join(ph, ",") + ")", args
}

// ListActivities returns activities matching the date and type predicates,
// newest first. Tag matching happens in the caller because tags are a
// delimited field.
func (q *Queries) ListActivities(ctx context.Context, arg ListActivitiesParams) ([]Activity, error) {
	var (
		preds = []string{"1=1"}
		args  []interface{}
	)

	if arg.StartDate.Valid {
		preds = append(preds, "DATE(date) >= DATE(?)")
		args = append(args, arg.StartDate.String)
	}

	if len(arg.Types) > 0 {
		ph, typeArgs := inPlaceholders(arg.Types)
		preds = append(preds, "type IN "+ph)
		args = append(args, typeArgs...)
	}

	query := "SELECT " + activityColumns + "\nFROM activities\nWHERE " +
		strings.Join(preds, " AND ") + "\nORDER BY date DESC, id DESC"

	return q.queryActivities(ctx, query, args...)
}

const getActivity = `SELECT ` + activityColumns + `
FROM activities
WHERE id = ?`

// GetActivity returns sql.ErrNoRows when no activity has the id.
func (q *Queries) GetActivity(ctx context.Context, id int64) (Activity, error) {
	row := q.db.QueryRowContext(ctx, getActivity, id)
	return scanActivity(row)
}

const getRecentActivities = `SELECT ` + activityColumns + `
FROM activities
ORDER BY date DESC, id DESC
LIMIT ?`

// GetRecentActivities returns the newest activities, at most limit of them.
func (q *Queries) GetRecentActivities(ctx context.Context, limit int64) ([]Activity, error) {
	return q.queryActivities(ctx, getRecentActivities, limit)
}

const getActivityTags = `SELECT tags FROM activities WHERE tags IS NOT NULL AND tags != ''`

// GetActivityTags returns the raw, comma-delimited tag field of every tagged activity.
func (q *Queries) GetActivityTags(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getActivityTags)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		items = append(items, tags)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getActivityTypes = `SELECT DISTINCT type FROM activities WHERE type IS NOT NULL ORDER BY type`

// GetActivityTypes returns the distinct non-null activity types, sorted.
func (q *Queries) GetActivityTypes(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getActivityTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
