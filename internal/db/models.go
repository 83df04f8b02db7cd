package db

import "database/sql"

// Activity is one row of the activities table.
type Activity struct {
	ID                 int64
	UserID             sql.NullString
	Name               sql.NullString
	Description        sql.NullString
	Type               sql.NullString
	Date               sql.NullString
	Distance           sql.NullFloat64
	MovingTime         sql.NullInt64
	AverageSpeed       sql.NullFloat64
	AveragePower       sql.NullFloat64
	AverageHeartRate   sql.NullFloat64
	AverageCadence     sql.NullFloat64
	Ftp                sql.NullFloat64
	Tags               sql.NullString
	Calories           sql.NullFloat64
	TotalElevationGain sql.NullFloat64
}

// TimeseriesRow is one power-series timestamp joined with the cardio,
// kinematics and elevation series.
type TimeseriesRow struct {
	Timestamp    int64
	Power        sql.NullFloat64
	HeartRate    sql.NullFloat64
	Speed        sql.NullFloat64
	Cadence      sql.NullFloat64
	Distance     sql.NullFloat64
	StrideLength sql.NullFloat64
	Elevation    sql.NullFloat64
}

// Lap is one row of the laps table.
type Lap struct {
	ActivityID  int64
	LapNumber   int64
	Timestamp   int64
	Trigger     sql.NullInt64
	WorkoutStep sql.NullInt64
}

// GPSPointRow is one GPS fix joined with the power sample at the same timestamp.
type GPSPointRow struct {
	Timestamp int64
	Lat       float64
	Lng       float64
	Power     sql.NullFloat64
}

// GetRollingStatsRow is one emitted day of the rolling-window query.
type GetRollingStatsRow struct {
	Day         string
	Distance7d  sql.NullFloat64
	Duration7d  sql.NullFloat64
	Distance10d sql.NullFloat64
	Duration10d sql.NullFloat64
}

// GetTrainingSummaryRow holds whole-store aggregates.
type GetTrainingSummaryRow struct {
	TotalActivities int64
	TotalDistance   sql.NullFloat64
	TotalTime       sql.NullFloat64
	AvgPower        sql.NullFloat64
	AvgHeartRate    sql.NullFloat64
	AvgCadence      sql.NullFloat64
	AvgSpeed        sql.NullFloat64
}

// GetPeriodSummaryRow holds aggregates for activities on or after a date.
type GetPeriodSummaryRow struct {
	Count    int64
	Distance sql.NullFloat64
	Duration sql.NullFloat64
}
