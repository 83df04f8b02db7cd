// Package dbtest builds throwaway activity stores for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/joshdurbin/stryd-dashboard/internal/schema"

	_ "modernc.org/sqlite"
)

// Store is a migrated, writable SQLite file in a temp dir.
type Store struct {
	Path string
	DB   *sql.DB
	t    *testing.T
}

// New creates and migrates a temporary store. It is closed on test cleanup.
func New(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stryd_activities.db")
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if _, err := schema.Migrate(context.Background(), sqlDB); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}

	return &Store{Path: path, DB: sqlDB, t: t}
}

// Activity is a fixture row; nil pointers become NULL.
type Activity struct {
	ID         int64
	Name       string
	Type       *string
	Date       *string
	Distance   *float64
	MovingTime *int64
	Tags       *string
	Power      *float64
	HeartRate  *float64
	Cadence    *float64
	Speed      *float64
	Ftp        *float64
	Calories   *float64
	Elevation  *float64
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func (s *Store) exec(query string, args ...interface{}) {
	s.t.Helper()
	if _, err := s.DB.Exec(query, args...); err != nil {
		s.t.Fatalf("fixture insert failed: %v\n%s", err, query)
	}
}

// AddActivity inserts an activity row.
func (s *Store) AddActivity(a Activity) {
	s.t.Helper()
	s.exec(`INSERT INTO activities (
		id, user_id, name, description, type, date, distance, moving_time,
		average_speed, average_power, average_heart_rate, average_cadence,
		ftp, tags, calories, total_elevation_gain
	) VALUES (?, 'athlete', ?, '', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Type, a.Date, a.Distance, a.MovingTime,
		a.Speed, a.Power, a.HeartRate, a.Cadence,
		a.Ftp, a.Tags, a.Calories, a.Elevation,
	)
}

// AddPower inserts a power sample.
func (s *Store) AddPower(activityID, ts int64, power float64) {
	s.t.Helper()
	s.exec(`INSERT INTO timeseries_power (activity_id, timestamp, total_power) VALUES (?, ?, ?)`, activityID, ts, power)
}

// AddCardio inserts a heart-rate sample.
func (s *Store) AddCardio(activityID, ts int64, hr float64) {
	s.t.Helper()
	s.exec(`INSERT INTO timeseries_cardio (activity_id, timestamp, heart_rate) VALUES (?, ?, ?)`, activityID, ts, hr)
}

// AddKinematics inserts a speed/cadence/distance/stride sample.
func (s *Store) AddKinematics(activityID, ts int64, speed, cadence, distance, stride float64) {
	s.t.Helper()
	s.exec(`INSERT INTO timeseries_kinematics (activity_id, timestamp, speed, cadence, distance, stride_length)
		VALUES (?, ?, ?, ?, ?, ?)`, activityID, ts, speed, cadence, distance, stride)
}

// AddElevation inserts an elevation sample.
func (s *Store) AddElevation(activityID, ts int64, elevation float64) {
	s.t.Helper()
	s.exec(`INSERT INTO timeseries_elevation (activity_id, timestamp, elevation) VALUES (?, ?, ?)`, activityID, ts, elevation)
}

// AddLap inserts a lap.
func (s *Store) AddLap(activityID, lapNumber, ts int64, trigger int64, workoutStep *int64) {
	s.t.Helper()
	s.exec(`INSERT INTO laps (activity_id, lap_number, timestamp, "trigger", workout_step) VALUES (?, ?, ?, ?, ?)`,
		activityID, lapNumber, ts, trigger, workoutStep)
}

// AddGPS inserts a GPS fix.
func (s *Store) AddGPS(activityID, ts int64, lat, lng float64) {
	s.t.Helper()
	s.exec(`INSERT INTO gps_points (activity_id, timestamp, lat, lng) VALUES (?, ?, ?, ?)`, activityID, ts, lat, lng)
}
