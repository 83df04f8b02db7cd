package dashboard

import (
	"context"
	"fmt"

	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"go.uber.org/multierr"
)

// TimeseriesSample is one second of an activity. Power is always recorded;
// the other series may be missing at any timestamp.
type TimeseriesSample struct {
	Timestamp    int64    `json:"timestamp"`
	Power        *float64 `json:"power"`
	HeartRate    *float64 `json:"heart_rate"`
	Speed        *float64 `json:"speed"`
	Cadence      *float64 `json:"cadence"`
	Distance     *float64 `json:"distance"`
	StrideLength *float64 `json:"stride_length"`
	Elevation    *float64 `json:"elevation"`
}

// Lap is a segment starting at Timestamp and ending at the next lap's start.
type Lap struct {
	LapNumber   int64  `json:"lap_number"`
	Timestamp   int64  `json:"timestamp"`
	Trigger     *int64 `json:"trigger"`
	WorkoutStep *int64 `json:"workout_step"`
}

// GPSPoint is a position fix with the power recorded at the same second.
type GPSPoint struct {
	Timestamp int64    `json:"timestamp"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Power     *float64 `json:"power"`
}

// Detail gathers everything shown on an activity page.
type Detail struct {
	Activity   Activity           `json:"activity"`
	Timeseries []TimeseriesSample `json:"timeseries"`
	Laps       []Lap              `json:"laps"`
	GPSPoints  []GPSPoint         `json:"gps_points"`
}

// Timeseries returns the joined per-second samples of an activity, ascending.
func (s *Service) Timeseries(ctx context.Context, activityID int64) ([]TimeseriesSample, error) {
	rows, err := s.queries.GetTimeseries(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying timeseries for %d: %w", ErrStorage, activityID, err)
	}

	samples := make([]TimeseriesSample, len(rows))
	for i, r := range rows {
		samples[i] = TimeseriesSample{
			Timestamp:    r.Timestamp,
			Power:        nullFloat(r.Power),
			HeartRate:    nullFloat(r.HeartRate),
			Speed:        nullFloat(r.Speed),
			Cadence:      nullFloat(r.Cadence),
			Distance:     nullFloat(r.Distance),
			StrideLength: nullFloat(r.StrideLength),
			Elevation:    nullFloat(r.Elevation),
		}
	}
	return samples, nil
}

// Laps returns the laps of an activity ordered by lap number.
func (s *Service) Laps(ctx context.Context, activityID int64) ([]Lap, error) {
	rows, err := s.queries.GetLaps(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying laps for %d: %w", ErrStorage, activityID, err)
	}

	laps := make([]Lap, len(rows))
	for i, r := range rows {
		laps[i] = Lap{
			LapNumber:   r.LapNumber,
			Timestamp:   r.Timestamp,
			Trigger:     nullInt(r.Trigger),
			WorkoutStep: nullInt(r.WorkoutStep),
		}
	}
	return laps, nil
}

// GPSPoints returns every GPS fix of an activity, ascending.
func (s *Service) GPSPoints(ctx context.Context, activityID int64) ([]GPSPoint, error) {
	rows, err := s.queries.GetGPSPoints(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying gps points for %d: %w", ErrStorage, activityID, err)
	}

	points := make([]GPSPoint, len(rows))
	for i, r := range rows {
		points[i] = GPSPoint{
			Timestamp: r.Timestamp,
			Lat:       r.Lat,
			Lng:       r.Lng,
			Power:     nullFloat(r.Power),
		}
	}
	return points, nil
}

// ActivityDetail loads an activity with its timeseries, laps and GPS track.
// A missing activity or a failing activity read aborts; the other parts are
// read independently and their failures are combined into the returned error
// next to whatever detail could be loaded.
func (s *Service) ActivityDetail(ctx context.Context, id int64) (*Detail, error) {
	activity, err := s.Activity(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Activity:   activity,
		Timeseries: []TimeseriesSample{},
		Laps:       []Lap{},
		GPSPoints:  []GPSPoint{},
	}

	var errs error
	if samples, err := s.Timeseries(ctx, id); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		detail.Timeseries = samples
	}
	if laps, err := s.Laps(ctx, id); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		detail.Laps = laps
	}
	if points, err := s.GPSPoints(ctx, id); err != nil {
		errs = multierr.Append(errs, err)
	} else {
		detail.GPSPoints = points
	}

	if errs != nil {
		logging.Warn("activity detail partially loaded",
			"activity_id", id, "failures", len(multierr.Errors(errs)), "error", errs)
	}
	return detail, errs
}

// FilterByLaps keeps the samples that fall inside any selected lap. A lap
// covers [start, next lap's start); the last lap is open-ended. An empty
// selection keeps every sample.
func FilterByLaps(samples []TimeseriesSample, laps []Lap, selected []int64) []TimeseriesSample {
	if len(selected) == 0 {
		return samples
	}

	want := make(map[int64]bool, len(selected))
	for _, n := range selected {
		want[n] = true
	}

	type window struct {
		start, end int64
		open       bool
	}
	var windows []window
	for i, lap := range laps {
		if !want[lap.LapNumber] {
			continue
		}
		w := window{start: lap.Timestamp, open: true}
		if i+1 < len(laps) {
			w.end = laps[i+1].Timestamp
			w.open = false
		}
		windows = append(windows, w)
	}

	filtered := []TimeseriesSample{}
	for _, sample := range samples {
		for _, w := range windows {
			if sample.Timestamp >= w.start && (w.open || sample.Timestamp < w.end) {
				filtered = append(filtered, sample)
				break
			}
		}
	}
	return filtered
}
