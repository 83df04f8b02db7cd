package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/db"
	"github.com/joshdurbin/stryd-dashboard/internal/db/dbtest"
	"go.uber.org/multierr"
)

// MockQuerier is a Querier whose failures can be switched on per query.
type MockQuerier struct {
	Activities []db.Activity
	Rolling    []db.GetRollingStatsRow

	ListErr       error
	GetErr        error
	TimeseriesErr error
	LapsErr       error
	GPSErr        error
	TagsErr       error
	RollingErr    error

	lastParams db.ListActivitiesParams
}

func (m *MockQuerier) ListActivities(ctx context.Context, arg db.ListActivitiesParams) ([]db.Activity, error) {
	m.lastParams = arg
	return m.Activities, m.ListErr
}

func (m *MockQuerier) GetActivity(ctx context.Context, id int64) (db.Activity, error) {
	if m.GetErr != nil {
		return db.Activity{}, m.GetErr
	}
	for _, a := range m.Activities {
		if a.ID == id {
			return a, nil
		}
	}
	return db.Activity{}, sql.ErrNoRows
}

func (m *MockQuerier) GetRecentActivities(ctx context.Context, limit int64) ([]db.Activity, error) {
	if int64(len(m.Activities)) > limit {
		return m.Activities[:limit], nil
	}
	return m.Activities, nil
}

func (m *MockQuerier) GetActivityTags(ctx context.Context) ([]string, error) {
	if m.TagsErr != nil {
		return nil, m.TagsErr
	}
	var tags []string
	for _, a := range m.Activities {
		if a.Tags.Valid && a.Tags.String != "" {
			tags = append(tags, a.Tags.String)
		}
	}
	return tags, nil
}

func (m *MockQuerier) GetActivityTypes(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *MockQuerier) GetRollingStats(ctx context.Context, startDate sql.NullString) ([]db.GetRollingStatsRow, error) {
	return m.Rolling, m.RollingErr
}

func (m *MockQuerier) GetTimeseries(ctx context.Context, activityID int64) ([]db.TimeseriesRow, error) {
	if m.TimeseriesErr != nil {
		return nil, m.TimeseriesErr
	}
	return []db.TimeseriesRow{{Timestamp: 1, Power: sql.NullFloat64{Float64: 200, Valid: true}}}, nil
}

func (m *MockQuerier) GetLaps(ctx context.Context, activityID int64) ([]db.Lap, error) {
	if m.LapsErr != nil {
		return nil, m.LapsErr
	}
	return []db.Lap{{ActivityID: activityID, LapNumber: 1, Timestamp: 1}}, nil
}

func (m *MockQuerier) GetGPSPoints(ctx context.Context, activityID int64) ([]db.GPSPointRow, error) {
	if m.GPSErr != nil {
		return nil, m.GPSErr
	}
	return []db.GPSPointRow{{Timestamp: 1, Lat: 48.85, Lng: 2.35}}, nil
}

func (m *MockQuerier) CountActivities(ctx context.Context) (int64, error) {
	return int64(len(m.Activities)), nil
}

func (m *MockQuerier) GetLatestActivityDate(ctx context.Context) (interface{}, error) {
	return "2024-01-10T08:00:00Z", nil
}

func (m *MockQuerier) GetOldestActivityDate(ctx context.Context) (interface{}, error) {
	return "2024-01-01T08:00:00Z", nil
}

func (m *MockQuerier) GetTrainingSummary(ctx context.Context) (db.GetTrainingSummaryRow, error) {
	return db.GetTrainingSummaryRow{TotalActivities: int64(len(m.Activities))}, nil
}

func (m *MockQuerier) GetPeriodSummary(ctx context.Context, since string) (db.GetPeriodSummaryRow, error) {
	return db.GetPeriodSummaryRow{}, nil
}

func createTestActivity(id int64, name, activityType, date, tags string) db.Activity {
	a := db.Activity{
		ID:   id,
		Name: sql.NullString{String: name, Valid: true},
		Date: sql.NullString{String: date, Valid: date != ""},
		Tags: sql.NullString{String: tags, Valid: tags != ""},
	}
	if activityType != "" {
		a.Type = sql.NullString{String: activityType, Valid: true}
	}
	return a
}

func TestParseFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tags      []string
		types     []string
		startDate string
		wantErr   bool
		wantTags  []string
		wantTypes []string
		wantDate  string
	}{
		{name: "empty", wantTags: nil, wantTypes: nil},
		{name: "blank entries dropped", tags: []string{" ", " Tempo "}, types: []string{"", "Run"}, wantTags: []string{"Tempo"}, wantTypes: []string{"Run"}},
		{name: "valid date", startDate: "2024-02-29", wantDate: "2024-02-29"},
		{name: "invalid date", startDate: "2024-13-01", wantErr: true},
		{name: "sql in date", startDate: "2024-01-01' OR 1=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := ParseFilter(tt.tags, tt.types, tt.startDate)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Fatalf("expected ErrInvalidFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(f.Tags, tt.wantTags) {
				t.Errorf("tags = %v, want %v", f.Tags, tt.wantTags)
			}
			if !reflect.DeepEqual(f.Types, tt.wantTypes) {
				t.Errorf("types = %v, want %v", f.Types, tt.wantTypes)
			}
			if tt.wantDate == "" && f.StartDate != nil {
				t.Errorf("expected no start date, got %v", f.StartDate)
			}
			if tt.wantDate != "" && (f.StartDate == nil || f.StartDate.Format(DateLayout) != tt.wantDate) {
				t.Errorf("start date = %v, want %s", f.StartDate, tt.wantDate)
			}
		})
	}
}

func TestParseActivityID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseActivityID(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("ParseActivityID(%q): expected ErrInvalidFilter, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseActivityID(%q) = %d, %v; want %d", tt.input, got, err, tt.want)
		}
	}
}

func TestParseLapNumbers(t *testing.T) {
	t.Parallel()

	laps, err := ParseLapNumbers("1, 3,,4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(laps, []int64{1, 3, 4}) {
		t.Errorf("got %v", laps)
	}

	if _, err := ParseLapNumbers("1,x"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestListActivitiesTagMatching(t *testing.T) {
	t.Parallel()

	store := dbtest.New(t)
	store.AddActivity(dbtest.Activity{ID: 1, Name: "Long run", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2024-01-01T08:00:00Z"), Tags: dbtest.Ptr("Tempo, Long")})
	store.AddActivity(dbtest.Activity{ID: 2, Name: "Recovery", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2024-01-02T08:00:00Z"), Tags: dbtest.Ptr("easy")})
	store.AddActivity(dbtest.Activity{ID: 3, Name: "No tags", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2024-01-03T08:00:00Z")})
	store.AddActivity(dbtest.Activity{ID: 4, Name: "Empty tags", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2024-01-04T08:00:00Z"), Tags: dbtest.Ptr("")})

	svc := New(db.New(store.DB))

	tests := []struct {
		name string
		tags []string
		want []int64
	}{
		{name: "case and whitespace insensitive", tags: []string{" tempo "}, want: []int64{1}},
		{name: "any tag matches", tags: []string{"LONG", "Easy"}, want: []int64{2, 1}},
		{name: "no match", tags: []string{"intervals"}, want: []int64{}},
		{name: "no tag filter", tags: nil, want: []int64{4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activities, err := svc.ListActivities(context.Background(), Filter{Tags: tt.tags})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := []int64{}
			for _, a := range activities {
				got = append(got, a.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	activities, err := svc.ListActivities(context.Background(), Filter{Tags: []string{"TEMPO"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(activities[0].Tags, []string{"Tempo", "Long"}) {
		t.Errorf("expected original casing preserved, got %v", activities[0].Tags)
	}
}

func TestListActivitiesCombinesPredicates(t *testing.T) {
	t.Parallel()

	store := dbtest.New(t)
	store.AddActivity(dbtest.Activity{ID: 1, Name: "Old tempo", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2023-06-01T08:00:00Z"), Tags: dbtest.Ptr("tempo")})
	store.AddActivity(dbtest.Activity{ID: 2, Name: "Tempo ride", Type: dbtest.Ptr("Ride"), Date: dbtest.Ptr("2024-06-01T08:00:00Z"), Tags: dbtest.Ptr("tempo")})
	store.AddActivity(dbtest.Activity{ID: 3, Name: "Tempo run", Type: dbtest.Ptr("Run"), Date: dbtest.Ptr("2024-06-02T08:00:00Z"), Tags: dbtest.Ptr("tempo")})
	store.AddActivity(dbtest.Activity{ID: 4, Name: "Untyped tempo", Date: dbtest.Ptr("2024-06-03T08:00:00Z"), Tags: dbtest.Ptr("tempo")})

	f, err := ParseFilter([]string{"Tempo"}, []string{"Run"}, "2024-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	activities, err := New(db.New(store.DB)).ListActivities(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activities) != 1 || activities[0].ID != 3 {
		t.Fatalf("expected only activity 3, got %+v", activities)
	}
	if activities[0].Date == nil || activities[0].Date.Day() != 2 {
		t.Errorf("expected parsed date, got %v", activities[0].Date)
	}
}

func TestListActivitiesStorageFailure(t *testing.T) {
	t.Parallel()

	mock := &MockQuerier{ListErr: errors.New("database is locked")}
	activities, err := New(mock).ListActivities(context.Background(), Filter{})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if activities != nil {
		t.Errorf("expected nil activities on failure, got %v", activities)
	}
}

func TestActivityNotFound(t *testing.T) {
	t.Parallel()

	_, err := New(&MockQuerier{}).Activity(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = New(&MockQuerier{GetErr: errors.New("disk I/O error")}).Activity(context.Background(), 99)
	if !errors.Is(err, ErrStorage) || errors.Is(err, ErrNotFound) {
		t.Errorf("expected storage error distinct from not-found, got %v", err)
	}
}

func TestTags(t *testing.T) {
	t.Parallel()

	mock := &MockQuerier{Activities: []db.Activity{
		createTestActivity(1, "a", "Run", "", "b, A"),
		createTestActivity(2, "b", "Run", "", " C ,A,, "),
		createTestActivity(3, "c", "Run", "", ""),
	}}

	tags, err := New(mock).Tags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"A", "C", "b"}) {
		t.Errorf("expected [A C b], got %v", tags)
	}

	empty, err := New(&MockQuerier{}).Tags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty, non-nil slice, got %#v", empty)
	}
}

func TestRollingStatsEndToEnd(t *testing.T) {
	t.Parallel()

	store := dbtest.New(t)
	for i := 1; i <= 10; i++ {
		store.AddActivity(dbtest.Activity{
			ID:         int64(i),
			Name:       fmt.Sprintf("Day %d", i),
			Type:       dbtest.Ptr("Run"),
			Date:       dbtest.Ptr(fmt.Sprintf("2024-01-%02dT08:00:00Z", i)),
			Distance:   dbtest.Ptr(1000.0),
			MovingTime: dbtest.Ptr(int64(300)),
		})
	}

	stats, err := New(db.New(store.DB)).RollingStats(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(stats))
	}
	for _, s := range stats {
		if s.Distance7d != 7.0 || s.Duration7d != 35.0 {
			t.Errorf("%s: got %v km / %v min, want 7 / 35", s.Day, s.Distance7d, s.Duration7d)
		}
	}
	if stats[2].Distance10d != nil {
		t.Errorf("expected nil 10-day distance on %s", stats[2].Day)
	}
	if stats[3].Distance10d == nil || *stats[3].Distance10d != 10.0 {
		t.Errorf("expected 10 km on %s, got %v", stats[3].Day, stats[3].Distance10d)
	}

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	filtered, err := New(db.New(store.DB)).RollingStats(context.Background(), &start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Day != "2024-01-10" || filtered[0].Distance7d != 7.0 {
		t.Errorf("unexpected filtered rows: %+v", filtered)
	}
}

func TestRollingStatsFailureIsAtomic(t *testing.T) {
	t.Parallel()

	mock := &MockQuerier{
		Rolling:    []db.GetRollingStatsRow{{Day: "2024-01-07"}},
		RollingErr: errors.New("interrupted"),
	}
	stats, err := New(mock).RollingStats(context.Background(), nil)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if stats != nil {
		t.Errorf("expected no partial output, got %v", stats)
	}
}

func TestActivityDetailPartialFailures(t *testing.T) {
	t.Parallel()

	mock := &MockQuerier{
		Activities: []db.Activity{createTestActivity(5, "Track", "Run", "2024-01-01T08:00:00Z", "")},
		LapsErr:    errors.New("laps table missing"),
		GPSErr:     errors.New("gps table missing"),
	}

	detail, err := New(mock).ActivityDetail(context.Background(), 5)
	if err == nil {
		t.Fatal("expected combined error")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 part failures, got %d: %v", n, err)
	}
	if detail == nil {
		t.Fatal("expected partial detail")
	}
	if len(detail.Timeseries) != 1 {
		t.Errorf("expected timeseries to load, got %d samples", len(detail.Timeseries))
	}
	if detail.Laps == nil || len(detail.Laps) != 0 {
		t.Errorf("expected empty laps, got %v", detail.Laps)
	}
}

func TestActivityDetailNotFound(t *testing.T) {
	t.Parallel()

	detail, err := New(&MockQuerier{}).ActivityDetail(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if detail != nil {
		t.Errorf("expected nil detail")
	}
}

func TestTrainingSnapshot(t *testing.T) {
	t.Parallel()

	store := dbtest.New(t)
	for i := 1; i <= 25; i++ {
		store.AddActivity(dbtest.Activity{
			ID:         int64(i),
			Name:       fmt.Sprintf("Run %d", i),
			Date:       dbtest.Ptr(fmt.Sprintf("2024-03-%02dT08:00:00Z", i)),
			Distance:   dbtest.Ptr(5000.0),
			MovingTime: dbtest.Ptr(int64(1500)),
			Power:      dbtest.Ptr(250.0),
		})
	}

	now := time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC)
	snap, err := New(db.New(store.DB)).TrainingSnapshot(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Totals.Activities != 25 || snap.Totals.Distance != 125000 {
		t.Errorf("unexpected totals: %+v", snap.Totals)
	}
	if snap.LastWeek.Since != "2024-03-18" || snap.LastWeek.Activities != 8 {
		t.Errorf("unexpected last week: %+v", snap.LastWeek)
	}
	if len(snap.Recent) != 20 || snap.Recent[0].ID != 25 {
		t.Errorf("expected 20 newest activities, got %d starting at %d", len(snap.Recent), snap.Recent[0].ID)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		input interface{}
		want  string
	}{
		{nil, "unknown"},
		{"2024-01-01", "2024-01-01"},
		{[]byte("2024-01-01"), "2024-01-01"},
		{ts, "2024-01-02T03:04:05Z"},
		{42, "unknown"},
	}
	for _, tt := range tests {
		if got := formatDate(tt.input); got != tt.want {
			t.Errorf("formatDate(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	if got := FormatDistance(12345); got != "12.35 km" {
		t.Errorf("FormatDistance = %q", got)
	}
	if got := FormatDistance(800); got != "800 m" {
		t.Errorf("FormatDistance = %q", got)
	}
	if got := FormatDuration(3725); got != "1h 02m" {
		t.Errorf("FormatDuration = %q", got)
	}
	if got := FormatDuration(125); got != "2m 05s" {
		t.Errorf("FormatDuration = %q", got)
	}
	if got := FormatPace(1000.0 / 300); got != "5:00/km" {
		t.Errorf("FormatPace = %q", got)
	}
	if got := FormatPace(0); got != "N/A" {
		t.Errorf("FormatPace = %q", got)
	}
}

func TestListActivitiesBindsStartDate(t *testing.T) {
	t.Parallel()

	mock := &MockQuerier{}
	f, err := ParseFilter(nil, []string{"Run"}, "2024-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(mock).ListActivities(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mock.lastParams.StartDate.Valid || mock.lastParams.StartDate.String != "2024-05-01" {
		t.Errorf("unexpected start date param: %+v", mock.lastParams.StartDate)
	}
	if !reflect.DeepEqual(mock.lastParams.Types, []string{"Run"}) {
		t.Errorf("unexpected types param: %v", mock.lastParams.Types)
	}
}
