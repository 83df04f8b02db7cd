package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/joshdurbin/stryd-dashboard/internal/db"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/rs/zerolog"
)

// captureLog swaps the global logger for one writing JSON into a buffer.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	saved := logging.Logger
	logging.Logger = zerolog.New(&buf)
	t.Cleanup(func() { logging.Logger = saved })
	return &buf
}

func TestLogDatabaseStats(t *testing.T) {
	buf := captureLog(t)

	mock := &MockQuerier{Activities: []db.Activity{
		createTestActivity(1, "First", "Run", "2024-01-01T08:00:00Z", ""),
		createTestActivity(2, "Last", "Run", "2024-01-10T08:00:00Z", ""),
	}}
	New(mock).LogDatabaseStats(context.Background())

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["total_activities"] != float64(2) {
		t.Errorf("expected total_activities=2, got %v", entry["total_activities"])
	}
	if entry["newest_activity"] != "2024-01-10T08:00:00Z" {
		t.Errorf("unexpected newest_activity: %v", entry["newest_activity"])
	}
	if entry["oldest_activity"] != "2024-01-01T08:00:00Z" {
		t.Errorf("unexpected oldest_activity: %v", entry["oldest_activity"])
	}
}

func TestLogDatabaseStatsEmptyStore(t *testing.T) {
	buf := captureLog(t)

	New(&MockQuerier{}).LogDatabaseStats(context.Background())

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["total_activities"] != float64(0) {
		t.Errorf("expected total_activities=0, got %v", entry["total_activities"])
	}
	if _, ok := entry["newest_activity"]; ok {
		t.Error("expected no dates for an empty store")
	}
}
