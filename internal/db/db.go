package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/joshdurbin/stryd-dashboard/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrUnavailable is returned when the activity store cannot be opened.
var ErrUnavailable = errors.New("activity store unavailable")

// DBTX is the subset of *sql.DB used by Queries.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries runs the dashboard's read queries against the activity store.
type Queries struct {
	db DBTX
}

// New wraps a database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ReadOnlyDSN builds a modernc sqlite DSN that opens path in read-only,
// query-only mode with a busy timeout.
func ReadOnlyDSN(path string) string {
	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", "query_only(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// Open opens the activity store read-only. A missing or unreadable file
// yields ErrUnavailable.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	log := logging.Logger

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	sqlDB, err := sql.Open("sqlite", ReadOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, path, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: connecting to %s: %v", ErrUnavailable, path, err)
	}

	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(4)

	log.Debug().
		Str("path", path).
		Str("mode", "read-only").
		Str("busy_timeout", "5000ms").
		Msg("SQLite configured")
	return sqlDB, nil
}
