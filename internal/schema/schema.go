// Package schema owns the layout of the activity store. The dashboard itself
// never writes to the store; these migrations exist so an empty store can be
// prepared for the external loader and so tests can build fixtures.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded migration files rooted at the migrations dir.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		// embed paths are fixed at compile time
		panic(err)
	}
	return sub
}

// Migrate applies all pending migrations to a writable handle.
func Migrate(ctx context.Context, sqlDB *sql.DB) (int, error) {
	log := logging.Logger

	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, Migrations())
	if err != nil {
		return 0, fmt.Errorf("creating goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("running migrations: %w", err)
	}

	for _, r := range results {
		log.Debug().Int64("version", r.Source.Version).Str("path", r.Source.Path).Msg("migration applied")
	}
	log.Debug().Int("applied", len(results)).Msg("database migrations completed")

	return len(results), nil
}

// Version reports the current schema version of the store.
func Version(ctx context.Context, sqlDB *sql.DB) (int64, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, Migrations())
	if err != nil {
		return 0, fmt.Errorf("creating goose provider: %w", err)
	}
	return provider.GetDBVersion(ctx)
}
