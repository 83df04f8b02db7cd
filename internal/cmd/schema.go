package cmd

import (
	"database/sql"
	"fmt"

	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/joshdurbin/stryd-dashboard/internal/schema"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the layout of the activity store",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or upgrade the activity store tables for the loader",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := runtimeConfig(cmd).DBPath

		// the dashboard only reads; this is the one writable handle
		sqlDB, err := sql.Open("sqlite", path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer sqlDB.Close()

		applied, err := schema.Migrate(cmd.Context(), sqlDB)
		if err != nil {
			return err
		}
		version, err := schema.Version(cmd.Context(), sqlDB)
		if err != nil {
			return err
		}

		logging.Info("activity store ready", "path", path, "applied", applied, "version", version)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%d migrations applied)\n", path, version, applied)
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
	rootCmd.AddCommand(schemaCmd)
}
