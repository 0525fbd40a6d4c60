// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseProvider opens the database on first use without applying migrations
type DatabaseProvider func(ctx context.Context) (*sql.DB, error)

// Migrator applies and inspects schema migrations
type Migrator interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	MigrateDown(ctx context.Context, db *sql.DB, steps int) error
	MigrationVersion(ctx context.Context, db *sql.DB) (uint, bool, error)
}

// DatabaseCommands returns the database management commands
func DatabaseCommands(provider DatabaseProvider, migrator Migrator, databaseURL string, logger *observability.Logger) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for CampusVoice.

Available commands:
  info      - Show which database the tool is connected to
  migrate   - Apply, roll back or inspect schema migrations`,
	}

	dbCmd.AddCommand(infoCmd(provider, databaseURL))
	dbCmd.AddCommand(migrateCmd(provider, migrator, logger))

	return dbCmd
}

func infoCmd(provider DatabaseProvider, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database connection information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := provider(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "URL:      %s\n", maskDatabaseURL(databaseURL))
			fmt.Fprintf(out, "Database: %s\n", getDatabaseInfo(ctx, db))
			return nil
		},
	}
}

func migrateCmd(provider DatabaseProvider, migrator Migrator, logger *observability.Logger) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Schema migration commands",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := provider(ctx)
			if err != nil {
				return err
			}
			if err := migrator.RunMigrations(ctx, db); err != nil {
				logger.Error(ctx, "Migration failed", err, nil)
				return contextutils.WrapError(err, "failed to apply migrations")
			}
			return printMigrationVersion(cmd, migrator, db)
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations",
		Long:  `Roll back the given number of migrations, or every migration when steps is omitted.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 0
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return contextutils.ErrorWithContextf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			ctx := cmd.Context()
			db, err := provider(ctx)
			if err != nil {
				return err
			}
			if err := migrator.MigrateDown(ctx, db, steps); err != nil {
				logger.Error(ctx, "Rollback failed", err, map[string]interface{}{"steps": steps})
				return contextutils.WrapError(err, "failed to roll back migrations")
			}
			return printMigrationVersion(cmd, migrator, db)
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := provider(cmd.Context())
			if err != nil {
				return err
			}
			return printMigrationVersion(cmd, migrator, db)
		},
	})

	return migrate
}

func printMigrationVersion(cmd *cobra.Command, migrator Migrator, db *sql.DB) error {
	version, dirty, err := migrator.MigrationVersion(cmd.Context(), db)
	if err != nil {
		return contextutils.WrapError(err, "failed to read schema version")
	}

	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
	return nil
}
