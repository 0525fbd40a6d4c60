// Package main provides the main entry point for the CampusVoice admin CLI tool.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"campusvoice/cmd/adm/commands"
	"campusvoice/internal/config"
	"campusvoice/internal/database"
	"campusvoice/internal/di"
	"campusvoice/internal/observability"
	"campusvoice/internal/serviceinterfaces"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// configSearchPaths are tried in order when CAMPUSVOICE_CONFIG_FILE is unset
var configSearchPaths = []string{
	"../config.yaml",    // From cmd/adm/
	"../../config.yaml", // From cmd/adm/ (alternative)
	"config.yaml",       // Current directory
}

func main() {
	_ = godotenv.Load()

	if os.Getenv(config.ConfigFileEnv) == "" {
		for _, path := range configSearchPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv(config.ConfigFileEnv, path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set %s: %v\n", config.ConfigFileEnv, err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep the CLI quiet and offline
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, config.ServiceName+"-adm", "error")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	rt := newRuntime(di.NewServiceContainer(cfg, providers.Logger))
	rootCmd := newRootCommand(rt)

	err = rootCmd.ExecuteContext(context.Background())
	rt.close(context.Background())
	_ = providers.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// runtime opens connections only when a command needs them
type runtime struct {
	container di.ServiceContainerInterface

	dbManager *database.Manager
	dbOnce    sync.Once
	db        *sql.DB
	dbErr     error
}

func newRuntime(container di.ServiceContainerInterface) *runtime {
	return &runtime{
		container: container,
		dbManager: database.NewManager(container.GetLogger()),
	}
}

func (rt *runtime) complaintService(ctx context.Context) (serviceinterfaces.ComplaintService, error) {
	if err := rt.container.InitializeDatabase(ctx); err != nil {
		return nil, err
	}
	return rt.container.GetComplaintService()
}

func (rt *runtime) sessionStore(ctx context.Context) (commands.SessionAdmin, error) {
	if err := rt.container.InitializeSessions(ctx); err != nil {
		return nil, err
	}
	store, err := rt.container.GetSessionStore()
	if err != nil {
		return nil, err
	}
	return store, nil
}

// database opens a pool without migrating so migrate commands see the real schema state
func (rt *runtime) database(ctx context.Context) (*sql.DB, error) {
	rt.dbOnce.Do(func() {
		rt.db, rt.dbErr = rt.dbManager.InitDBWithoutMigrations(ctx, rt.container.GetConfig().Database)
	})
	return rt.db, rt.dbErr
}

func (rt *runtime) close(ctx context.Context) {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.container.GetLogger().Warn(ctx, "Failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := rt.container.Shutdown(ctx); err != nil {
		rt.container.GetLogger().Warn(ctx, "Failed to release connections", map[string]interface{}{"error": err.Error()})
	}
}

func newRootCommand(rt *runtime) *cobra.Command {
	logger := rt.container.GetLogger()
	cfg := rt.container.GetConfig()

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "CampusVoice Administration Tool",
		Long: `CampusVoice Administration Tool

Moderate complaints, manage admin sessions and run schema migrations
against the same database and Redis the server uses.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.ComplaintCommands(rt.complaintService, logger))
	rootCmd.AddCommand(commands.SessionCommands(rt.sessionStore, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(rt.database, rt.dbManager, cfg.Database.URL, logger))
	rootCmd.AddCommand(commands.VersionCommand(config.ServiceName))

	return rootCmd
}
