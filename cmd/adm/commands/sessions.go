package commands

import (
	"context"
	"fmt"

	"campusvoice/internal/observability"
	contextutils "campusvoice/internal/utils"

	"github.com/spf13/cobra"
)

// SessionAdmin is the part of the session store the CLI manages
type SessionAdmin interface {
	Count(ctx context.Context) (int, error)
	RevokeAll(ctx context.Context) (int, error)
}

// SessionAdminProvider connects to Redis on first use and returns the session store
type SessionAdminProvider func(ctx context.Context) (SessionAdmin, error)

// SessionCommands returns the admin session management commands
func SessionCommands(provider SessionAdminProvider, logger *observability.Logger) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Admin session management commands",
		Long: `Admin session management commands.

Available commands:
  count       - Count live admin sessions
  revoke-all  - Sign every admin out`,
	}

	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Count live admin sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := provider(ctx)
			if err != nil {
				return err
			}

			n, err := store.Count(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to count sessions", err, nil)
				return contextutils.WrapError(err, "failed to count sessions")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d active session(s)\n", n)
			return nil
		},
	})

	var confirm bool
	revokeCmd := &cobra.Command{
		Use:   "revoke-all",
		Short: "Sign every admin out",
		Long:  `Delete every stored admin session. Requires --yes.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return contextutils.ErrorWithContextf("refusing to revoke sessions without --yes")
			}

			ctx := cmd.Context()
			store, err := provider(ctx)
			if err != nil {
				return err
			}

			n, err := store.RevokeAll(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to revoke sessions", err, nil)
				return contextutils.WrapError(err, "failed to revoke sessions")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %d session(s)\n", n)
			logger.Info(ctx, "Revoked all admin sessions", map[string]interface{}{"revoked": n})
			return nil
		},
	}
	revokeCmd.Flags().BoolVar(&confirm, "yes", false, "Confirm revoking every session")
	sessionsCmd.AddCommand(revokeCmd)

	return sessionsCmd
}
