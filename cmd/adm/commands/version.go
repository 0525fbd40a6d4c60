package commands

import (
	"fmt"

	"campusvoice/internal/version"

	"github.com/spf13/cobra"
)

// VersionCommand prints build information
func VersionCommand(service string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get(service).String())
		},
	}
}
