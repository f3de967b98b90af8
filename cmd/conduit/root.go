package main

import (
	"github.com/spf13/cobra"
)

// BuildRootCmd assembles the conduit command tree.
func BuildRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "conduit",
		Short:        "Conduit authentication server and session administration",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		buildServeCmd(),
		buildTokenCmd(),
		buildSessionCmd(),
	)
	return cmd
}
