package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "authd - self-hosted email/password authentication",
		Long: `authd registers accounts, verifies passwords and manages sessions
backed by Postgres, SQLite or memory. Configuration is read from the environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}
