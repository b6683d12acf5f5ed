package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dtroode/authd/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations for the configured database driver.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	log := newLogger(cfg)

	if cfg.Database.Driver == config.DriverMemory {
		cmd.Println("Memory driver has no schema, nothing to migrate")
		return nil
	}

	cmd.Println("Running migrations...")
	b, err := openBackend(cmd.Context(), cfg.Database, log)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	defer b.close()

	cmd.Println("Migrations completed successfully")
	return nil
}
