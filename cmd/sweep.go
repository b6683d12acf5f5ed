package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dtroode/authd/internal/config"
	"github.com/dtroode/authd/internal/session"
	"github.com/dtroode/authd/internal/sweeper"
)

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions once",
		Long:  `Delete sessions whose expiry plus the configured grace window has passed, then exit.`,
		RunE:  runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	log := newLogger(cfg)

	b, err := openBackend(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer b.close()

	manager := session.NewManager(b.sessions, log,
		session.WithTTL(cfg.Session.TTL),
		session.WithGrace(cfg.Session.GCGrace),
	)

	worker, err := sweeper.NewWorker(manager, cfg.Session.SweepInterval, nil, log)
	if err != nil {
		return err
	}

	deleted, err := worker.RunOnce(cmd.Context())
	if err != nil {
		return oops.Code("SWEEP_FAILED").Wrap(err)
	}

	cmd.Printf("Deleted %d expired sessions\n", deleted)
	return nil
}
