package main

import (
	"context"

	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/config"
	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
	"github.com/dtroode/authd/internal/repository/memory"
	"github.com/dtroode/authd/internal/repository/postgres"
	"github.com/dtroode/authd/internal/repository/sqlite"
)

// backend bundles the stores of the configured database driver.
type backend struct {
	accounts model.AccountStore
	sessions model.SessionStore
	ping     func(ctx context.Context) error
	close    func() error
}

// openBackend connects to the configured database and applies migrations.
func openBackend(ctx context.Context, cfg config.Database, log *logger.Logger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err := postgres.NewConnection(ctx, cfg.DSN, cfg.ConnectRetries, log)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Driver).Wrap(err)
		}
		return &backend{
			accounts: postgres.NewAccountRepository(conn),
			sessions: postgres.NewSessionRepository(conn),
			ping:     conn.Ping,
			close:    conn.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Driver).Wrap(err)
		}
		return &backend{
			accounts: sqlite.NewAccountRepository(db),
			sessions: sqlite.NewSessionRepository(db),
			ping:     db.PingContext,
			close:    db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return &backend{
			accounts: memory.NewAccountRepository(),
			sessions: memory.NewSessionRepository(),
			ping:     func(context.Context) error { return nil },
			close:    func() error { return nil },
		}, nil
	}

	return nil, oops.Code("CONFIG_INVALID").Errorf("unsupported database driver %q", cfg.Driver)
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "authd",
		Version: buildVersion,
	})
}
