package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "migrate", "sweep"} {
		assert.Contains(t, output, sub, "help missing %q command", sub)
	}
}

func TestMigrateCommand(t *testing.T) {
	t.Run("memory driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "memory")

		output, err := execute(t, "migrate")
		require.NoError(t, err)
		assert.Contains(t, output, "nothing to migrate")
	})

	t.Run("sqlite driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "sqlite")
		t.Setenv("DATABASE_SQLITE_PATH", filepath.Join(t.TempDir(), "authd.db"))

		output, err := execute(t, "migrate")
		require.NoError(t, err)
		assert.Contains(t, output, "Migrations completed successfully")
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "mysql")

		_, err := execute(t, "migrate")
		require.Error(t, err)
	})
}

func TestSweepCommand(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_SQLITE_PATH", filepath.Join(t.TempDir(), "authd.db"))

	output, err := execute(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted 0 expired sessions")
}

func TestServeCommand_RejectsZeroSweepInterval(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("SESSION_SWEEP_INTERVAL", "0s")

	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweep interval")
}

func TestWatchObservability(t *testing.T) {
	t.Run("server failure stops the process", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		obsErr := make(chan error, 1)
		serveErr := make(chan error, 1)
		obsErr <- errors.New("listener closed")

		watchObservability(ctx, obsErr, serveErr, cancel)

		require.ErrorContains(t, <-serveErr, "listener closed")
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("clean stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		obsErr := make(chan error)
		close(obsErr)
		serveErr := make(chan error, 1)

		watchObservability(ctx, obsErr, serveErr, cancel)

		assert.NoError(t, ctx.Err())
		assert.Empty(t, serveErr)
	})

	t.Run("shutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			watchObservability(ctx, make(chan error), make(chan error, 1), cancel)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("watcher did not return after shutdown")
		}
	})
}
