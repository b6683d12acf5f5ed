package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/authd/internal/api/grpc/context"
	"github.com/dtroode/authd/internal/api/grpc/middleware"
	"github.com/dtroode/authd/internal/api/grpc/router"
	grpcServer "github.com/dtroode/authd/internal/api/grpc/server"
	"github.com/dtroode/authd/internal/config"
	"github.com/dtroode/authd/internal/hasher"
	"github.com/dtroode/authd/internal/model"
	"github.com/dtroode/authd/internal/observability"
	"github.com/dtroode/authd/internal/server"
	"github.com/dtroode/authd/internal/service"
	"github.com/dtroode/authd/internal/session"
	"github.com/dtroode/authd/internal/sweeper"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC authentication server",
		Long: `Start the gRPC server together with the session sweeper and,
when enabled, the metrics and health endpoint.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := newLogger(cfg)

	b, err := openBackend(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		return err
	}
	defer b.close()

	argon := hasher.NewArgon2id(hasher.Params{
		Time:    cfg.KDF.Time,
		MemKiB:  cfg.KDF.MemKiB,
		Threads: cfg.KDF.Par,
	})
	sessions := session.NewManager(b.sessions, logger,
		session.WithTTL(cfg.Session.TTL),
		session.WithGrace(cfg.Session.GCGrace),
	)
	policy := service.PasswordPolicy{
		MinLength:  cfg.Password.MinLength,
		MaxLength:  cfg.Password.MaxLength,
		MinClasses: cfg.Password.MinClasses,
	}

	authService, err := service.NewAuth(b.accounts, sessions, argon, policy, logger)
	if err != nil {
		logger.Error("failed to initialize auth service", "error", err)
		return err
	}

	var (
		requestObserver middleware.RequestObserver
		sweepObserver   sweeper.Observer
		obs             *observability.Server
	)
	if cfg.Metrics.Enabled {
		obs = observability.NewServer(cfg.Metrics.Addr, b.ping, logger)
		requestObserver = obs.Metrics()
		sweepObserver = obs.Metrics()
	}

	worker, err := sweeper.NewWorker(sessions, cfg.Session.SweepInterval, sweepObserver, logger)
	if err != nil {
		logger.Error("failed to initialize session sweeper", "error", err)
		return err
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 2)

	if obs != nil {
		obsErr, err := obs.Start()
		if err != nil {
			logger.Error("failed to start observability server", "error", err)
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			watchObservability(ctx, obsErr, serveErr, stop)
		}()
	}

	r := router.New(authService, sessions, requestObserver, grpcctx.NewManager(), logger)
	s := r.Register()
	reflection.Register(s)

	gs := grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port))
	sl := server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "version", buildVersion, "commit", buildCommit)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			serveErr <- err
			stop()
		}
	}(gs)

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := gs.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", gs.Address())
	}
	if obs != nil {
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Error("error during observability server shutdown", "error", err)
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// watchObservability forwards a failure of the observability server to
// serveErr and cancels the process context. It returns when ctx is done or
// the server's error channel is closed.
func watchObservability(ctx context.Context, obsErr <-chan error, serveErr chan<- error, stop context.CancelFunc) {
	select {
	case <-ctx.Done():
	case err, ok := <-obsErr:
		if !ok {
			return
		}
		serveErr <- oops.Code("OBSERVABILITY_FAILED").Wrap(err)
		stop()
	}
}
