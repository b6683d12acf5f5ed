package router

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/authd/internal/api/grpc/authpb"
	"github.com/dtroode/authd/internal/api/grpc/handler"
	"github.com/dtroode/authd/internal/api/grpc/middleware"
	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
)

// Router wires the authd gRPC service and its interceptors.
type Router struct {
	authService    handler.AuthService
	sessions       middleware.SessionValidator
	observer       middleware.RequestObserver
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new gRPC Router instance. observer may be nil.
func New(
	authService handler.AuthService,
	sessions middleware.SessionValidator,
	observer middleware.RequestObserver,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		sessions:       sessions,
		observer:       observer,
		contextManager: contextManager,
		logger:         logger,
	}
}

var public = map[string]bool{
	authpb.FullMethod(authpb.MethodRegister): true,
	authpb.FullMethod(authpb.MethodLogin):    true,
}

// requiresSession reports whether a call must carry a valid session token.
func requiresSession(_ context.Context, c interceptors.CallMeta) bool {
	if public[c.FullMethod()] {
		return false
	}
	return c.Service == authpb.ServiceName
}

// Register builds the gRPC server with all services and interceptors.
func (r *Router) Register() *grpc.Server {
	authenticate := middleware.NewAuthenticate(r.sessions, r.contextManager, r.logger)

	chain := []grpc.UnaryServerInterceptor{
		middleware.NewRecovery(r.logger),
		middleware.NewLogging(r.logger).HandleGRPC,
	}
	if r.observer != nil {
		chain = append(chain, middleware.NewMetrics(r.observer).HandleGRPC)
	}
	chain = append(chain, selector.UnaryServerInterceptor(
		auth.UnaryServerInterceptor(authenticate.AuthFunc),
		selector.MatchFunc(requiresSession),
	))

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))

	authpb.RegisterAuthServer(s, handler.NewAuth(r.authService, r.contextManager, r.logger))

	hs := health.NewServer()
	hs.SetServingStatus(authpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s
}
