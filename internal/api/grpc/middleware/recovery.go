package middleware

import (
	"context"
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authd/internal/logger"
)

// NewRecovery returns an interceptor that turns handler panics into
// codes.Internal responses.
func NewRecovery(log *logger.Logger) grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(
		recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			log.ErrorContext(ctx, "gRPC handler panicked",
				"panic", p,
				"stack", string(debug.Stack()))
			return status.Error(codes.Internal, "internal server error")
		}),
	)
}
