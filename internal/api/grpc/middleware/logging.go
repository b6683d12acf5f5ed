package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authd/internal/logger"
)

// Logging is a unary interceptor that logs gRPC requests and results.
// Request and response payloads are never logged.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC logs method name, duration and status for each unary request.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	l.logger.DebugContext(ctx, "gRPC request started",
		"method", info.FullMethod)

	resp, err := handler(ctx, req)

	code := codeOf(err)
	args := []any{
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	switch code {
	case codes.OK:
		l.logger.InfoContext(ctx, "gRPC request completed", args...)
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		l.logger.ErrorContext(ctx, "gRPC request failed", append(args, "error", err.Error())...)
	default:
		l.logger.WarnContext(ctx, "gRPC request rejected", args...)
	}

	return resp, err
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}
