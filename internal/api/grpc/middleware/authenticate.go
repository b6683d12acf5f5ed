package middleware

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	grpcctx "github.com/dtroode/authd/internal/api/grpc/context"
	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
)

// SessionValidator resolves a session token to a valid session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (model.Session, error)
}

// Authenticate rejects calls without a valid session token and stores the
// token in the request context for handlers.
type Authenticate struct {
	sessions       SessionValidator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(sessions SessionValidator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{sessions: sessions, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the bearer token from the authorization header and validates it.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	token := grpcctx.BearerToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing session token")
	}

	s, err := m.sessions.Validate(ctx, token)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrSessionInvalid):
		m.logger.Debug("Authenticate middleware: rejected session token")
		return nil, status.Error(codes.Unauthenticated, "invalid session")
	case ctx.Err() != nil:
		return nil, status.FromContextError(ctx.Err()).Err()
	default:
		m.logger.Error("Authenticate middleware: failed to validate session",
			"error", err.Error())
		return nil, status.Error(codes.Internal, "internal server error")
	}

	m.logger.Debug("Authenticate middleware: session accepted",
		"session_id", s.ID.String(),
		"account_id", s.AccountID.String())

	return m.contextManager.SetTokenToContext(ctx, token), nil
}
