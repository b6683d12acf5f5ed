package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/authd/internal/api/grpc/authpb"
	grpcctx "github.com/dtroode/authd/internal/api/grpc/context"
	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
)

// AuthService defines account and session operations.
type AuthService interface {
	Register(ctx context.Context, email, password string) (model.Account, error)
	Login(ctx context.Context, email, password string, client model.ClientInfo) (string, model.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentAccount(ctx context.Context, token string) (model.Account, error)
	Refresh(ctx context.Context, token string, client model.ClientInfo) (string, model.Session, error)
	ChangePassword(ctx context.Context, token, current, next string, revokeOthers bool) error
	DeleteAccount(ctx context.Context, token, password string) error
	ListSessions(ctx context.Context, token string) ([]model.Session, error)
	RevokeOtherSessions(ctx context.Context, token string) (int64, error)
}

// Auth handles gRPC endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

var _ authpb.AuthServer = (*Auth)(nil)

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates an account.
func (h *Auth) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := stringField(req, "email"), stringField(req, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	account, err := h.authService.Register(ctx, email, password)
	if err != nil {
		h.logger.Debug("Auth handler: registration failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	return h.respond(map[string]any{"account": accountValue(account)})
}

// Login exchanges credentials for a session token.
func (h *Auth) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := stringField(req, "email"), stringField(req, "password")
	if email == "" || password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	token, s, err := h.authService.Login(ctx, email, password, grpcctx.ClientInfo(ctx))
	if err != nil {
		h.logger.Debug("Auth handler: login failed",
			"error", err.Error())
		return nil, handleError(err)
	}

	return h.respond(map[string]any{
		"token":   token,
		"session": sessionValue(s),
	})
}

// Logout revokes the caller's session.
func (h *Auth) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.authService.Logout(ctx, token); err != nil {
		return nil, handleError(err)
	}

	return h.respond(nil)
}

// CurrentAccount returns the account owning the caller's session.
func (h *Auth) CurrentAccount(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	account, err := h.authService.CurrentAccount(ctx, token)
	if err != nil {
		return nil, handleError(err)
	}

	return h.respond(map[string]any{"account": accountValue(account)})
}

// Refresh rotates the caller's session token.
func (h *Auth) Refresh(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	newToken, s, err := h.authService.Refresh(ctx, token, grpcctx.ClientInfo(ctx))
	if err != nil {
		return nil, handleError(err)
	}

	return h.respond(map[string]any{
		"token":   newToken,
		"session": sessionValue(s),
	})
}

// ChangePassword replaces the caller's password.
func (h *Auth) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	current, next := stringField(req, "current_password"), stringField(req, "new_password")
	if current == "" || next == "" {
		return nil, status.Error(codes.InvalidArgument, "current and new password are required")
	}

	err = h.authService.ChangePassword(ctx, token, current, next, boolField(req, "revoke_other_sessions"))
	if err != nil {
		return nil, handleError(err)
	}

	return h.respond(nil)
}

// DeleteAccount deletes the caller's account after re-checking the password.
func (h *Auth) DeleteAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	password := stringField(req, "password")
	if password == "" {
		return nil, status.Error(codes.InvalidArgument, "password is required")
	}

	if err := h.authService.DeleteAccount(ctx, token, password); err != nil {
		return nil, handleError(err)
	}

	return h.respond(nil)
}

// ListSessions returns the caller's active sessions.
func (h *Auth) ListSessions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := h.authService.ListSessions(ctx, token)
	if err != nil {
		return nil, handleError(err)
	}

	return h.respond(map[string]any{"sessions": sessionsValue(sessions)})
}

// RevokeOtherSessions revokes all sessions of the caller except the current one.
func (h *Auth) RevokeOtherSessions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, err := h.token(ctx)
	if err != nil {
		return nil, err
	}

	n, err := h.authService.RevokeOtherSessions(ctx, token)
	if err != nil {
		return nil, handleError(err)
	}

	return h.respond(map[string]any{"revoked": n})
}

func (h *Auth) token(ctx context.Context) (string, error) {
	token, ok := h.contextManager.GetTokenFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing session token")
	}
	return token, nil
}

func (h *Auth) respond(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		h.logger.Error("Auth handler: failed to encode response",
			"error", err.Error())
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
