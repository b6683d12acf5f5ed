package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/authd/internal/model"
)

// handleError maps domain errors to gRPC statuses. Credential failures share
// one message so responses never reveal whether an email is registered.
func handleError(err error) error {
	switch {
	case errors.Is(err, model.ErrAccountExists):
		return status.Error(codes.AlreadyExists, "account already exists")
	case errors.Is(err, model.ErrWeakPassword):
		return status.Error(codes.InvalidArgument, "password does not meet strength requirements")
	case errors.Is(err, model.ErrInvalidEmail):
		return status.Error(codes.InvalidArgument, "invalid email address")
	case errors.Is(err, model.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid email or password")
	case errors.Is(err, model.ErrSessionInvalid):
		return status.Error(codes.Unauthenticated, "invalid session")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
