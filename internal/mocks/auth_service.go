package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// AuthService is a mock of the account and session operations used by the gRPC handler.
type AuthService struct {
	mock.Mock
}

// NewAuthService creates an AuthService mock whose expectations are asserted on cleanup.
func NewAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthService {
	m := &AuthService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AuthService) Register(ctx context.Context, email, password string) (model.Account, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, password string, client model.ClientInfo) (string, model.Session, error) {
	args := m.Called(ctx, email, password, client)
	return args.String(0), args.Get(1).(model.Session), args.Error(2)
}

func (m *AuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *AuthService) CurrentAccount(ctx context.Context, token string) (model.Account, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AuthService) Refresh(ctx context.Context, token string, client model.ClientInfo) (string, model.Session, error) {
	args := m.Called(ctx, token, client)
	return args.String(0), args.Get(1).(model.Session), args.Error(2)
}

func (m *AuthService) ChangePassword(ctx context.Context, token, current, next string, revokeOthers bool) error {
	args := m.Called(ctx, token, current, next, revokeOthers)
	return args.Error(0)
}

func (m *AuthService) DeleteAccount(ctx context.Context, token, password string) error {
	args := m.Called(ctx, token, password)
	return args.Error(0)
}

func (m *AuthService) ListSessions(ctx context.Context, token string) ([]model.Session, error) {
	args := m.Called(ctx, token)
	sessions, _ := args.Get(0).([]model.Session)
	return sessions, args.Error(1)
}

func (m *AuthService) RevokeOtherSessions(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}
