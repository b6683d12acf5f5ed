package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// ContextManager is a mock implementation of model.ContextManager.
type ContextManager struct {
	mock.Mock
}

var _ model.ContextManager = (*ContextManager)(nil)

// NewContextManager creates a ContextManager mock whose expectations are asserted on cleanup.
func NewContextManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *ContextManager {
	m := &ContextManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ContextManager) SetTokenToContext(ctx context.Context, token string) context.Context {
	args := m.Called(ctx, token)
	return args.Get(0).(context.Context)
}

func (m *ContextManager) GetTokenFromContext(ctx context.Context) (string, bool) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1)
}
