package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// SessionValidator is a mock of the session validation dependency of the
// authentication middleware.
type SessionValidator struct {
	mock.Mock
}

// NewSessionValidator creates a SessionValidator mock whose expectations are asserted on cleanup.
func NewSessionValidator(t interface {
	mock.TestingT
	Cleanup(func())
}) *SessionValidator {
	m := &SessionValidator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionValidator) Validate(ctx context.Context, token string) (model.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Session), args.Error(1)
}
