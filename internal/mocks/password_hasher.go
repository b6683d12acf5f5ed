package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// PasswordHasher is a mock implementation of model.PasswordHasher.
type PasswordHasher struct {
	mock.Mock
}

var _ model.PasswordHasher = (*PasswordHasher)(nil)

// NewPasswordHasher creates a PasswordHasher mock whose expectations are asserted on cleanup.
func NewPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *PasswordHasher {
	m := &PasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(password, digest string) (bool, error) {
	args := m.Called(password, digest)
	return args.Bool(0), args.Error(1)
}

func (m *PasswordHasher) NeedsUpgrade(digest string) bool {
	args := m.Called(digest)
	return args.Bool(0)
}
