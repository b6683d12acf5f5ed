package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// SessionStore is a mock implementation of model.SessionStore.
type SessionStore struct {
	mock.Mock
}

var _ model.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore mock whose expectations are asserted on cleanup.
func NewSessionStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *SessionStore {
	m := &SessionStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SessionStore) Create(ctx context.Context, s model.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(model.Session), args.Error(1)
}

func (m *SessionStore) ListByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) ([]model.Session, error) {
	args := m.Called(ctx, accountID, now)
	sessions, _ := args.Get(0).([]model.Session)
	return sessions, args.Error(1)
}

func (m *SessionStore) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *SessionStore) RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, exceptTokenHash string) (int64, error) {
	args := m.Called(ctx, accountID, exceptTokenHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
