package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/authd/internal/model"
)

// AccountStore is a mock implementation of model.AccountStore.
type AccountStore struct {
	mock.Mock
}

var _ model.AccountStore = (*AccountStore)(nil)

// NewAccountStore creates an AccountStore mock whose expectations are asserted on cleanup.
func NewAccountStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *AccountStore {
	m := &AccountStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AccountStore) Create(ctx context.Context, email, passwordHash string) (model.Account, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
