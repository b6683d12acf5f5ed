// Package memory provides lock-guarded in-process implementations of the
// account and session stores. Data does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authd/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]model.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:    make(map[uuid.UUID]model.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return model.Account{}, model.ErrAccountExists
	}

	now := r.now().UTC()
	account := model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[account.ID] = account
	r.byEmail[email] = account.ID

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.UpdatedAt = r.now().UTC()
	r.byID[id] = account

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return model.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, account.Email)

	return nil
}
