package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
// Create must fail with ErrAccountExists when the email is already taken,
// even under concurrent registration of the same email.
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Account represents a registered account with its password digest.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordHasher produces and checks password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
	NeedsUpgrade(digest string) bool
}
