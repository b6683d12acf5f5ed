package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/authd/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (model.Account, error) {
	const query = `INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $4)
			  RETURNING id, email, password_hash, created_at, updated_at`

	var account model.Account
	err := r.db.QueryRow(ctx, query, uuid.New(), email, passwordHash, time.Now().UTC()).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAccountExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	const query = `SELECT id, email, password_hash, created_at, updated_at
			  FROM accounts WHERE email = $1`

	var account model.Account
	err := r.db.QueryRow(ctx, query, email).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	const query = `SELECT id, email, password_hash, created_at, updated_at
			  FROM accounts WHERE id = $1`

	var account model.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM accounts WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
