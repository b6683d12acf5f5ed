package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authd/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, email, passwordHash string) (model.Account, error) {
	const query = `INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	account := model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.ExecContext(ctx, query,
		account.ID.String(), account.Email, account.PasswordHash, toNanos(now), toNanos(now))
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
			  FROM accounts WHERE email = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	const query = `SELECT id, email, password_hash, created_at, updated_at
			  FROM accounts WHERE id = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, passwordHash, toNanos(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	return requireAffected(res)
}

func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM accounts WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireAffected(res)
}

func scanAccount(row *sql.Row) (model.Account, error) {
	var (
		account              model.Account
		id                   string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &account.Email, &account.PasswordHash, &createdAt, &updatedAt); err != nil {
		return model.Account{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to parse account id: %w", err)
	}
	account.ID = parsed
	account.CreatedAt = fromNanos(createdAt)
	account.UpdatedAt = fromNanos(updatedAt)

	return account, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
