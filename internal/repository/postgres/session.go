package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/dtroode/authd/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, account_id, token_hash, user_agent, ip_address, created_at, expires_at, revoked`

func (r *SessionRepository) Create(ctx context.Context, s model.Session) error {
	const query = `
        INSERT INTO sessions (` + sessionColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := r.db.Exec(ctx, query,
		s.ID.String(), s.AccountID, s.TokenHash, s.UserAgent, s.IPAddress,
		s.CreatedAt, s.ExpiresAt, s.Revoked,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1`

	s, err := scanSession(r.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) ([]model.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM sessions
        WHERE account_id = $1 AND revoked = FALSE AND expires_at > $2
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	const query = `UPDATE sessions SET revoked = TRUE WHERE token_hash = $1 AND revoked = FALSE`

	tag, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, exceptTokenHash string) (int64, error) {
	const query = `
        UPDATE sessions SET revoked = TRUE
        WHERE account_id = $1 AND revoked = FALSE AND token_hash <> $2
    `

	tag, err := r.db.Exec(ctx, query, accountID, exceptTokenHash)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke account sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at < $1`

	tag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSession(row pgx.Row) (model.Session, error) {
	var (
		s  model.Session
		id string
	)
	err := row.Scan(&id, &s.AccountID, &s.TokenHash, &s.UserAgent, &s.IPAddress,
		&s.CreatedAt, &s.ExpiresAt, &s.Revoked)
	if err != nil {
		return model.Session{}, err
	}

	s.ID, err = ulid.Parse(id)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to parse session id: %w", err)
	}
	return s, nil
}
