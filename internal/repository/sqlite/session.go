package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/dtroode/authd/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, account_id, token_hash, user_agent, ip_address, created_at, expires_at, revoked`

type scanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepository) Create(ctx context.Context, s model.Session) error {
	const query = `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID.String(), s.AccountID.String(), s.TokenHash, s.UserAgent, s.IPAddress,
		toNanos(s.CreatedAt), toNanos(s.ExpiresAt), s.Revoked)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = ?`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, model.ErrNotFound
		}
		return model.Session{}, fmt.Errorf("failed to get session by token hash: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) ([]model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions
			  WHERE account_id = ? AND revoked = 0 AND expires_at > ?
			  ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID.String(), toNanos(now))
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
	const query = `UPDATE sessions SET revoked = 1 WHERE token_hash = ? AND revoked = 0`

	res, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return requireAffected(res)
}

func (r *SessionRepository) RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, exceptTokenHash string) (int64, error) {
	const query = `UPDATE sessions SET revoked = 1
			  WHERE account_id = ? AND revoked = 0 AND token_hash <> ?`

	res, err := r.db.ExecContext(ctx, query, accountID.String(), exceptTokenHash)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke account sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at < ?`

	res, err := r.db.ExecContext(ctx, query, toNanos(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func scanSession(row scanner) (model.Session, error) {
	var (
		s                    model.Session
		id, accountID        string
		createdAt, expiresAt int64
	)
	err := row.Scan(&id, &accountID, &s.TokenHash, &s.UserAgent, &s.IPAddress,
		&createdAt, &expiresAt, &s.Revoked)
	if err != nil {
		return model.Session{}, err
	}

	if s.ID, err = ulid.Parse(id); err != nil {
		return model.Session{}, fmt.Errorf("failed to parse session id: %w", err)
	}
	if s.AccountID, err = uuid.Parse(accountID); err != nil {
		return model.Session{}, fmt.Errorf("failed to parse account id: %w", err)
	}
	s.CreatedAt = fromNanos(createdAt)
	s.ExpiresAt = fromNanos(expiresAt)

	return s, nil
}
