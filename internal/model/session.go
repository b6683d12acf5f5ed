package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionStore defines persistence operations for sessions.
// Sessions are looked up by the SHA-256 hash of their token; the plaintext
// token is never persisted.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) ([]Session, error)
	// Revoke marks a not yet revoked session as revoked. It returns ErrNotFound
	// when no such session exists or it was already revoked.
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, exceptTokenHash string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Session represents an authenticated session owned by an account.
type Session struct {
	ID        ulid.ULID
	AccountID uuid.UUID
	TokenHash string
	UserAgent string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// ValidAt reports whether the session is usable at the given instant.
func (s Session) ValidAt(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// ClientInfo carries optional client metadata recorded with a session.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}
