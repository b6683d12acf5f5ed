// Package session issues, validates and revokes opaque session tokens.
//
// A session is valid while it is not revoked and the current time is before
// its expiry. Expired, revoked and unknown tokens are indistinguishable to
// callers: all of them yield model.ErrSessionInvalid.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
)

// Defaults for session lifetime.
const (
	DefaultTTL   = 7 * 24 * time.Hour
	DefaultGrace = 24 * time.Hour
)

// Manager owns the session lifecycle on top of a SessionStore.
type Manager struct {
	store   model.SessionStore
	ttl     time.Duration
	grace   time.Duration
	now     func() time.Time
	entropy io.Reader
	logger  *logger.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithTTL sets how long issued sessions stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithGrace sets how long expired sessions are kept before Sweep deletes them.
func WithGrace(grace time.Duration) Option {
	return func(m *Manager) { m.grace = grace }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager.
func NewManager(store model.SessionStore, logger *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		ttl:     DefaultTTL,
		grace:   DefaultGrace,
		now:     time.Now,
		entropy: rand.Reader,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue creates a session for the account and returns its plaintext token.
func (m *Manager) Issue(ctx context.Context, accountID uuid.UUID, client model.ClientInfo) (string, model.Session, error) {
	token, hash, err := generateToken(m.entropy)
	if err != nil {
		return "", model.Session{}, err
	}

	now := m.now().UTC()
	s := model.Session{
		ID:        ulid.Make(),
		AccountID: accountID,
		TokenHash: hash,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, s); err != nil {
		return "", model.Session{}, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	m.logger.Debug("Session manager: session issued",
		"session_id", s.ID.String(),
		"account_id", accountID.String(),
		"expires_at", s.ExpiresAt)

	return token, s, nil
}

// Validate resolves a token to its session if the session is currently valid.
func (m *Manager) Validate(ctx context.Context, token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, invalid()
	}

	s, err := m.store.GetByTokenHash(ctx, HashToken(token))
	if errors.Is(err, model.ErrNotFound) {
		return model.Session{}, invalid()
	}
	if err != nil {
		return model.Session{}, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if !s.ValidAt(m.now()) {
		m.logger.Debug("Session manager: rejected inactive session",
			"session_id", s.ID.String(),
			"revoked", s.Revoked)
		return model.Session{}, invalid()
	}

	return s, nil
}

// Revoke invalidates the session behind the token. Only one of several
// concurrent revocations of the same token succeeds.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	s, err := m.Validate(ctx, token)
	if err != nil {
		return err
	}

	return m.revoke(ctx, s)
}

// Refresh rotates a valid session: the presented one is revoked and a new
// session for the same account is issued.
func (m *Manager) Refresh(ctx context.Context, token string, client model.ClientInfo) (string, model.Session, error) {
	s, err := m.Validate(ctx, token)
	if err != nil {
		return "", model.Session{}, err
	}

	if err := m.revoke(ctx, s); err != nil {
		return "", model.Session{}, err
	}

	if client.UserAgent == "" && client.IPAddress == "" {
		client = model.ClientInfo{UserAgent: s.UserAgent, IPAddress: s.IPAddress}
	}

	return m.Issue(ctx, s.AccountID, client)
}

// RevokeAll revokes every active session of the account.
func (m *Manager) RevokeAll(ctx context.Context, accountID uuid.UUID) (int64, error) {
	n, err := m.store.RevokeAllByAccount(ctx, accountID, "")
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_ALL_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return n, nil
}

// RevokeOthers revokes every session of the token's account except its own.
func (m *Manager) RevokeOthers(ctx context.Context, token string) (int64, error) {
	s, err := m.Validate(ctx, token)
	if err != nil {
		return 0, err
	}

	n, err := m.store.RevokeAllByAccount(ctx, s.AccountID, s.TokenHash)
	if err != nil {
		return 0, oops.Code("SESSION_REVOKE_OTHERS_FAILED").
			With("account_id", s.AccountID.String()).
			Wrap(err)
	}
	return n, nil
}

// List returns the account's currently valid sessions, newest first.
func (m *Manager) List(ctx context.Context, accountID uuid.UUID) ([]model.Session, error) {
	sessions, err := m.store.ListByAccount(ctx, accountID, m.now())
	if err != nil {
		return nil, oops.Code("SESSION_LIST_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return sessions, nil
}

// Sweep deletes sessions that expired more than the grace window ago.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.grace)
	n, err := m.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").
			With("cutoff", cutoff).
			Wrap(err)
	}
	return n, nil
}

func (m *Manager) revoke(ctx context.Context, s model.Session) error {
	err := m.store.Revoke(ctx, s.TokenHash)
	if errors.Is(err, model.ErrNotFound) {
		return invalid()
	}
	if err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").
			With("session_id", s.ID.String()).
			Wrap(err)
	}

	m.logger.Debug("Session manager: session revoked",
		"session_id", s.ID.String(),
		"account_id", s.AccountID.String())

	return nil
}

func invalid() error {
	return oops.Code("SESSION_INVALID").Wrap(model.ErrSessionInvalid)
}
