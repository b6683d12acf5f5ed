package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authd/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

var errDuplicateToken = errors.New("session token hash already exists")

type SessionRepository struct {
	mu          sync.RWMutex
	byTokenHash map[string]model.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byTokenHash: make(map[string]model.Session)}
}

func (r *SessionRepository) Create(ctx context.Context, session model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byTokenHash[session.TokenHash]; ok {
		return errDuplicateToken
	}
	r.byTokenHash[session.TokenHash] = session

	return nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.byTokenHash[tokenHash]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) ([]model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []model.Session
	for _, s := range r.byTokenHash {
		if s.AccountID == accountID && s.ValidAt(now) {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byTokenHash[tokenHash]
	if !ok || session.Revoked {
		return model.ErrNotFound
	}
	session.Revoked = true
	r.byTokenHash[tokenHash] = session

	return nil
}

func (r *SessionRepository) RevokeAllByAccount(ctx context.Context, accountID uuid.UUID, exceptTokenHash string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, s := range r.byTokenHash {
		if s.AccountID != accountID || s.Revoked || hash == exceptTokenHash {
			continue
		}
		s.Revoked = true
		r.byTokenHash[hash] = s
		n++
	}

	return n, nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, s := range r.byTokenHash {
		if s.ExpiresAt.Before(before) {
			delete(r.byTokenHash, hash)
			n++
		}
	}

	return n, nil
}
