package service

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/dtroode/authd/internal/logger"
	"github.com/dtroode/authd/internal/model"
	"github.com/dtroode/authd/internal/session"
)

// dummyPassword is hashed once at construction; logins for unknown emails
// verify against its digest so they cost the same as a wrong password.
const dummyPassword = "authd-dummy-password-for-timing"

// Auth orchestrates registration, login and session handling.
type Auth struct {
	accounts    model.AccountStore
	sessions    *session.Manager
	hasher      model.PasswordHasher
	policy      PasswordPolicy
	dummyDigest string
	logger      *logger.Logger
}

// NewAuth creates the Auth service. It hashes a dummy password with the
// given hasher and fails if that is not possible.
func NewAuth(
	accounts model.AccountStore,
	sessions *session.Manager,
	hasher model.PasswordHasher,
	policy PasswordPolicy,
	logger *logger.Logger,
) (*Auth, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").
			With("operation", "hash dummy password").
			Wrap(err)
	}

	return &Auth{
		accounts:    accounts,
		sessions:    sessions,
		hasher:      hasher,
		policy:      policy,
		dummyDigest: dummy,
		logger:      logger,
	}, nil
}

// Register creates an account for the email with the given password.
func (a *Auth) Register(ctx context.Context, email, password string) (model.Account, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		a.logger.Debug("Auth service: registration rejected, invalid email")
		return model.Account{}, err
	}

	a.logger.Debug("Auth service: starting registration",
		"email", email)

	if err := a.policy.Validate(password); err != nil {
		a.logger.Info("Auth service: registration rejected, weak password",
			"email", email)
		return model.Account{}, err
	}

	digest, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"email", email,
			"error", err.Error())
		return model.Account{}, err
	}

	account, err := a.accounts.Create(ctx, email, digest)
	if errors.Is(err, model.ErrAccountExists) {
		a.logger.Info("Auth service: account already exists",
			"email", email)
		return model.Account{}, oops.Code("AUTH_ACCOUNT_EXISTS").
			With("email", email).
			Wrap(err)
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create account",
			"email", email,
			"error", err.Error())
		return model.Account{}, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	a.logger.Info("Auth service: account registered",
		"account_id", account.ID.String(),
		"email", email)

	return account, nil
}

// Login checks the credentials and issues a session. Unknown emails and
// wrong passwords fail identically with model.ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, password string, client model.ClientInfo) (string, model.Session, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		a.burnVerify(password)
		return "", model.Session{}, invalidCredentials()
	}

	account, err := a.accounts.GetByEmail(ctx, normalized)
	if errors.Is(err, model.ErrNotFound) {
		a.burnVerify(password)
		a.logger.Info("Auth service: login failed",
			"email", normalized)
		return "", model.Session{}, invalidCredentials()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get account by email",
			"email", normalized,
			"error", err.Error())
		return "", model.Session{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	ok, err := a.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		a.logger.Error("Auth service: stored digest cannot be verified",
			"account_id", account.ID.String(),
			"error", err.Error())
		return "", model.Session{}, invalidCredentials()
	}
	if !ok {
		a.logger.Info("Auth service: login failed",
			"email", normalized)
		return "", model.Session{}, invalidCredentials()
	}

	if a.hasher.NeedsUpgrade(account.PasswordHash) {
		a.upgradeDigest(ctx, account, password)
	}

	token, s, err := a.sessions.Issue(ctx, account.ID, client)
	if err != nil {
		a.logger.Error("Auth service: failed to issue session",
			"account_id", account.ID.String(),
			"error", err.Error())
		return "", model.Session{}, err
	}

	a.logger.Info("Auth service: login succeeded",
		"account_id", account.ID.String(),
		"session_id", s.ID.String())

	return token, s, nil
}

// Logout revokes the session behind the token.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if err := a.sessions.Revoke(ctx, token); err != nil {
		return err
	}

	a.logger.Debug("Auth service: logged out")
	return nil
}

// CurrentAccount resolves the account owning a valid session.
func (a *Auth) CurrentAccount(ctx context.Context, token string) (model.Account, error) {
	_, account, err := a.authenticate(ctx, token)
	return account, err
}

// Refresh rotates the session behind the token.
func (a *Auth) Refresh(ctx context.Context, token string, client model.ClientInfo) (string, model.Session, error) {
	newToken, s, err := a.sessions.Refresh(ctx, token, client)
	if err != nil {
		return "", model.Session{}, err
	}

	a.logger.Debug("Auth service: session refreshed",
		"account_id", s.AccountID.String(),
		"session_id", s.ID.String())

	return newToken, s, nil
}

// ChangePassword replaces the account password after checking the current
// one. With revokeOthers set every other session of the account is revoked.
func (a *Auth) ChangePassword(ctx context.Context, token, current, next string, revokeOthers bool) error {
	_, account, err := a.authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := a.checkPassword(account, current); err != nil {
		return err
	}

	if err := a.policy.Validate(next); err != nil {
		return err
	}

	digest, err := a.hasher.Hash(next)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"account_id", account.ID.String(),
			"error", err.Error())
		return err
	}

	if err := a.accounts.UpdatePasswordHash(ctx, account.ID, digest); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return sessionInvalid()
		}
		a.logger.Error("Auth service: failed to update password hash",
			"account_id", account.ID.String(),
			"error", err.Error())
		return oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update password hash").
			Wrap(err)
	}

	if revokeOthers {
		n, err := a.sessions.RevokeOthers(ctx, token)
		if err != nil {
			return err
		}
		a.logger.Info("Auth service: revoked other sessions after password change",
			"account_id", account.ID.String(),
			"revoked", n)
	}

	a.logger.Info("Auth service: password changed",
		"account_id", account.ID.String())

	return nil
}

// DeleteAccount revokes all sessions of the account and deletes it.
func (a *Auth) DeleteAccount(ctx context.Context, token, password string) error {
	_, account, err := a.authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := a.checkPassword(account, password); err != nil {
		return err
	}

	if _, err := a.sessions.RevokeAll(ctx, account.ID); err != nil {
		a.logger.Error("Auth service: failed to revoke sessions",
			"account_id", account.ID.String(),
			"error", err.Error())
		return err
	}

	err = a.accounts.Delete(ctx, account.ID)
	if errors.Is(err, model.ErrNotFound) {
		return sessionInvalid()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to delete account",
			"account_id", account.ID.String(),
			"error", err.Error())
		return oops.Code("AUTH_DELETE_ACCOUNT_FAILED").
			With("operation", "delete account").
			Wrap(err)
	}

	a.logger.Info("Auth service: account deleted",
		"account_id", account.ID.String())

	return nil
}

// ListSessions returns the valid sessions of the token's account.
func (a *Auth) ListSessions(ctx context.Context, token string) ([]model.Session, error) {
	s, err := a.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	return a.sessions.List(ctx, s.AccountID)
}

// RevokeOtherSessions revokes every session of the token's account except
// the one presenting the token.
func (a *Auth) RevokeOtherSessions(ctx context.Context, token string) (int64, error) {
	n, err := a.sessions.RevokeOthers(ctx, token)
	if err != nil {
		return 0, err
	}

	a.logger.Info("Auth service: revoked other sessions",
		"revoked", n)

	return n, nil
}

func (a *Auth) authenticate(ctx context.Context, token string) (model.Session, model.Account, error) {
	s, err := a.sessions.Validate(ctx, token)
	if err != nil {
		return model.Session{}, model.Account{}, err
	}

	account, err := a.accounts.GetByID(ctx, s.AccountID)
	if errors.Is(err, model.ErrNotFound) {
		a.logger.Debug("Auth service: session belongs to a deleted account",
			"session_id", s.ID.String())
		return model.Session{}, model.Account{}, sessionInvalid()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get account by id",
			"account_id", s.AccountID.String(),
			"error", err.Error())
		return model.Session{}, model.Account{}, oops.Code("AUTH_ACCOUNT_LOOKUP_FAILED").
			With("operation", "get account by id").
			Wrap(err)
	}

	return s, account, nil
}

func (a *Auth) checkPassword(account model.Account, password string) error {
	ok, err := a.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		a.logger.Error("Auth service: stored digest cannot be verified",
			"account_id", account.ID.String(),
			"error", err.Error())
		return invalidCredentials()
	}
	if !ok {
		return invalidCredentials()
	}
	return nil
}

// burnVerify runs a verification whose result is discarded.
func (a *Auth) burnVerify(password string) {
	_, _ = a.hasher.Verify(password, a.dummyDigest)
}

func (a *Auth) upgradeDigest(ctx context.Context, account model.Account, password string) {
	digest, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Warn("Auth service: failed to rehash password",
			"account_id", account.ID.String(),
			"error", err.Error())
		return
	}

	if err := a.accounts.UpdatePasswordHash(ctx, account.ID, digest); err != nil {
		a.logger.Warn("Auth service: failed to store upgraded digest",
			"account_id", account.ID.String(),
			"error", err.Error())
		return
	}

	a.logger.Info("Auth service: password digest upgraded",
		"account_id", account.ID.String())
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(model.ErrInvalidCredentials)
}

func sessionInvalid() error {
	return oops.Code("SESSION_INVALID").Wrap(model.ErrSessionInvalid)
}
