// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Service provides the authentication operations external collaborators
// call: Register, Login, Logout, CurrentUser. It holds no persistent
// state of its own; it is a stateless coordinator over the injected
// repositories.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	ttl      time.Duration
	log      *slog.Logger
}

// LoginResult is returned by Register and Login on success.
type LoginResult struct {
	Session *Session
	Token   string // plaintext session token for the client
	User    Identity
}

// NewService creates a Service with the default logger and session TTL.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(users, sessions, hasher, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, sessions SessionRepository, hasher PasswordHasher, log *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("password hasher is required")
	}
	if log == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("logger is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		ttl:      DefaultSessionTTL,
		log:      log,
	}, nil
}

// SetSessionTTL overrides the session lifetime. Non-positive values are
// ignored.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// dummyPasswordHash is verified against when the email matches no user,
// so the unknown-email and wrong-password paths take comparable time.
// This is NOT a credential: it is the publicly known bcrypt hash of
// "password" at cost 10, and its verification result is never trusted.
//
//nolint:gosec // G101: intentionally fake hash for timing equalization.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Register creates a new account and, on success, establishes a session
// for it (auto-login: a fresh signup lands directly on the profile).
//
// Validation failures return before any state mutation. A uniqueness
// violation on either identity field returns ErrRegistrationConflict
// without revealing which field collided.
func (s *Service) Register(ctx context.Context, username, email, password string) (*LoginResult, error) {
	if err := ValidateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code("AUTH_REGISTRATION_CONFLICT").Wrap(ErrRegistrationConflict)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	s.log.Info("user registered", "user_id", user.ID.String(), "username", user.Username)

	return s.startSession(ctx, user)
}

// Login authenticates by email and password and creates a session.
//
// Unknown email and wrong password return the identical error kind
// (ErrInvalidCredentials); when the email matches no user the password
// is still verified against a dummy hash so both branches take
// comparable wall-clock time.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(email))

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		// A malformed dummy-path verification still reads as bad credentials.
		if !userExists {
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	s.log.Info("user authenticated", "user_id", user.ID.String())

	return s.startSession(ctx, user)
}

// Logout destroys the session for the given token. Idempotent:
// destroying an unknown or already-destroyed session is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		// A concurrent logout winning the race is fine.
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}

	s.log.Info("session destroyed", "session_id", session.ID.String())
	return nil
}

// CurrentUser resolves a session token to the identity it is bound to.
// Unknown, destroyed, and expired tokens are indistinguishable: all
// return an error wrapping ErrNoSession.
func (s *Service) CurrentUser(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNoSession)
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrNoSession)
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		// Lazy expiry: an expired-but-not-yet-swept session reads as absent.
		_ = s.sessions.Delete(ctx, session.ID) //nolint:errcheck // best effort, sweep catches stragglers
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNoSession)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// User removed out-of-band; the session dangles.
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrNoSession)
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	identity := user.Identity()
	return &identity, nil
}

// startSession issues a fresh token and persists a session for the user.
func (s *Service) startSession(ctx context.Context, user *User) (*LoginResult, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, time.Now().Add(s.ttl))
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "build session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return &LoginResult{
		Session: session,
		Token:   token,
		User:    user.Identity(),
	}, nil
}
