// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package memory provides in-process implementations of the auth
// repositories, used by tests and single-process deployments.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// UserStore implements auth.UserRepository with mutex-guarded maps.
// The uniqueness check and the insert happen under one lock, so the
// check-and-insert is atomic even under concurrent registrations.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[ulid.ULID]*auth.User
	byUsername map[string]ulid.ULID // keyed by lowercased username
	byEmail    map[string]ulid.ULID // keyed by normalized email
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[ulid.ULID]*auth.User),
		byUsername: make(map[string]ulid.ULID),
		byEmail:    make(map[string]ulid.ULID),
	}
}

// copyUser returns a defensive copy to prevent external modification.
func copyUser(u *auth.User) *auth.User {
	c := *u
	return &c
}

// Create stores a new user, failing with auth.ErrDuplicate when the
// username or email is already taken.
func (s *UserStore) Create(_ context.Context, user *auth.User) error {
	usernameKey := strings.ToLower(user.Username)
	emailKey := auth.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, usernameTaken := s.byUsername[usernameKey]
	_, emailTaken := s.byEmail[emailKey]
	if usernameTaken || emailTaken {
		return oops.Code("USER_DUPLICATE").Wrap(auth.ErrDuplicate)
	}

	s.byID[user.ID] = copyUser(user)
	s.byUsername[usernameKey] = user.ID
	s.byEmail[emailKey] = user.ID
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	return copyUser(s.byID[id]), nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return copyUser(user), nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserStore)(nil)
