// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// SessionStore implements auth.SessionRepository with mutex-guarded
// maps. Get and Delete racing on the same session observe it either
// fully present or fully absent, never half-removed.
type SessionStore struct {
	mu          sync.RWMutex
	byID        map[ulid.ULID]*auth.Session
	byTokenHash map[string]ulid.ULID
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:        make(map[ulid.ULID]*auth.Session),
		byTokenHash: make(map[string]ulid.ULID),
	}
}

func copySession(s *auth.Session) *auth.Session {
	c := *s
	return &c
}

// Create stores a new session.
func (s *SessionStore) Create(_ context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[session.ID]; exists {
		return oops.Code("SESSION_DUPLICATE").
			With("id", session.ID.String()).
			Wrap(auth.ErrDuplicate)
	}

	s.byID[session.ID] = copySession(session)
	s.byTokenHash[session.TokenHash] = session.ID
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (s *SessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byTokenHash[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return copySession(s.byID[id]), nil
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[id]
	if !ok {
		return oops.Code("SESSION_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}

	delete(s.byTokenHash, session.TokenHash)
	delete(s.byID, id)
	return nil
}

// DeleteByUser removes all sessions for a user.
func (s *SessionStore) DeleteByUser(_ context.Context, userID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.byID {
		if session.UserID == userID {
			delete(s.byTokenHash, session.TokenHash)
			delete(s.byID, id)
		}
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (s *SessionStore) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, session := range s.byID {
		if session.IsExpiredAt(now) {
			delete(s.byTokenHash, session.TokenHash)
			delete(s.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionStore)(nil)
