// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account. Records are created once by
// registration and never mutated by this core.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string // case-normalized, unique
	PasswordHash string // opaque; never the raw password
	CreatedAt    time.Time
}

// Identity is the public projection of a user returned to callers.
// It never carries the password hash.
type Identity struct {
	UserID   ulid.ULID `json:"-"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NormalizeEmail lowercases and trims an email address so that lookups
// and the uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a validated User instance. The email is normalized;
// the password hash must already be computed.
func NewUser(username, email, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	if username == "" {
		return nil, oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("USER_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// Identity returns the public projection of the user.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserRepository manages user persistence. Both username and email carry
// a uniqueness constraint enforced atomically by Create.
type UserRepository interface {
	// Create stores a new user. The check-and-insert is a single atomic
	// operation: two concurrent registrations racing on the same username
	// or email yield exactly one stored record. Violations return an
	// error wrapping ErrDuplicate.
	Create(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by normalized email.
	// Returns an error wrapping ErrNotFound when no user matches.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	// Returns an error wrapping ErrNotFound when no user matches.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)
}
