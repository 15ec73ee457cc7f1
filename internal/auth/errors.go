// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// Sentinel errors forming the closed error taxonomy of the auth core.
// Every failure returned from this package wraps exactly one of these;
// callers discriminate with errors.Is.
var (
	// ErrMissingFields indicates a registration or login request with an
	// empty required field. Recoverable; caller re-prompts.
	ErrMissingFields = errors.New("all fields are required")

	// ErrWeakPassword indicates a password failing the strength policy.
	// Recoverable; caller re-prompts.
	ErrWeakPassword = errors.New("password does not meet the strength policy")

	// ErrRegistrationConflict indicates the username or email is already
	// taken. The message deliberately does not say which field collided.
	ErrRegistrationConflict = errors.New("username or email is already taken")

	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password so callers cannot distinguish the two.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoSession indicates the session token resolves to no live
	// session (unknown, destroyed, or expired).
	ErrNoSession = errors.New("no active session")

	// ErrUnauthorized is the guard failure for protected resources.
	ErrUnauthorized = errors.New("authentication required")

	// ErrAlreadyAuthenticated is the guard failure for anonymous-only
	// resources.
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// ErrNotFound is returned by repositories when a requested record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned by user repositories when a unique
	// constraint on username or email is violated.
	ErrDuplicate = errors.New("duplicate key")

	// ErrStoreUnavailable indicates the persistence layer is unreachable
	// or timed out. Surfaced immediately; never retried silently.
	ErrStoreUnavailable = errors.New("store unavailable")
)
