// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements credential authentication and server-side
// session management for Gatehouse.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their
// constructors:
//   - NewUser - creates a User with validated identity fields and a
//     case-normalized email
//   - NewSession - creates a Session bound to a user with a validated
//     token hash and expiry
//
// Direct struct initialization bypasses validation and may create
// invalid state. Repository implementations receive pre-validated
// types from these constructors.
//
// # Services
//
// Service orchestrates registration, login, logout, and session
// resolution over the UserRepository, SessionRepository, and
// PasswordHasher contracts. Guard exposes the two request-level
// predicates (RequireAuthenticated, RequireAnonymous) consumed by
// transport middleware.
//
// # Errors
//
// All failures surface as one of the closed set of sentinel errors in
// errors.go, wrapped in coded errors for logging. Callers discriminate
// with errors.Is; no error kind here is fatal to the process.
package auth
