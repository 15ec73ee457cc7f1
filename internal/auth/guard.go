// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Guard evaluates the two request-level access predicates derived from
// session state. These are the only points where the auth core imposes
// control on unrelated request handling.
type Guard struct {
	svc *Service
}

// NewGuard creates a Guard over the given Service.
func NewGuard(svc *Service) (*Guard, error) {
	if svc == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("auth service is required")
	}
	return &Guard{svc: svc}, nil
}

// RequireAuthenticated resolves the token to an identity, or fails with
// ErrUnauthorized when no live session exists. "No session" and
// "invalid session" are indistinguishable to the caller.
func (g *Guard) RequireAuthenticated(ctx context.Context, token string) (*Identity, error) {
	identity, err := g.svc.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, oops.Code("AUTH_UNAUTHORIZED").Wrap(ErrUnauthorized)
		}
		return nil, err
	}
	return identity, nil
}

// RequireAnonymous fails with ErrAlreadyAuthenticated when the token
// resolves to a live session. An absent or dead token passes.
func (g *Guard) RequireAnonymous(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := g.svc.CurrentUser(ctx, token)
	if err == nil {
		return oops.Code("AUTH_ALREADY_AUTHENTICATED").Wrap(ErrAlreadyAuthenticated)
	}
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	return err
}
