// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"strings"
	"unicode"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// ValidateRegistration checks a registration request before any state
// mutation. Rules apply in order and short-circuit on first failure:
//
//  1. username, email, and password must all be non-empty
//  2. password must satisfy the strength policy (see ValidatePassword)
//
// Pure function of its input; no side effects.
func ValidateRegistration(username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return oops.Code("AUTH_MISSING_FIELDS").Wrap(ErrMissingFields)
	}
	return ValidatePassword(password)
}

// ValidateLogin checks a login request for field presence only.
// Credential strength is never re-checked at login time.
func ValidateLogin(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return oops.Code("AUTH_MISSING_FIELDS").Wrap(ErrMissingFields)
	}
	return nil
}

// ValidatePassword enforces the password policy: at least
// MinPasswordLength characters with at least one digit, one lowercase,
// and one uppercase letter.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("min_length", MinPasswordLength).
			Wrap(ErrWeakPassword)
	}

	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit || !hasLower || !hasUpper {
		return oops.Code("AUTH_WEAK_PASSWORD").Wrap(ErrWeakPassword)
	}
	return nil
}
