// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "valid registration",
			username: "alice",
			email:    "alice@example.com",
			password: "Passw0rd",
			wantErr:  nil,
		},
		{
			name:     "missing username",
			username: "",
			email:    "alice@example.com",
			password: "Passw0rd",
			wantErr:  auth.ErrMissingFields,
		},
		{
			name:     "missing email",
			username: "alice",
			email:    "",
			password: "Passw0rd",
			wantErr:  auth.ErrMissingFields,
		},
		{
			name:     "missing password",
			username: "alice",
			email:    "alice@example.com",
			password: "",
			wantErr:  auth.ErrMissingFields,
		},
		{
			name:     "weak password",
			username: "alice",
			email:    "alice@example.com",
			password: "abcdef",
			wantErr:  auth.ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateRegistration(tt.username, tt.email, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{name: "meets all requirements", password: "Abcde1", wantOK: true},
		{name: "longer valid password", password: "Sup3rSecret", wantOK: true},
		{name: "too short", password: "Abc1d", wantOK: false},
		{name: "no digit", password: "Abcdefgh", wantOK: false},
		{name: "no uppercase", password: "abcdefg1", wantOK: false},
		{name: "no lowercase", password: "ABCDEFG1", wantOK: false},
		{name: "lowercase and digits only", password: "abc123", wantOK: false},
		{name: "empty", password: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrWeakPassword)
			errutil.AssertErrorCode(t, err, "AUTH_WEAK_PASSWORD")
		})
	}
}

func TestValidateLogin(t *testing.T) {
	t.Run("valid credentials pass", func(t *testing.T) {
		assert.NoError(t, auth.ValidateLogin("alice@example.com", "whatever"))
	})

	t.Run("missing email fails", func(t *testing.T) {
		err := auth.ValidateLogin("", "whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrMissingFields)
	})

	t.Run("missing password fails", func(t *testing.T) {
		err := auth.ValidateLogin("alice@example.com", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrMissingFields)
	})

	t.Run("login does not enforce strength policy", func(t *testing.T) {
		// Accounts predating a policy change must still be able to log in.
		assert.NoError(t, auth.ValidateLogin("alice@example.com", "abc"))
	})
}
