// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
)

func testUser(t *testing.T) *auth.User {
	t.Helper()
	user, err := auth.NewUser("alice", "alice@example.com", "somehash")
	require.NoError(t, err)
	return user
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, user *auth.User)
		wantErr   error
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash, user.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantErr: nil,
		},
		{
			name: "unique violation maps to duplicate",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash, user.CreatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: auth.ErrDuplicate,
		},
		{
			name: "other faults map to store unavailable",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs(user.ID.String(), user.Username, user.Email, user.PasswordHash, user.CreatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: auth.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			user := testUser(t)
			tt.setupMock(mock, user)

			repo := NewUserRepository(mock)
			err = repo.Create(ctx, user)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		createdAt := time.Now()
		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(id.String(), "alice", "alice@example.com", "somehash", createdAt)
		mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		user, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		repo := NewUserRepository(mock)
		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt ID surfaces as error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow("not-a-ulid", "alice", "alice@example.com", "somehash", time.Now())
		mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		user, err := repo.GetByEmail(ctx, "alice@example.com")
		require.Error(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
			AddRow(id.String(), "alice", "alice@example.com", "somehash", time.Now())
		mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
			WithArgs(id.String()).
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		user, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery("SELECT id, username, email, password_hash, created_at").
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		repo := NewUserRepository(mock)
		user, err := repo.GetByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
