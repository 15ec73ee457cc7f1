// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// setupPostgres starts a PostgreSQL container, applies migrations, and
// opens a connection pool.
func setupPostgres() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("gatehouse_test"),
		pgcontainer.WithUsername("gatehouse"),
		pgcontainer.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

var _ = Describe("Postgres repositories", Ordered, func() {
	var (
		pool     *pgxpool.Pool
		cleanup  func()
		users    *postgres.UserRepository
		sessions *postgres.SessionRepository
	)

	BeforeAll(func() {
		var err error
		pool, cleanup, err = setupPostgres()
		Expect(err).NotTo(HaveOccurred())
		users = postgres.NewUserRepository(pool)
		sessions = postgres.NewSessionRepository(pool)
	})

	AfterAll(func() {
		cleanup()
	})

	newUser := func(username, email string) *auth.User {
		user, err := auth.NewUser(username, email, "somehash")
		Expect(err).NotTo(HaveOccurred())
		return user
	}

	newSession := func(userID ulid.ULID, expiresAt time.Time) *auth.Session {
		_, hash, err := auth.GenerateSessionToken()
		Expect(err).NotTo(HaveOccurred())
		session, err := auth.NewSession(userID, hash, expiresAt)
		Expect(err).NotTo(HaveOccurred())
		return session
	}

	Describe("UserRepository", func() {
		It("creates and retrieves a user", func() {
			ctx := context.Background()
			user := newUser("alice", "alice@example.com")

			Expect(users.Create(ctx, user)).To(Succeed())

			got, err := users.GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))

			byID, err := users.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("alice"))
		})

		It("looks up emails case-insensitively", func() {
			ctx := context.Background()
			got, err := users.GetByEmail(ctx, "ALICE@Example.COM")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Username).To(Equal("alice"))
		})

		It("rejects a duplicate email regardless of case", func() {
			ctx := context.Background()
			err := users.Create(ctx, newUser("mallory", "Alice@example.com"))
			Expect(err).To(MatchError(auth.ErrDuplicate))
		})

		It("rejects a duplicate username", func() {
			ctx := context.Background()
			err := users.Create(ctx, newUser("alice", "other@example.com"))
			Expect(err).To(MatchError(auth.ErrDuplicate))
		})

		It("returns not found for an unknown email", func() {
			ctx := context.Background()
			_, err := users.GetByEmail(ctx, "nobody@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("admits exactly one winner in a registration race", func() {
			ctx := context.Background()
			const racers = 50

			var wg sync.WaitGroup
			errs := make([]error, racers)
			for i := range racers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = users.Create(ctx, newUser("racer", "racer@example.com"))
				}()
			}
			wg.Wait()

			var won, lost int
			for _, err := range errs {
				switch {
				case err == nil:
					won++
				case errors.Is(err, auth.ErrDuplicate):
					lost++
				}
			}
			Expect(won).To(Equal(1))
			Expect(lost).To(Equal(racers - 1))
		})
	})

	Describe("SessionRepository", func() {
		var userID ulid.ULID

		BeforeAll(func() {
			ctx := context.Background()
			user := newUser("sessionowner", "owner@example.com")
			Expect(users.Create(ctx, user)).To(Succeed())
			userID = user.ID
		})

		It("creates and retrieves a session by token hash", func() {
			ctx := context.Background()
			session := newSession(userID, time.Now().Add(time.Hour))

			Expect(sessions.Create(ctx, session)).To(Succeed())

			got, err := sessions.GetByTokenHash(ctx, session.TokenHash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(session.ID))
			Expect(got.UserID).To(Equal(userID))
		})

		It("deletes a session exactly once", func() {
			ctx := context.Background()
			session := newSession(userID, time.Now().Add(time.Hour))
			Expect(sessions.Create(ctx, session)).To(Succeed())

			Expect(sessions.Delete(ctx, session.ID)).To(Succeed())
			Expect(sessions.Delete(ctx, session.ID)).To(MatchError(auth.ErrNotFound))
		})

		It("sweeps only expired sessions", func() {
			ctx := context.Background()
			expired := newSession(userID, time.Now().Add(-time.Minute))
			live := newSession(userID, time.Now().Add(time.Hour))
			Expect(sessions.Create(ctx, expired)).To(Succeed())
			Expect(sessions.Create(ctx, live)).To(Succeed())

			deleted, err := sessions.DeleteExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeNumerically(">=", 1))

			_, err = sessions.GetByTokenHash(ctx, expired.TokenHash)
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = sessions.GetByTokenHash(ctx, live.TokenHash)
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes all sessions for a user", func() {
			ctx := context.Background()
			first := newSession(userID, time.Now().Add(time.Hour))
			second := newSession(userID, time.Now().Add(time.Hour))
			Expect(sessions.Create(ctx, first)).To(Succeed())
			Expect(sessions.Create(ctx, second)).To(Succeed())

			Expect(sessions.DeleteByUser(ctx, userID)).To(Succeed())

			_, err := sessions.GetByTokenHash(ctx, first.TokenHash)
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = sessions.GetByTokenHash(ctx, second.TokenHash)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("cascades session deletion when the user row is removed", func() {
			ctx := context.Background()
			user := newUser("ephemeral", "ephemeral@example.com")
			Expect(users.Create(ctx, user)).To(Succeed())
			session := newSession(user.ID, time.Now().Add(time.Hour))
			Expect(sessions.Create(ctx, session)).To(Succeed())

			_, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID.String())
			Expect(err).NotTo(HaveOccurred())

			_, err = sessions.GetByTokenHash(ctx, session.TokenHash)
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
