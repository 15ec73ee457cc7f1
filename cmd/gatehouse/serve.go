// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/memory"
	"github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/web"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication HTTP server",
		Long: `Start the authentication HTTP server, the observability endpoints,
and the background session sweeper. With --database.url the service
persists to PostgreSQL; without it, state lives in memory.`,
		RunE: runServe,
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.String("server.addr", defaults.Server.Addr, "HTTP listen address")
	flags.Bool("server.cookie-secure", defaults.Server.CookieSecure, "mark the session cookie Secure")
	flags.String("metrics.addr", defaults.Metrics.Addr, "observability listen address")
	flags.String("database.url", defaults.Database.URL, "PostgreSQL URL (empty selects in-memory stores)")
	flags.Bool("database.auto-migrate", defaults.Database.AutoMigrate, "apply pending migrations on startup")
	flags.Int("auth.bcrypt-cost", defaults.Auth.BcryptCost, "bcrypt work factor")
	flags.Duration("auth.session-ttl", defaults.Auth.SessionTTL, "session lifetime")
	flags.Duration("auth.sweep-interval", defaults.Auth.SweepInterval, "expired-session sweep interval")
	flags.String("log.format", defaults.Log.Format, "log format (json or text)")
	flags.String("log.level", defaults.Log.Level, "log level (debug, info, warn, error)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("gatehouse", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	log := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, sessions, cleanup, err := buildRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	svc, err := auth.NewServiceWithLogger(users, sessions, hasher, log)
	if err != nil {
		return err
	}
	svc.SetSessionTTL(cfg.Auth.SessionTTL)

	guard, err := auth.NewGuard(svc)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.Metrics.Addr, func() bool { return true })
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obsServer.Stop(stopCtx); err != nil {
			errutil.LogError(log, "observability server shutdown failed", err)
		}
	}()

	handler, err := web.NewHandler(svc, guard, web.Options{
		CookieSecure: cfg.Server.CookieSecure,
		SessionTTL:   cfg.Auth.SessionTTL,
		Metrics:      obsServer.Metrics(),
		Logger:       log,
	})
	if err != nil {
		return err
	}

	sweeper, err := auth.NewSweeper(sessions, cfg.Auth.SweepInterval, log)
	if err != nil {
		return err
	}
	sweeper.OnSweep(func(deleted int64) {
		obsServer.Metrics().ActiveSessionsSwept.Add(float64(deleted))
	})
	go sweeper.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http server started", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErrCh:
		return oops.Code("SERVE_FAILED").With("operation", "serve http").Wrap(err)
	case err := <-obsErrCh:
		if err != nil {
			return oops.Code("SERVE_FAILED").With("operation", "serve observability").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "shutdown http server").Wrap(err)
	}

	log.Info("http server stopped")
	return nil
}

// buildRepositories selects the storage backend. A configured database
// URL selects PostgreSQL; otherwise state lives in memory and vanishes
// on restart.
func buildRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (auth.UserRepository, auth.SessionRepository, func(), error) {
	if cfg.Database.URL == "" {
		log.Info("using in-memory stores")
		return memory.NewUserStore(), memory.NewSessionStore(), func() {}, nil
	}

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return nil, nil, nil, err
		}
		log.Info("migrations applied")
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Info("using postgres stores")
	return postgres.NewUserRepository(pool), postgres.NewSessionRepository(pool), pool.Close, nil
}

func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // migration already succeeded or failed
	}()
	return migrator.Up()
}
