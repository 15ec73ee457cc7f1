// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultSweepInterval is how often the sweeper deletes expired sessions.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired sessions from a SessionRepository.
// Expired sessions already read as absent (lazy check in CurrentUser);
// the sweep reclaims the storage.
type Sweeper struct {
	sessions SessionRepository
	interval time.Duration
	log      *slog.Logger
	onSweep  func(deleted int64)
}

// NewSweeper creates a Sweeper. Non-positive intervals fall back to
// DefaultSweepInterval.
func NewSweeper(sessions SessionRepository, interval time.Duration, log *slog.Logger) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("sessions repository is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		log:      log,
	}, nil
}

// OnSweep registers a callback invoked with the deleted count after
// each successful sweep. Call before Run.
func (s *Sweeper) OnSweep(fn func(deleted int64)) {
	s.onSweep = fn
}

// Run sweeps on a ticker until the context is cancelled. Sweep failures
// are logged and retried on the next tick; they never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Warn("session sweep failed", "error", err)
		return
	}
	if s.onSweep != nil {
		s.onSweep(deleted)
	}
	if deleted > 0 {
		s.log.Info("expired sessions swept", "deleted", deleted)
	}
}
