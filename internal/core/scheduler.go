package core

// scheduler.go runs background maintenance for the Service.
//
// The reaper closes sessions that have not been used for IdleTTL. Closing
// flushes pending saves and keeps the persisted state, so a reaped session
// is restored transparently on its next request.

import (
	"context"
	"log/slog"
	"time"
)

// ReaperConfig holds configuration for the idle-session reaper.
type ReaperConfig struct {
	IdleTTL       time.Duration // default: 30m
	CheckInterval time.Duration // default: 1m
}

func (c *ReaperConfig) withDefaults() {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 30 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
}

// StartReaper evicts idle sessions every CheckInterval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartReaper(ctx context.Context, cfg ReaperConfig) {
	cfg.withDefaults()
	slog.Info("session reaper started",
		"idle_ttl", cfg.IdleTTL.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return
		case <-ticker.C:
			s.reapIdle(ctx, time.Now().Add(-cfg.IdleTTL))
		}
	}
}

// reapIdle closes every session last used before cutoff and returns how
// many were closed.
func (s *Service) reapIdle(ctx context.Context, cutoff time.Time) int {
	start := time.Now()

	s.mu.RLock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if err := s.Close(ctx, id); err != nil {
			slog.Error("reap session failed", "session", id, "error", err)
			continue
		}
		reaped++
	}

	if reaped > 0 {
		slog.Info("idle sessions reaped",
			"sessions_reaped", reaped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return reaped
}
