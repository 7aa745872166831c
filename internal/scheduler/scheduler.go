// Package scheduler runs the periodic jobs of the API process on a
// robfig/cron schedule:
//  1. oddsRefresh – pulls the provider board into odds_cache (ODDS_REFRESH_CRON).
//  2. weekLock    – locks OPEN weeks whose lock time has passed, every minute.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/robfig/cron/v3"
)

const (
	weekLockSpec   = "@every 1m"
	oddsJobTimeout = 2 * time.Minute
	lockJobTimeout = 30 * time.Second
)

// ──────────────────────────────────────────────────────────────────────────────
// Job dependencies
// ──────────────────────────────────────────────────────────────────────────────

// OddsRefresher is implemented by service.OddsService.
type OddsRefresher interface {
	Refresh(ctx context.Context) (*domain.RefreshResult, error)
}

// WeekLocker is implemented by service.WeekService.
type WeekLocker interface {
	LockExpired(ctx context.Context) (int, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler owns the cron runner. Call Start(ctx) once from main(); cancel
// the context to stop it and wait for running jobs.
type Scheduler struct {
	cron   *cron.Cron
	odds   OddsRefresher
	weeks  WeekLocker
	cfg    *config.Config
	logger *slog.Logger
}

// NewScheduler creates a Scheduler. odds may be nil when the provider is
// not configured.
func NewScheduler(odds OddsRefresher, weeks WeekLocker, cfg *config.Config, logger *slog.Logger) *Scheduler {
	loc := cfg.League.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		odds:   odds,
		weeks:  weeks,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the jobs and starts the runner. It returns immediately;
// the runner stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.odds != nil && s.cfg.Odds.Enabled {
		if _, err := s.cron.AddFunc(s.cfg.Odds.RefreshCron, func() { s.refreshOdds(ctx) }); err != nil {
			return fmt.Errorf("scheduler: odds refresh spec %q: %w", s.cfg.Odds.RefreshCron, err)
		}
		if s.cfg.Odds.RefreshOnStart {
			go s.refreshOdds(ctx)
		}
	}
	if s.weeks != nil {
		if _, err := s.cron.AddFunc(weekLockSpec, func() { s.lockExpiredWeeks(ctx) }); err != nil {
			return fmt.Errorf("scheduler: week lock spec: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	}()
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Jobs
// ──────────────────────────────────────────────────────────────────────────────

func (s *Scheduler) refreshOdds(ctx context.Context) {
	defer s.recoverAndLog("oddsRefresh")
	if ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, oddsJobTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.odds.Refresh(ctx)
	if err != nil {
		s.logger.Error("oddsRefresh failed", "err", err)
		return
	}
	s.logger.Info("oddsRefresh done",
		"games", res.GamesProcessed,
		"sports_failed", res.SportsFailed,
		"purged", res.Purged,
		"took", time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) lockExpiredWeeks(ctx context.Context) {
	defer s.recoverAndLog("weekLock")
	if ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, lockJobTimeout)
	defer cancel()

	n, err := s.weeks.LockExpired(ctx)
	if err != nil {
		s.logger.Error("weekLock failed", "err", err)
	}
	if n > 0 {
		s.logger.Info("weekLock: weeks locked", "count", n)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each job to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(job string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler job", "job", job, "panic", r)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
