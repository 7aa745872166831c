// Package main is the entry point for the commissioner back-office server.
// It runs on its own port and exposes admin-only endpoints for COMMISSIONER
// accounts. Live events reach members through pg_notify, relayed by the API
// server's WebSocket hub.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groupparlay/coordinator/internal/backoffice"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/groupparlay/coordinator/internal/ws"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting group parlay backoffice server",
		"env", cfg.Server.Env, "port", cfg.Server.BackofficePort)

	// ── Database ──────────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── Repositories ──────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	legRepo := repository.NewLegRepository(db)

	// ── Services ──────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(db, userRepo, profileRepo, cfg)
	profileSvc := service.NewProfileService(profileRepo)
	parlaySvc := service.NewParlayService(repository.NewParlayRepository(db), weekRepo, legRepo)
	weekSvc := service.NewWeekService(weekRepo, repository.NewSeasonRepository(db), parlaySvc, cfg, logger)
	legSvc := service.NewLegService(legRepo, weekRepo, profileRepo, weekSvc, parlaySvc, logger)
	oddsSvc := service.NewOddsService(cfg, repository.NewOddsRepository(db), logger)

	// Commissioner actions fan out to members via the API server's hub.
	notifier := ws.NewNotifier(db, cfg.DB.NotifyChannel, logger)
	parlaySvc.SetBroadcaster(notifier)
	legSvc.SetBroadcaster(notifier)
	weekSvc.SetBroadcaster(notifier)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Router ────────────────────────────────────────────────────────────────
	router := backoffice.SetupBackofficeRouter(backoffice.BackofficeDeps{
		AuthSvc:    authSvc,
		ProfileSvc: profileSvc,
		WeekSvc:    weekSvc,
		LegSvc:     legSvc,
		ParlaySvc:  parlaySvc,
		OddsSvc:    oddsSvc,
		UserRepo:   userRepo,
		Cfg:        cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.BackofficePort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── Start ─────────────────────────────────────────────────────────────────
	go func() {
		logger.Info("backoffice http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("backoffice server error", "err", err)
			stop()
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("backoffice shutdown error", "err", err)
	}

	db.Close()
	logger.Info("backoffice server stopped cleanly")
}
