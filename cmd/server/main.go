// Package main is the entry point for the group-parlay member API server.
// It wires together all services and starts the HTTP server alongside the
// WebSocket hub, the cross-process event relay and the background scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/groupparlay/coordinator/internal/api"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/scheduler"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/groupparlay/coordinator/internal/ws"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

func main() {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting group parlay server",
		"env", cfg.Server.Env, "port", cfg.Server.Port, "league_tz", cfg.League.Timezone)

	// ── 2. Database ───────────────────────────────────────────────────────────
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

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Repositories ───────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	seasonRepo := repository.NewSeasonRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	legRepo := repository.NewLegRepository(db)
	parlayRepo := repository.NewParlayRepository(db)
	oddsRepo := repository.NewOddsRepository(db)

	// ── 5. Services (order matters for injection) ─────────────────────────────
	authSvc := service.NewAuthService(db, userRepo, profileRepo, cfg)
	profileSvc := service.NewProfileService(profileRepo)
	parlaySvc := service.NewParlayService(parlayRepo, weekRepo, legRepo)
	weekSvc := service.NewWeekService(weekRepo, seasonRepo, parlaySvc, cfg, logger)
	legSvc := service.NewLegService(legRepo, weekRepo, profileRepo, weekSvc, parlaySvc, logger)
	oddsSvc := service.NewOddsService(cfg, oddsRepo, logger)

	// ── 6. WebSocket Hub ──────────────────────────────────────────────────────
	hub := ws.NewHub(authSvc, cfg.Server.WSAllowedOrigins, logger)

	parlaySvc.SetBroadcaster(hub)
	legSvc.SetBroadcaster(hub)
	weekSvc.SetBroadcaster(hub)

	// ── 7. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 8. Start WS Hub + back-office relay ───────────────────────────────────
	go hub.Run(ctx)
	logger.Info("websocket hub started")

	relay := ws.NewRelay(cfg.DB.DSN, cfg.DB.NotifyChannel, hub, logger)
	go func() {
		if err := relay.Run(ctx); err != nil {
			// Member-side events still flow; only back-office changes go quiet.
			logger.Error("event relay stopped", "err", err)
		}
	}()

	// ── 9. Scheduler ──────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(oddsSvc, weekSvc, cfg, logger)
	if err = sched.Start(ctx); err != nil {
		logger.Error("scheduler failed to start", "err", err)
		os.Exit(1)
	}

	// ── 10. HTTP Router ───────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		AuthSvc:    authSvc,
		ProfileSvc: profileSvc,
		WeekSvc:    weekSvc,
		LegSvc:     legSvc,
		ParlaySvc:  parlaySvc,
		OddsSvc:    oddsSvc,
		Hub:        hub,
		Cfg:        cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 11. Start server ──────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 12. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially. Every file must be safe to re-run.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
