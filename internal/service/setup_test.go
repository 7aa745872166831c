package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret-for-tests",
			RefreshSecret: "refresh-secret-for-tests",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
		},
		League: config.LeagueConfig{
			DefaultStakeCents: 1000,
			Timezone:          "UTC",
			Location:          time.UTC,
			LockWeekday:       time.Sunday,
			LockHour:          12,
			Currency:          "USD",
		},
	}
}

// openWeek returns an OPEN week whose window contains the real clock.
func openWeek() *domain.Week {
	now := time.Now().UTC()
	return &domain.Week{
		ID:          uuid.New(),
		WeekNumber:  1,
		Status:      domain.WeekOpen,
		OpensAt:     now.Add(-time.Hour),
		LocksAt:     now.Add(72 * time.Hour),
		StakeAmount: 1000,
	}
}

// stubWeeks resolves the current week without a database.
type stubWeeks struct {
	week *domain.Week
	err  error
}

func (s stubWeeks) Current(context.Context) (*domain.Week, error) {
	return s.week, s.err
}

// recordingRecomputer counts recompute calls per week.
type recordingRecomputer struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
}

func (r *recordingRecomputer) Recompute(_ context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[uuid.UUID]int)
	}
	r.calls[weekID]++
	return &domain.Parlay{WeekID: weekID}, nil
}

func (r *recordingRecomputer) count(weekID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[weekID]
}

// recordingBroadcaster captures every event.
type recordingBroadcaster struct {
	mu      sync.Mutex
	parlays []*domain.Parlay
	legs    []*domain.Leg
	weeks   []*domain.Week
}

func (b *recordingBroadcaster) BroadcastParlayUpdated(p *domain.Parlay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parlays = append(b.parlays, p)
}

func (b *recordingBroadcaster) BroadcastLegStatusChanged(l *domain.Leg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.legs = append(b.legs, l)
}

func (b *recordingBroadcaster) BroadcastWeekStatusChanged(w *domain.Week) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.weeks = append(b.weeks, w)
}

func validInput() domain.LegInput {
	return domain.LegInput{
		SportKey:     "americanfootball_nfl",
		League:       "AMERICANFOOTBALL NFL",
		GameDesc:     "Bills @ Chiefs",
		MarketKey:    "h2h",
		Selection:    "Bills",
		AmericanOdds: 150,
	}
}
