package domain_test

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

func TestWeekStatus_CanTransition(t *testing.T) {
	all := []domain.WeekStatus{domain.WeekOpen, domain.WeekLocked, domain.WeekFinalized}
	allowed := map[[2]domain.WeekStatus]bool{
		{domain.WeekOpen, domain.WeekLocked}:      true,
		{domain.WeekLocked, domain.WeekOpen}:      true,
		{domain.WeekLocked, domain.WeekFinalized}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]domain.WeekStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s → %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestWeek_AcceptsLegs(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	w := &domain.Week{
		Status:  domain.WeekOpen,
		OpensAt: now.Add(-24 * time.Hour),
		LocksAt: now.Add(time.Hour),
	}
	if !w.AcceptsLegs(now) {
		t.Error("open week before lock should accept legs")
	}
	if w.AcceptsLegs(w.LocksAt) {
		t.Error("week must stop accepting legs at its lock time")
	}
	w.Status = domain.WeekLocked
	if w.AcceptsLegs(now) {
		t.Error("locked week must not accept legs")
	}
}

func TestWeek_TimeUntilLock(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	w := &domain.Week{LocksAt: now.Add(90 * time.Minute)}
	if got := w.TimeUntilLock(now); got != 90*time.Minute {
		t.Errorf("TimeUntilLock = %v, want 1h30m", got)
	}
	if got := w.TimeUntilLock(now.Add(2 * time.Hour)); got != 0 {
		t.Errorf("TimeUntilLock after lock = %v, want 0", got)
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Now()
	if err := domain.ValidateWindow(now, now.Add(time.Hour)); err != nil {
		t.Errorf("valid window rejected: %v", err)
	}
	if err := domain.ValidateWindow(now, now); !domain.IsValidation(err) {
		t.Errorf("equal bounds should fail, got %v", err)
	}
	if err := domain.ValidateWindow(now.Add(time.Hour), now); !domain.IsValidation(err) {
		t.Errorf("inverted bounds should fail, got %v", err)
	}
}

// ── Lock time ─────────────────────────────────────────────────────────────────

func TestNextLockTime(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	cases := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			"wednesday rolls to sunday",
			time.Date(2025, 9, 10, 15, 0, 0, 0, ny),
			time.Date(2025, 9, 14, 12, 0, 0, 0, ny),
		},
		{
			"sunday morning is same day",
			time.Date(2025, 9, 14, 9, 30, 0, 0, ny),
			time.Date(2025, 9, 14, 12, 0, 0, 0, ny),
		},
		{
			"sunday at noon rolls a week",
			time.Date(2025, 9, 14, 12, 0, 0, 0, ny),
			time.Date(2025, 9, 21, 12, 0, 0, 0, ny),
		},
		{
			"saturday night utc is still saturday in new york",
			time.Date(2025, 9, 14, 2, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 14, 12, 0, 0, 0, ny),
		},
		{
			"across the fall dst change",
			time.Date(2025, 10, 29, 8, 0, 0, 0, ny),
			time.Date(2025, 11, 2, 12, 0, 0, 0, ny),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.NextLockTime(tc.from, ny, time.Sunday, 12)
			if !got.Equal(tc.want) {
				t.Errorf("NextLockTime(%v) = %v, want %v", tc.from, got, tc.want)
			}
		})
	}
}

func TestFormatLockTime(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	lock := time.Date(2025, 9, 14, 16, 0, 0, 0, time.UTC)
	if got, want := domain.FormatLockTime(lock, ny), "Sunday, Sep 14, 12:00 PM EDT"; got != want {
		t.Errorf("FormatLockTime = %q, want %q", got, want)
	}
}

// ── Current week ──────────────────────────────────────────────────────────────

func TestResolveCurrentWeek(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	inWindow := domain.Week{
		ID: uuid.New(), WeekNumber: 2, Status: domain.WeekOpen,
		OpensAt: now.Add(-2 * day), LocksAt: now.Add(2 * day),
	}
	openLater := domain.Week{
		ID: uuid.New(), WeekNumber: 3, Status: domain.WeekOpen,
		OpensAt: now.Add(5 * day), LocksAt: now.Add(9 * day),
	}
	stale := domain.Week{
		ID: uuid.New(), WeekNumber: 1, Status: domain.WeekOpen,
		OpensAt: now.Add(-9 * day), LocksAt: now.Add(-5 * day),
	}
	locked := domain.Week{
		ID: uuid.New(), WeekNumber: 4, Status: domain.WeekLocked,
		OpensAt: now.Add(-1 * day), LocksAt: now.Add(day),
	}

	t.Run("prefers the week whose window contains now", func(t *testing.T) {
		got, err := domain.ResolveCurrentWeek([]domain.Week{stale, openLater, inWindow, locked}, now)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != inWindow.ID {
			t.Errorf("got week %d, want %d", got.WeekNumber, inWindow.WeekNumber)
		}
	})

	t.Run("falls back to the most recently opened", func(t *testing.T) {
		got, err := domain.ResolveCurrentWeek([]domain.Week{stale, openLater, locked}, now)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != openLater.ID {
			t.Errorf("got week %d, want %d", got.WeekNumber, openLater.WeekNumber)
		}
	})

	t.Run("ties on opens_at go to the higher week number", func(t *testing.T) {
		twin := inWindow
		twin.ID = uuid.New()
		twin.WeekNumber = 7
		got, err := domain.ResolveCurrentWeek([]domain.Week{inWindow, twin}, now)
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != twin.ID {
			t.Errorf("got week %d, want 7", got.WeekNumber)
		}
	})

	t.Run("no open week", func(t *testing.T) {
		_, err := domain.ResolveCurrentWeek([]domain.Week{locked}, now)
		if !errors.Is(err, domain.ErrNoOpenWeek) {
			t.Errorf("err = %v, want ErrNoOpenWeek", err)
		}
		if !domain.IsNotFound(err) {
			t.Error("ErrNoOpenWeek should classify as not found")
		}
	})
}
