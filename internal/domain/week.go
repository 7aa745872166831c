package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// WeekStatus
// ──────────────────────────────────────────────────────────────────────────────

// WeekStatus is the lifecycle state of a betting round.
type WeekStatus string

const (
	WeekOpen      WeekStatus = "OPEN"      // accepting legs
	WeekLocked    WeekStatus = "LOCKED"    // submissions closed, review continues
	WeekFinalized WeekStatus = "FINALIZED" // terminal
)

// IsValid returns true for the three known statuses.
func (s WeekStatus) IsValid() bool {
	return s == WeekOpen || s == WeekLocked || s == WeekFinalized
}

// CanTransition reports whether a week may move from s to next.
//
//	OPEN → LOCKED → FINALIZED, LOCKED → OPEN (reopen)
func (s WeekStatus) CanTransition(next WeekStatus) bool {
	switch s {
	case WeekOpen:
		return next == WeekLocked
	case WeekLocked:
		return next == WeekOpen || next == WeekFinalized
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Week
// ──────────────────────────────────────────────────────────────────────────────

// Week is one betting round. StakeAmount is in cents.
type Week struct {
	ID          uuid.UUID  `json:"id"           db:"id"`
	SeasonID    *uuid.UUID `json:"season_id"    db:"season_id"`
	WeekNumber  int        `json:"week_number"  db:"week_number"`
	Status      WeekStatus `json:"status"       db:"status"`
	OpensAt     time.Time  `json:"opens_at"     db:"opens_at"`
	LocksAt     time.Time  `json:"locks_at"     db:"locks_at"`
	FinalizedAt *time.Time `json:"finalized_at" db:"finalized_at"` // set iff FINALIZED
	StakeAmount int64      `json:"stake_amount" db:"stake_amount"`
	CreatedAt   time.Time  `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"   db:"updated_at"`
}

// AcceptsLegs returns true while the week is OPEN and its lock time has not
// passed.
func (w *Week) AcceptsLegs(now time.Time) bool {
	return w.Status == WeekOpen && now.Before(w.LocksAt)
}

// TimeUntilLock returns the remaining submission window, never negative.
func (w *Week) TimeUntilLock(now time.Time) time.Duration {
	if d := w.LocksAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// ValidateWindow rejects windows where opens_at is not before locks_at.
func ValidateWindow(opensAt, locksAt time.Time) error {
	if !opensAt.Before(locksAt) {
		return NewValidationError("locks_at", "must be after opens_at")
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lock time
// ──────────────────────────────────────────────────────────────────────────────

// LockTimeLayout renders e.g. "Sunday, Sep 14, 12:00 PM EDT".
const LockTimeLayout = "Monday, Jan 2, 3:04 PM MST"

// NextLockTime returns the next occurrence of weekday at hour:00 in loc,
// strictly after from when from already falls on weekday at or past hour.
func NextLockTime(from time.Time, loc *time.Location, weekday time.Weekday, hour int) time.Time {
	local := from.In(loc)
	days := (int(weekday) - int(local.Weekday()) + 7) % 7
	if days == 0 && local.Hour() >= hour {
		days = 7
	}
	y, m, d := local.Date()
	return time.Date(y, m, d+days, hour, 0, 0, 0, loc)
}

// FormatLockTime renders t in loc using LockTimeLayout.
func FormatLockTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(LockTimeLayout)
}

// ──────────────────────────────────────────────────────────────────────────────
// Current week
// ──────────────────────────────────────────────────────────────────────────────

// ResolveCurrentWeek picks the current week out of candidates:
//
//  1. the OPEN week whose [opens_at, locks_at) window contains now;
//  2. otherwise the most recently opened OPEN week.
//
// Ties on opens_at go to the higher week number. Returns ErrNoOpenWeek when
// nothing is OPEN.
func ResolveCurrentWeek(weeks []Week, now time.Time) (*Week, error) {
	open := make([]Week, 0, len(weeks))
	for _, w := range weeks {
		if w.Status == WeekOpen {
			open = append(open, w)
		}
	}
	if len(open) == 0 {
		return nil, ErrNoOpenWeek
	}

	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].OpensAt.Equal(open[j].OpensAt) {
			return open[i].OpensAt.After(open[j].OpensAt)
		}
		return open[i].WeekNumber > open[j].WeekNumber
	})

	for i := range open {
		if !now.Before(open[i].OpensAt) && now.Before(open[i].LocksAt) {
			return &open[i], nil
		}
	}
	return &open[0], nil
}
