package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Request types
// ──────────────────────────────────────────────────────────────────────────────

// CreateWeekRequest is the commissioner's payload for opening a new week.
// LocksAt defaults to the next league lock time after OpensAt and
// StakeAmount to the league default.
type CreateWeekRequest struct {
	SeasonID    *uuid.UUID `json:"season_id"`
	WeekNumber  int        `json:"week_number"  binding:"required,min=1"`
	OpensAt     *time.Time `json:"opens_at"`
	LocksAt     *time.Time `json:"locks_at"`
	StakeAmount *int64     `json:"stake_amount" binding:"omitempty,min=1"`
}

// CreateSeasonRequest is the commissioner's payload for a new season.
type CreateSeasonRequest struct {
	Label     string    `json:"label"      binding:"required,max=100"`
	League    string    `json:"league"     binding:"required,max=20"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date"   binding:"required"`
}

// ──────────────────────────────────────────────────────────────────────────────
// WeekService
// ──────────────────────────────────────────────────────────────────────────────

// WeekService manages the week lifecycle and current-week resolution.
type WeekService struct {
	weekRepo    *repository.WeekRepository
	seasonRepo  *repository.SeasonRepository
	parlays     ParlayRecomputer
	broadcaster Broadcaster // injected after WS Hub is built
	league      config.LeagueConfig
	log         *slog.Logger
	now         func() time.Time
}

// NewWeekService creates a WeekService.
func NewWeekService(
	weekRepo *repository.WeekRepository,
	seasonRepo *repository.SeasonRepository,
	parlays ParlayRecomputer,
	cfg *config.Config,
	log *slog.Logger,
) *WeekService {
	return &WeekService{
		weekRepo:   weekRepo,
		seasonRepo: seasonRepo,
		parlays:    parlays,
		league:     cfg.League,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *WeekService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

func (s *WeekService) location() *time.Location {
	if s.league.Location != nil {
		return s.league.Location
	}
	return time.UTC
}

// ──────────────────────────────────────────────────────────────────────────────
// Create / read
// ──────────────────────────────────────────────────────────────────────────────

// Create opens a new week. The weeks_one_open index rejects it with
// ErrAnotherWeekOpen while any other week is still OPEN.
func (s *WeekService) Create(ctx context.Context, req CreateWeekRequest) (*domain.Week, error) {
	if req.WeekNumber < 1 {
		return nil, domain.NewValidationError("week_number", "must be at least 1")
	}
	now := s.now()

	opensAt := now
	if req.OpensAt != nil {
		opensAt = req.OpensAt.UTC()
	}
	locksAt := domain.NextLockTime(opensAt, s.location(), s.league.LockWeekday, s.league.LockHour).UTC()
	if req.LocksAt != nil {
		locksAt = req.LocksAt.UTC()
	}
	if err := domain.ValidateWindow(opensAt, locksAt); err != nil {
		return nil, err
	}

	stake := s.league.DefaultStakeCents
	if req.StakeAmount != nil {
		if *req.StakeAmount <= 0 {
			return nil, domain.NewValidationError("stake_amount", "must be positive")
		}
		stake = *req.StakeAmount
	}

	if req.SeasonID != nil {
		if _, err := s.seasonRepo.GetByID(ctx, *req.SeasonID); err != nil {
			return nil, err
		}
	}

	w := &domain.Week{
		ID:          uuid.New(),
		SeasonID:    req.SeasonID,
		WeekNumber:  req.WeekNumber,
		Status:      domain.WeekOpen,
		OpensAt:     opensAt,
		LocksAt:     locksAt,
		StakeAmount: stake,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.weekRepo.Create(ctx, w); err != nil {
		return nil, err
	}

	s.log.Info("week created",
		"week_id", w.ID,
		"week_number", w.WeekNumber,
		"locks_at", domain.FormatLockTime(w.LocksAt, s.location()),
	)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastWeekStatusChanged(w)
	}
	return w, nil
}

// Get returns a week by id.
func (s *WeekService) Get(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	return s.weekRepo.GetByID(ctx, id)
}

// List returns weeks newest first, optionally filtered by status and season.
func (s *WeekService) List(ctx context.Context, limit, offset int, status string, seasonID *uuid.UUID) ([]*domain.Week, int, error) {
	status = strings.ToUpper(status)
	if status != "" && !domain.WeekStatus(status).IsValid() {
		return nil, 0, domain.NewValidationError("status", "must be one of OPEN, LOCKED, FINALIZED")
	}
	return s.weekRepo.List(ctx, limit, offset, status, seasonID)
}

// Current resolves the week members are playing. It is the only place the
// rule lives; see domain.ResolveCurrentWeek.
func (s *WeekService) Current(ctx context.Context) (*domain.Week, error) {
	weeks, err := s.weekRepo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ResolveCurrentWeek(weeks, s.now())
}

// ──────────────────────────────────────────────────────────────────────────────
// Transitions
// ──────────────────────────────────────────────────────────────────────────────

// Lock closes submissions.
func (s *WeekService) Lock(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	return s.transition(ctx, id, domain.WeekLocked)
}

// Reopen moves a LOCKED week back to OPEN. Members can submit again only
// once locks_at is in the future; see SetLockTime.
func (s *WeekService) Reopen(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	return s.transition(ctx, id, domain.WeekOpen)
}

// Finalize stamps finalized_at and recomputes the parlay one last time.
func (s *WeekService) Finalize(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	w, err := s.transition(ctx, id, domain.WeekFinalized)
	if err != nil {
		return nil, err
	}
	if _, err := s.parlays.Recompute(ctx, id); err != nil {
		s.log.Error("final parlay recompute failed", "week_id", id, "err", err)
	}
	return w, nil
}

func (s *WeekService) transition(ctx context.Context, id uuid.UUID, to domain.WeekStatus) (*domain.Week, error) {
	w, err := s.weekRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidWeekTransition, w.Status, to)
	}

	var finalizedAt *time.Time
	if to == domain.WeekFinalized {
		t := s.now()
		finalizedAt = &t
	}
	if err = s.weekRepo.UpdateStatus(ctx, id, w.Status, to, finalizedAt); err != nil {
		return nil, err
	}

	s.log.Info("week status changed", "week_id", id, "from", w.Status, "to", to)
	w.Status = to
	w.FinalizedAt = finalizedAt
	if s.broadcaster != nil {
		s.broadcaster.BroadcastWeekStatusChanged(w)
	}
	return w, nil
}

// LockExpired locks every OPEN week whose lock time has passed. Returns how
// many weeks were locked. Run by the scheduler; submission guards do not
// depend on it.
func (s *WeekService) LockExpired(ctx context.Context) (int, error) {
	weeks, err := s.weekRepo.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	locked := 0
	for i := range weeks {
		if weeks[i].AcceptsLegs(now) {
			continue
		}
		if _, err := s.transition(ctx, weeks[i].ID, domain.WeekLocked); err != nil {
			s.log.Warn("auto-lock failed", "week_id", weeks[i].ID, "err", err)
			continue
		}
		locked++
	}
	return locked, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lock time
// ──────────────────────────────────────────────────────────────────────────────

// SetLockTime moves the week's deadline. Finalized weeks are left alone.
func (s *WeekService) SetLockTime(ctx context.Context, id uuid.UUID, locksAt time.Time) (*domain.Week, error) {
	w, err := s.weekRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status == domain.WeekFinalized {
		return nil, fmt.Errorf("%w: week is finalized", domain.ErrInvalidWeekTransition)
	}
	locksAt = locksAt.UTC()
	if err = domain.ValidateWindow(w.OpensAt, locksAt); err != nil {
		return nil, err
	}
	if err = s.weekRepo.SetLockTime(ctx, id, locksAt); err != nil {
		return nil, err
	}
	w.LocksAt = locksAt
	s.log.Info("week lock time set", "week_id", id, "locks_at", domain.FormatLockTime(locksAt, s.location()))
	if s.broadcaster != nil {
		s.broadcaster.BroadcastWeekStatusChanged(w)
	}
	return w, nil
}

// SetLockTimeNextSunday sets the deadline to the next league lock time,
// Sunday noon in the league timezone by default.
func (s *WeekService) SetLockTimeNextSunday(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	next := domain.NextLockTime(s.now(), s.location(), s.league.LockWeekday, s.league.LockHour)
	return s.SetLockTime(ctx, id, next)
}

// FormatLockTime renders t in the league timezone.
func (s *WeekService) FormatLockTime(t time.Time) string {
	return domain.FormatLockTime(t, s.location())
}

// WeekView adds the display fields the week header shows.
type WeekView struct {
	*domain.Week
	LocksAtDisplay   string `json:"locks_at_display"`
	SecondsUntilLock int64  `json:"seconds_until_lock"`
	AcceptingLegs    bool   `json:"accepting_legs"`
	StakeDisplay     string `json:"stake_display"`
}

// View wraps w with league-local display values as of now.
func (s *WeekService) View(w *domain.Week) WeekView {
	now := s.now()
	return WeekView{
		Week:             w,
		LocksAtDisplay:   s.FormatLockTime(w.LocksAt),
		SecondsUntilLock: int64(w.TimeUntilLock(now) / time.Second),
		AcceptingLegs:    w.AcceptsLegs(now),
		StakeDisplay:     domain.FormatCurrency(w.StakeAmount),
	}
}

// Views wraps each week with View.
func (s *WeekService) Views(weeks []*domain.Week) []WeekView {
	out := make([]WeekView, len(weeks))
	for i, w := range weeks {
		out[i] = s.View(w)
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Seasons
// ──────────────────────────────────────────────────────────────────────────────

// CreateSeason stores a new season.
func (s *WeekService) CreateSeason(ctx context.Context, req CreateSeasonRequest) (*domain.Season, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, domain.NewValidationError("label", "is required")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, domain.NewValidationError("end_date", "must not be before start_date")
	}
	season := &domain.Season{
		ID:        uuid.New(),
		Label:     label,
		League:    strings.ToUpper(strings.TrimSpace(req.League)),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		CreatedAt: s.now(),
	}
	if err := s.seasonRepo.Create(ctx, season); err != nil {
		return nil, err
	}
	return season, nil
}

// ListSeasons returns every season, newest first.
func (s *WeekService) ListSeasons(ctx context.Context) ([]*domain.Season, error) {
	return s.seasonRepo.List(ctx)
}
