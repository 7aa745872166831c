package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
)

// Broadcaster is the minimal interface the services need from the WS hub.
// Implemented by ws.Hub and ws.Notifier.
type Broadcaster interface {
	BroadcastParlayUpdated(p *domain.Parlay)
	BroadcastLegStatusChanged(l *domain.Leg)
	BroadcastWeekStatusChanged(w *domain.Week)
}

// ParlayRecomputer rebuilds a week's stored parlay. Implemented by
// ParlayService.
type ParlayRecomputer interface {
	Recompute(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// ParlayService
// ──────────────────────────────────────────────────────────────────────────────

// ParlayService owns the per-week parlay projection. The stored row is a
// read-through cache of the OK legs and is only ever replaced whole.
type ParlayService struct {
	parlayRepo  *repository.ParlayRepository
	weekRepo    *repository.WeekRepository
	legRepo     *repository.LegRepository
	broadcaster Broadcaster // injected after WS Hub is built
	now         func() time.Time
}

// NewParlayService creates a ParlayService.
func NewParlayService(
	parlayRepo *repository.ParlayRepository,
	weekRepo *repository.WeekRepository,
	legRepo *repository.LegRepository,
) *ParlayService {
	return &ParlayService{
		parlayRepo: parlayRepo,
		weekRepo:   weekRepo,
		legRepo:    legRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *ParlayService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// Recompute projects the week's OK legs from scratch and overwrites the
// stored summary. When the new projection cannot be stored the old summary
// is dropped, so the next Get recomputes rather than serving it.
func (s *ParlayService) Recompute(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	p, err := s.project(ctx, weekID)
	if err != nil {
		if errors.Is(err, domain.ErrWeekNotFound) {
			return nil, err
		}
		if derr := s.parlayRepo.DeleteByWeek(ctx, weekID); derr != nil {
			return nil, errors.Join(err, derr)
		}
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastParlayUpdated(p)
	}
	return p, nil
}

func (s *ParlayService) project(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	week, err := s.weekRepo.GetByID(ctx, weekID)
	if err != nil {
		return nil, err
	}
	legs, err := s.legRepo.ListByWeek(ctx, weekID, []domain.LegStatus{domain.LegOK})
	if err != nil {
		return nil, err
	}
	p, err := domain.ComputeParlay(week, legs, false, s.now())
	if err != nil {
		return nil, fmt.Errorf("parlay_service.Recompute: %w", err)
	}
	if err = s.parlayRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the stored summary, computing it on first read.
func (s *ParlayService) Get(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	p, err := s.parlayRepo.GetByWeek(ctx, weekID)
	if errors.Is(err, domain.ErrParlayNotFound) {
		return s.Recompute(ctx, weekID)
	}
	return p, err
}

// Preview projects OK and PENDING legs together. The result is never stored.
func (s *ParlayService) Preview(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	week, err := s.weekRepo.GetByID(ctx, weekID)
	if err != nil {
		return nil, err
	}
	legs, err := s.legRepo.ListByWeek(ctx, weekID, []domain.LegStatus{domain.LegOK, domain.LegPending})
	if err != nil {
		return nil, err
	}
	p, err := domain.ComputeParlay(week, legs, true, s.now())
	if err != nil {
		return nil, fmt.Errorf("parlay_service.Preview: %w", err)
	}
	return p, nil
}
