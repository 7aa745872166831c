package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
)

// CurrentWeekResolver returns the week members are playing. Implemented by
// WeekService.
type CurrentWeekResolver interface {
	Current(ctx context.Context) (*domain.Week, error)
}

// LegView is a leg with the display fields every list shows.
type LegView struct {
	domain.Leg
	Description string             `json:"description"`
	BetType     domain.BetCategory `json:"bet_type"`
	OddsDisplay string             `json:"odds_display"`
	MemberName  string             `json:"member_name"`
	TeamName    *string            `json:"team_name,omitempty"`
	CanModify   bool               `json:"can_modify"`
}

// BatchStatusRequest applies one status change to many legs.
type BatchStatusRequest struct {
	LegIDs []uuid.UUID `json:"leg_ids" binding:"required,min=1,max=100"`
	domain.StatusChange
}

// ──────────────────────────────────────────────────────────────────────────────
// LegService
// ──────────────────────────────────────────────────────────────────────────────

// LegService implements member submissions and commissioner review.
type LegService struct {
	legRepo     *repository.LegRepository
	weekRepo    *repository.WeekRepository
	profileRepo *repository.ProfileRepository
	weeks       CurrentWeekResolver
	parlays     ParlayRecomputer
	broadcaster Broadcaster // injected after WS Hub is built
	log         *slog.Logger
	now         func() time.Time
}

// NewLegService creates a LegService.
func NewLegService(
	legRepo *repository.LegRepository,
	weekRepo *repository.WeekRepository,
	profileRepo *repository.ProfileRepository,
	weeks CurrentWeekResolver,
	parlays ParlayRecomputer,
	log *slog.Logger,
) *LegService {
	return &LegService{
		legRepo:     legRepo,
		weekRepo:    weekRepo,
		profileRepo: profileRepo,
		weeks:       weeks,
		parlays:     parlays,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *LegService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Member operations
// ──────────────────────────────────────────────────────────────────────────────

// Submit validates in and records it as the member's leg for the current
// week.
//
// Guards, in order:
//  1. input validation (odds, line, notes);
//  2. a current OPEN week must exist (ErrNoOpenWeek);
//  3. the week must still accept legs (ErrWeekNotOpen), rechecked inside
//     the INSERT;
//  4. one leg per member per week, enforced by legs_user_week_key
//     (ErrLegAlreadySubmitted).
func (s *LegService) Submit(ctx context.Context, userID uuid.UUID, in domain.LegInput) (*domain.Leg, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	week, err := s.weeks.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !week.AcceptsLegs(now) {
		return nil, domain.ErrWeekNotOpen
	}

	leg := in.ToLeg(userID, week.ID)
	if err = s.legRepo.Create(ctx, leg, now); err != nil {
		return nil, err
	}

	s.log.Info("leg submitted", "leg_id", leg.ID, "user_id", userID, "week_id", week.ID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastLegStatusChanged(leg)
	}
	return leg, nil
}

// Edit replaces the pick fields of the member's PENDING leg.
func (s *LegService) Edit(ctx context.Context, userID, legID uuid.UUID, in domain.LegInput) (*domain.Leg, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.ownedLeg(ctx, userID, legID)
	if err != nil {
		return nil, err
	}
	week, err := s.weekRepo.GetByID(ctx, existing.WeekID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !week.AcceptsLegs(now) {
		return nil, domain.ErrWeekNotOpen
	}

	updated := in.ToLeg(userID, existing.WeekID)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err = s.legRepo.UpdateByOwner(ctx, updated, now); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the member's PENDING leg. PENDING legs never count toward
// the stored parlay, so there is nothing to recompute.
func (s *LegService) Delete(ctx context.Context, userID, legID uuid.UUID) error {
	if _, err := s.ownedLeg(ctx, userID, legID); err != nil {
		return err
	}
	if err := s.legRepo.DeleteByOwner(ctx, legID, userID); err != nil {
		return err
	}
	s.log.Info("leg deleted", "leg_id", legID, "user_id", userID)
	return nil
}

// ownedLeg loads a leg and checks that userID may still change it.
func (s *LegService) ownedLeg(ctx context.Context, userID, legID uuid.UUID) (*domain.Leg, error) {
	leg, err := s.legRepo.GetByID(ctx, legID)
	if err != nil {
		return nil, err
	}
	if leg.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !leg.CanMemberModify(userID) {
		return nil, domain.ErrLegNotEditable
	}
	return leg, nil
}

// GetMine returns the member's leg for weekID, or for the current week when
// weekID is nil.
func (s *LegService) GetMine(ctx context.Context, userID uuid.UUID, weekID *uuid.UUID) (*LegView, error) {
	if weekID == nil {
		week, err := s.weeks.Current(ctx)
		if err != nil {
			return nil, err
		}
		weekID = &week.ID
	}
	leg, err := s.legRepo.GetByUserAndWeek(ctx, userID, *weekID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []domain.Leg{*leg})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// History returns a page of the member's legs across weeks, newest first,
// and the member's total leg count.
func (s *LegService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]LegView, int, error) {
	legs, total, err := s.legRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, legs)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// ListByWeek returns the week's legs in submission order. An empty statuses
// slice returns every status.
func (s *LegService) ListByWeek(ctx context.Context, weekID uuid.UUID, statuses []domain.LegStatus) ([]LegView, error) {
	if _, err := s.weekRepo.GetByID(ctx, weekID); err != nil {
		return nil, err
	}
	legs, err := s.legRepo.ListByWeek(ctx, weekID, statuses)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, legs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Commissioner operations
// ──────────────────────────────────────────────────────────────────────────────

// ListForReview returns the approval queue for filter, optionally narrowed to
// one week.
func (s *LegService) ListForReview(ctx context.Context, filter domain.ReviewFilter, weekID *uuid.UUID, limit, offset int) ([]LegView, int, error) {
	legs, total, err := s.legRepo.ListForReview(ctx, filter.Statuses(), weekID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, legs)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// SetStatus applies a commissioner transition and recomputes the parlay when
// the set of OK legs changed.
func (s *LegService) SetStatus(ctx context.Context, legID uuid.UUID, change domain.StatusChange) (*domain.Leg, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}
	leg, from, err := s.setStatus(ctx, legID, change)
	if err != nil {
		return nil, err
	}
	if changesParlay(from, leg.Status) {
		s.recompute(ctx, leg.WeekID)
	}
	return leg, nil
}

// BatchSetStatus applies change to each leg independently. A failing leg
// does not undo the others; the result counts both. A repeated id is applied
// once and each repeat is reported as failed, so the counts always add up to
// len(legIDs). The parlay of every
// touched week is recomputed once at the end.
func (s *LegService) BatchSetStatus(ctx context.Context, legIDs []uuid.UUID, change domain.StatusChange) (*domain.BatchResult, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}
	if len(legIDs) == 0 {
		return nil, domain.NewValidationError("leg_ids", "must not be empty")
	}

	result := &domain.BatchResult{Results: make([]domain.BatchItemResult, 0, len(legIDs))}
	touched := make(map[uuid.UUID]struct{})
	seen := make(map[uuid.UUID]struct{}, len(legIDs))

	for _, id := range legIDs {
		if _, dup := seen[id]; dup {
			result.Failed++
			result.Results = append(result.Results, domain.BatchItemResult{
				LegID: id,
				Error: "duplicate leg id in request",
			})
			continue
		}
		seen[id] = struct{}{}

		leg, from, err := s.setStatus(ctx, id, change)
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, domain.BatchItemResult{
				LegID: id,
				Error: s.itemError(id, err),
			})
			continue
		}
		result.Succeeded++
		result.Results = append(result.Results, domain.BatchItemResult{LegID: id, OK: true})
		if changesParlay(from, leg.Status) {
			touched[leg.WeekID] = struct{}{}
		}
	}

	for weekID := range touched {
		s.recompute(ctx, weekID)
	}
	s.log.Info("batch leg status applied",
		"status", change.Status,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// setStatus checks the transition table and applies a conditional update on
// the status it read. Returns ErrLegStateChanged when another request moved
// the leg in between. The previous status is returned alongside the leg.
func (s *LegService) setStatus(ctx context.Context, legID uuid.UUID, change domain.StatusChange) (*domain.Leg, domain.LegStatus, error) {
	current, err := s.legRepo.GetByID(ctx, legID)
	if err != nil {
		return nil, "", err
	}
	if !domain.CanAdminTransition(current.Status, change.Status) {
		return nil, "", domain.ErrInvalidLegTransition
	}
	updated, err := s.legRepo.UpdateStatus(ctx, legID, current.Status, change.Status, change.Notes)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("leg status changed", "leg_id", legID, "from", current.Status, "to", updated.Status)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastLegStatusChanged(updated)
	}
	return updated, current.Status, nil
}

// changesParlay reports whether moving a leg between from and to changes the
// week's set of OK legs.
func changesParlay(from, to domain.LegStatus) bool {
	return from != to && (from == domain.LegOK || to == domain.LegOK)
}

// itemError returns the message reported for one failed batch item. Backend
// errors are logged with their cause and reported generically.
func (s *LegService) itemError(legID uuid.UUID, err error) string {
	var ve *domain.ValidationError
	if domain.IsNotFound(err) || domain.IsConflict(err) || errors.As(err, &ve) {
		return err.Error()
	}
	s.log.Error("batch leg status failed", "leg_id", legID, "err", err)
	return "internal error"
}

// recompute refreshes the week's parlay. The leg change already committed,
// so a failure here is logged rather than returned. A failed Recompute has
// already dropped the stored summary, so the next read recomputes.
func (s *LegService) recompute(ctx context.Context, weekID uuid.UUID) {
	if s.parlays == nil {
		return
	}
	if _, err := s.parlays.Recompute(ctx, weekID); err != nil {
		s.log.Error("parlay recompute failed", "week_id", weekID, "err", err)
	}
}

// views decorates legs with display fields and the owner's profile.
func (s *LegService) views(ctx context.Context, legs []domain.Leg) ([]LegView, error) {
	ids := make([]uuid.UUID, 0, len(legs))
	seen := make(map[uuid.UUID]struct{}, len(legs))
	for i := range legs {
		if _, ok := seen[legs[i].UserID]; !ok {
			seen[legs[i].UserID] = struct{}{}
			ids = append(ids, legs[i].UserID)
		}
	}
	profiles, err := s.profileRepo.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]*domain.Profile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}

	out := make([]LegView, len(legs))
	for i := range legs {
		l := legs[i]
		odds := l.AmericanOdds
		v := LegView{
			Leg:         l,
			Description: l.Description(),
			BetType:     l.BetType(),
			OddsDisplay: domain.FormatOdds(&odds),
			CanModify:   l.Status == domain.LegPending,
		}
		if p, ok := byUser[l.UserID]; ok {
			v.MemberName = p.Name
			v.TeamName = p.TeamName
		}
		out[i] = v
	}
	return out, nil
}
