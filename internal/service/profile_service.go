package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
)

// ProfileService covers self-service profile edits and commissioner user
// management.
type ProfileService struct {
	profileRepo *repository.ProfileRepository
}

// NewProfileService creates a ProfileService.
func NewProfileService(profileRepo *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// Me returns the caller's profile.
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdateSelf applies the caller's own name/team name edit.
func (s *ProfileService) UpdateSelf(ctx context.Context, userID uuid.UUID, upd domain.ProfileUpdate) (*domain.Profile, error) {
	return s.UpdateInfo(ctx, userID, upd)
}

// List returns profiles for the back-office user table.
func (s *ProfileService) List(ctx context.Context, limit, offset int) ([]*domain.Profile, int, error) {
	return s.profileRepo.List(ctx, limit, offset)
}

// SetRole promotes or demotes a member. The new role reaches the member's
// tokens on their next refresh.
func (s *ProfileService) SetRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.Profile, error) {
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}
	if err := s.profileRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByUserID(ctx, userID)
}

// UpdateInfo edits any member's name/team name.
func (s *ProfileService) UpdateInfo(ctx context.Context, userID uuid.UUID, upd domain.ProfileUpdate) (*domain.Profile, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	p, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	upd.Apply(p)
	if err = s.profileRepo.UpdateInfo(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
