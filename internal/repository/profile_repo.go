package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProfileRepository handles all database operations for Profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile inside the registration transaction.
func (r *ProfileRepository) Create(ctx context.Context, tx *sqlx.Tx, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, name, email, team_name, role, created_at, updated_at)
		VALUES (:id, :user_id, :name, :email, :team_name, :role, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("profile_repo.Create: %w", err)
	}
	return nil
}

// GetByUserID fetches the profile belonging to a user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile_repo.GetByUserID: %w", err)
	}
	return &p, nil
}

// ListByUserIDs returns the profiles of the given users in one round trip.
func (r *ProfileRepository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}
	var profiles []*domain.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM profiles WHERE user_id = ANY($1::uuid[]) ORDER BY name ASC`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("profile_repo.ListByUserIDs: %w", err)
	}
	return profiles, nil
}

// List returns a paginated list of all profiles.
// Returns (profiles, totalCount, error).
func (r *ProfileRepository) List(ctx context.Context, limit, offset int) ([]*domain.Profile, int, error) {
	var profiles []*domain.Profile
	var total int

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM profiles`); err != nil {
		return nil, 0, fmt.Errorf("profile_repo.List count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM profiles ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("profile_repo.List select: %w", err)
	}
	return profiles, total, nil
}

// UpdateRole changes a member's role (commissioner operation).
func (r *ProfileRepository) UpdateRole(ctx context.Context, userID uuid.UUID, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET role = $1, updated_at = now() WHERE user_id = $2`,
		string(role), userID)
	if err != nil {
		return fmt.Errorf("profile_repo.UpdateRole: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

// UpdateInfo writes name and team name.
func (r *ProfileRepository) UpdateInfo(ctx context.Context, p *domain.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET name = $1, team_name = $2, updated_at = now() WHERE user_id = $3`,
		p.Name, p.TeamName, p.UserID)
	if err != nil {
		return fmt.Errorf("profile_repo.UpdateInfo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
