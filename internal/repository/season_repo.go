package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
)

// SeasonRepository handles all database operations for Seasons.
type SeasonRepository struct {
	db *sqlx.DB
}

// NewSeasonRepository creates a new SeasonRepository.
func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// Create inserts a new season row.
func (r *SeasonRepository) Create(ctx context.Context, s *domain.Season) error {
	query := `
		INSERT INTO seasons (id, label, league, start_date, end_date, created_at)
		VALUES (:id, :label, :league, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		if isPgViolation(err, pgCheckViolation, "seasons_dates_check") {
			return domain.NewValidationError("end_date", "must not be before start_date")
		}
		return fmt.Errorf("season_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a season by its primary key.
func (r *SeasonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Season, error) {
	var s domain.Season
	err := r.db.GetContext(ctx, &s, `SELECT * FROM seasons WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSeasonNotFound
		}
		return nil, fmt.Errorf("season_repo.GetByID: %w", err)
	}
	return &s, nil
}

// List returns every season, newest first.
func (r *SeasonRepository) List(ctx context.Context) ([]*domain.Season, error) {
	var seasons []*domain.Season
	if err := r.db.SelectContext(ctx, &seasons,
		`SELECT * FROM seasons ORDER BY start_date DESC`); err != nil {
		return nil, fmt.Errorf("season_repo.List: %w", err)
	}
	return seasons, nil
}
