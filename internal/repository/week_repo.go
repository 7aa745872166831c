package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
)

// WeekRepository handles all database operations for Weeks.
type WeekRepository struct {
	db *sqlx.DB
}

// NewWeekRepository creates a new WeekRepository.
func NewWeekRepository(db *sqlx.DB) *WeekRepository {
	return &WeekRepository{db: db}
}

// mapWeekWriteErr turns constraint violations on weeks into domain errors.
func mapWeekWriteErr(op string, err error) error {
	switch {
	case isPgUniqueViolation(err, "weeks_one_open"):
		return domain.ErrAnotherWeekOpen
	case isPgUniqueViolation(err, "weeks_season_number_key"):
		return domain.ErrWeekExists
	case isPgViolation(err, pgForeignKeyViolation, "weeks_season_id_fkey"):
		return domain.ErrSeasonNotFound
	case isPgViolation(err, pgCheckViolation, "weeks_window_check"):
		return domain.NewValidationError("locks_at", "must be after opens_at")
	}
	return fmt.Errorf("week_repo.%s: %w", op, err)
}

// Create inserts a new week row.
func (r *WeekRepository) Create(ctx context.Context, w *domain.Week) error {
	query := `
		INSERT INTO weeks
			(id, season_id, week_number, status, opens_at, locks_at, finalized_at, stake_amount, created_at, updated_at)
		VALUES
			(:id, :season_id, :week_number, :status, :opens_at, :locks_at, :finalized_at, :stake_amount, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return mapWeekWriteErr("Create", err)
	}
	return nil
}

// GetByID fetches a week by its primary key.
func (r *WeekRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Week, error) {
	var w domain.Week
	err := r.db.GetContext(ctx, &w, `SELECT * FROM weeks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWeekNotFound
		}
		return nil, fmt.Errorf("week_repo.GetByID: %w", err)
	}
	return &w, nil
}

// ListOpen returns every OPEN week, most recently opened first. Current-week
// resolution picks among them.
func (r *WeekRepository) ListOpen(ctx context.Context) ([]domain.Week, error) {
	var weeks []domain.Week
	err := r.db.SelectContext(ctx, &weeks,
		`SELECT * FROM weeks WHERE status = 'OPEN' ORDER BY opens_at DESC, week_number DESC`)
	if err != nil {
		return nil, fmt.Errorf("week_repo.ListOpen: %w", err)
	}
	return weeks, nil
}

// List returns a paginated slice of weeks filtered by optional status and
// season. Returns (weeks, totalCount, error).
func (r *WeekRepository) List(ctx context.Context, limit, offset int, status string, seasonID *uuid.UUID) ([]*domain.Week, int, error) {
	var weeks []*domain.Week
	var total int

	where := `WHERE ($1 = '' OR status::text = $1) AND ($2::uuid IS NULL OR season_id = $2)`
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM weeks `+where, status, seasonID); err != nil {
		return nil, 0, fmt.Errorf("week_repo.List count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &weeks,
		`SELECT * FROM weeks `+where+` ORDER BY opens_at DESC LIMIT $3 OFFSET $4`,
		status, seasonID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("week_repo.List select: %w", err)
	}
	return weeks, total, nil
}

// UpdateStatus moves a week from one status to another. The WHERE clause on
// the current status makes the change conditional: when another request
// already moved the week, no row matches and ErrWeekStateChanged is returned.
// finalizedAt must be non-nil exactly when to is FINALIZED.
func (r *WeekRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.WeekStatus, finalizedAt *time.Time) error {
	query := `
		UPDATE weeks
		SET status       = $1,
		    finalized_at = $2,
		    updated_at   = now()
		WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, string(to), finalizedAt, id, string(from))
	if err != nil {
		return mapWeekWriteErr("UpdateStatus", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWeekStateChanged
	}
	return nil
}

// SetLockTime moves the lock deadline of a week that is not FINALIZED.
func (r *WeekRepository) SetLockTime(ctx context.Context, id uuid.UUID, locksAt time.Time) error {
	query := `
		UPDATE weeks
		SET locks_at = $1, updated_at = now()
		WHERE id = $2 AND status <> 'FINALIZED'`
	res, err := r.db.ExecContext(ctx, query, locksAt, id)
	if err != nil {
		return mapWeekWriteErr("SetLockTime", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWeekStateChanged
	}
	return nil
}
