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
	"github.com/lib/pq"
)

// LegRepository handles all database operations for Legs.
type LegRepository struct {
	db *sqlx.DB
}

// NewLegRepository creates a new LegRepository.
func NewLegRepository(db *sqlx.DB) *LegRepository {
	return &LegRepository{db: db}
}

func mapLegWriteErr(op string, err error) error {
	switch {
	case isPgUniqueViolation(err, "legs_user_week_key"):
		return domain.ErrLegAlreadySubmitted
	case isPgViolation(err, pgCheckViolation, "legs_odds_check"):
		return domain.NewValidationError("american_odds", "out of range")
	case isPgViolation(err, pgCheckViolation, "legs_notes_check"):
		return domain.NewValidationError("notes", "must be %d characters or fewer", domain.MaxNotesLength)
	}
	return fmt.Errorf("leg_repo.%s: %w", op, err)
}

// Create inserts a leg only if its week is OPEN and unlocked at now. The
// guard runs in the same statement as the insert, so a week locked between
// the service's read and this write still rejects the leg. The
// legs_user_week_key constraint rejects a second leg from the same member.
func (r *LegRepository) Create(ctx context.Context, l *domain.Leg, now time.Time) error {
	query := `
		INSERT INTO legs
			(id, user_id, week_id, sport_key, league, game_id, game_desc, market_key, selection,
			 line, player_name, prop_type, american_odds, decimal_odds, source, bookmaker, notes,
			 status, created_at, updated_at)
		SELECT
			:id, :user_id, :week_id, :sport_key, :league, :game_id, :game_desc, :market_key, :selection,
			:line, :player_name, :prop_type, :american_odds, :decimal_odds, :source, :bookmaker, :notes,
			:status, :created_at, :updated_at
		WHERE EXISTS (
			SELECT 1 FROM weeks
			WHERE id = :week_id AND status = 'OPEN' AND locks_at > :created_at
		)`
	l.CreatedAt = now
	l.UpdatedAt = now
	res, err := r.db.NamedExecContext(ctx, query, l)
	if err != nil {
		return mapLegWriteErr("Create", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWeekNotOpen
	}
	return nil
}

// GetByID fetches a leg by its primary key.
func (r *LegRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Leg, error) {
	var l domain.Leg
	err := r.db.GetContext(ctx, &l, `SELECT * FROM legs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLegNotFound
		}
		return nil, fmt.Errorf("leg_repo.GetByID: %w", err)
	}
	return &l, nil
}

// GetByUserAndWeek returns the member's leg for a week.
func (r *LegRepository) GetByUserAndWeek(ctx context.Context, userID, weekID uuid.UUID) (*domain.Leg, error) {
	var l domain.Leg
	err := r.db.GetContext(ctx, &l,
		`SELECT * FROM legs WHERE user_id = $1 AND week_id = $2`, userID, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLegNotFound
		}
		return nil, fmt.Errorf("leg_repo.GetByUserAndWeek: %w", err)
	}
	return &l, nil
}

// ListByUser returns one page of a member's legs across weeks, newest first,
// with the member's total leg count.
func (r *LegRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Leg, int, error) {
	var legs []domain.Leg
	var total int

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM legs WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("leg_repo.ListByUser count: %w", err)
	}
	err := r.db.SelectContext(ctx, &legs,
		`SELECT * FROM legs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("leg_repo.ListByUser select: %w", err)
	}
	return legs, total, nil
}

// ListByWeek returns the week's legs in submission order. A nil or empty
// statuses slice returns every status.
func (r *LegRepository) ListByWeek(ctx context.Context, weekID uuid.UUID, statuses []domain.LegStatus) ([]domain.Leg, error) {
	var legs []domain.Leg
	err := r.db.SelectContext(ctx, &legs,
		`SELECT * FROM legs
		 WHERE week_id = $1
		   AND (cardinality($2::text[]) = 0 OR status::text = ANY($2::text[]))
		 ORDER BY created_at ASC, id ASC`,
		weekID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return nil, fmt.Errorf("leg_repo.ListByWeek: %w", err)
	}
	return legs, nil
}

// ListForReview returns legs matching statuses, optionally narrowed to one
// week, oldest first so the queue is worked in submission order.
func (r *LegRepository) ListForReview(ctx context.Context, statuses []domain.LegStatus, weekID *uuid.UUID, limit, offset int) ([]domain.Leg, int, error) {
	var legs []domain.Leg
	var total int

	where := `WHERE (cardinality($1::text[]) = 0 OR status::text = ANY($1::text[]))
		   AND ($2::uuid IS NULL OR week_id = $2)`
	arr := pq.Array(statusStrings(statuses))

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM legs `+where, arr, weekID); err != nil {
		return nil, 0, fmt.Errorf("leg_repo.ListForReview count: %w", err)
	}
	if err := r.db.SelectContext(ctx, &legs,
		`SELECT * FROM legs `+where+` ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4`,
		arr, weekID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("leg_repo.ListForReview select: %w", err)
	}
	return legs, total, nil
}

// UpdateByOwner rewrites the pick fields of a PENDING leg owned by l.UserID
// while its week still accepts legs. Returns ErrLegNotEditable when no row
// qualifies.
func (r *LegRepository) UpdateByOwner(ctx context.Context, l *domain.Leg, now time.Time) error {
	query := `
		UPDATE legs
		SET sport_key     = :sport_key,
		    league        = :league,
		    game_id       = :game_id,
		    game_desc     = :game_desc,
		    market_key    = :market_key,
		    selection     = :selection,
		    line          = :line,
		    player_name   = :player_name,
		    prop_type     = :prop_type,
		    american_odds = :american_odds,
		    decimal_odds  = :decimal_odds,
		    source        = :source,
		    bookmaker     = :bookmaker,
		    notes         = :notes,
		    updated_at    = :updated_at
		WHERE id = :id AND user_id = :user_id AND status = 'PENDING'
		  AND EXISTS (
			SELECT 1 FROM weeks
			WHERE weeks.id = legs.week_id AND weeks.status = 'OPEN' AND weeks.locks_at > :updated_at
		  )`
	l.UpdatedAt = now
	res, err := r.db.NamedExecContext(ctx, query, l)
	if err != nil {
		return mapLegWriteErr("UpdateByOwner", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLegNotEditable
	}
	return nil
}

// DeleteByOwner removes a PENDING leg owned by userID. Returns
// ErrLegNotEditable when no row qualifies.
func (r *LegRepository) DeleteByOwner(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM legs WHERE id = $1 AND user_id = $2 AND status = 'PENDING'`,
		id, userID)
	if err != nil {
		return fmt.Errorf("leg_repo.DeleteByOwner: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLegNotEditable
	}
	return nil
}

// UpdateStatus moves a leg from one status to another. The change only
// applies while the leg is still in from; otherwise ErrLegStateChanged is
// returned. Non-nil notes replace the stored notes.
func (r *LegRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.LegStatus, notes *string) (*domain.Leg, error) {
	query := `
		UPDATE legs
		SET status     = $1,
		    notes      = COALESCE($2, notes),
		    updated_at = now()
		WHERE id = $3 AND status = $4
		RETURNING *`
	var l domain.Leg
	err := r.db.GetContext(ctx, &l, query, string(to), notes, id, string(from))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLegStateChanged
		}
		return nil, mapLegWriteErr("UpdateStatus", err)
	}
	return &l, nil
}

func statusStrings(statuses []domain.LegStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
