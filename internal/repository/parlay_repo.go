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

// ParlayRepository stores the per-week parlay projection.
type ParlayRepository struct {
	db *sqlx.DB
}

// NewParlayRepository creates a new ParlayRepository.
func NewParlayRepository(db *sqlx.DB) *ParlayRepository {
	return &ParlayRepository{db: db}
}

// Upsert overwrites the week's summary with p. Every column is replaced so
// nothing from the previous computation survives. p.ID is set to the id of
// the stored row, which stays stable across recomputes.
func (r *ParlayRepository) Upsert(ctx context.Context, p *domain.Parlay) error {
	query := `
		INSERT INTO parlays
			(id, week_id, combined_decimal, combined_american, stake_amount,
			 projected_payout, leg_count, summary_json, computed_at)
		VALUES
			(:id, :week_id, :combined_decimal, :combined_american, :stake_amount,
			 :projected_payout, :leg_count, :summary_json, :computed_at)
		ON CONFLICT (week_id) DO UPDATE SET
			combined_decimal  = EXCLUDED.combined_decimal,
			combined_american = EXCLUDED.combined_american,
			stake_amount      = EXCLUDED.stake_amount,
			projected_payout  = EXCLUDED.projected_payout,
			leg_count         = EXCLUDED.leg_count,
			summary_json      = EXCLUDED.summary_json,
			computed_at       = EXCLUDED.computed_at
		RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("parlay_repo.Upsert: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err = rows.Scan(&p.ID); err != nil {
			return fmt.Errorf("parlay_repo.Upsert scan: %w", err)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("parlay_repo.Upsert: %w", err)
	}
	return nil
}

// GetByWeek fetches the stored summary for a week.
func (r *ParlayRepository) GetByWeek(ctx context.Context, weekID uuid.UUID) (*domain.Parlay, error) {
	var p domain.Parlay
	err := r.db.GetContext(ctx, &p, `SELECT * FROM parlays WHERE week_id = $1`, weekID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrParlayNotFound
		}
		return nil, fmt.Errorf("parlay_repo.GetByWeek: %w", err)
	}
	return &p, nil
}

// DeleteByWeek drops the stored summary for a week. Deleting a missing row
// is not an error.
func (r *ParlayRepository) DeleteByWeek(ctx context.Context, weekID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parlays WHERE week_id = $1`, weekID); err != nil {
		return fmt.Errorf("parlay_repo.DeleteByWeek: %w", err)
	}
	return nil
}
