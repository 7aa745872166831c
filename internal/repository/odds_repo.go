package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/jmoiron/sqlx"
)

// OddsRepository maintains the odds_cache read model.
type OddsRepository struct {
	db *sqlx.DB
}

// NewOddsRepository creates a new OddsRepository.
func NewOddsRepository(db *sqlx.DB) *OddsRepository {
	return &OddsRepository{db: db}
}

// UpsertGames writes all games in one transaction, keyed on external_game_id.
func (r *OddsRepository) UpsertGames(ctx context.Context, games []domain.GameOdds) (err error) {
	if len(games) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("odds_repo.UpsertGames begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO odds_cache
			(id, external_game_id, sport, league, game_date, team_a, team_b,
			 moneyline_home, moneyline_away,
			 spread_home, spread_home_odds, spread_away, spread_away_odds,
			 total_over, total_over_odds, total_under, total_under_odds, updated_at)
		VALUES
			(:id, :external_game_id, :sport, :league, :game_date, :team_a, :team_b,
			 :moneyline_home, :moneyline_away,
			 :spread_home, :spread_home_odds, :spread_away, :spread_away_odds,
			 :total_over, :total_over_odds, :total_under, :total_under_odds, :updated_at)
		ON CONFLICT (external_game_id) DO UPDATE SET
			sport            = EXCLUDED.sport,
			league           = EXCLUDED.league,
			game_date        = EXCLUDED.game_date,
			team_a           = EXCLUDED.team_a,
			team_b           = EXCLUDED.team_b,
			moneyline_home   = EXCLUDED.moneyline_home,
			moneyline_away   = EXCLUDED.moneyline_away,
			spread_home      = EXCLUDED.spread_home,
			spread_home_odds = EXCLUDED.spread_home_odds,
			spread_away      = EXCLUDED.spread_away,
			spread_away_odds = EXCLUDED.spread_away_odds,
			total_over       = EXCLUDED.total_over,
			total_over_odds  = EXCLUDED.total_over_odds,
			total_under      = EXCLUDED.total_under,
			total_under_odds = EXCLUDED.total_under_odds,
			updated_at       = EXCLUDED.updated_at`
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("odds_repo.UpsertGames prepare: %w", err)
	}
	defer stmt.Close()

	for i := range games {
		if _, err = stmt.ExecContext(ctx, &games[i]); err != nil {
			return fmt.Errorf("odds_repo.UpsertGames %s: %w", games[i].ExternalGameID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("odds_repo.UpsertGames commit: %w", err)
	}
	return nil
}

// DeleteOlderThan purges games not refreshed since cutoff.
func (r *OddsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM odds_cache WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("odds_repo.DeleteOlderThan: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListUpcoming returns games starting at or after from, soonest first.
// league="" returns every league.
func (r *OddsRepository) ListUpcoming(ctx context.Context, from time.Time, league string, limit int) ([]domain.GameOdds, error) {
	var games []domain.GameOdds
	err := r.db.SelectContext(ctx, &games,
		`SELECT * FROM odds_cache
		 WHERE game_date >= $1 AND ($2 = '' OR league = $2)
		 ORDER BY game_date ASC
		 LIMIT $3`,
		from, league, limit)
	if err != nil {
		return nil, fmt.Errorf("odds_repo.ListUpcoming: %w", err)
	}
	return games, nil
}
