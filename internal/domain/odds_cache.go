package domain

import (
	"time"

	"github.com/google/uuid"
)

// GameOdds is one cached game from the odds provider. Every price and point
// is nullable: a value the provider did not quote, or quoted out of range,
// is stored as NULL rather than zero.
type GameOdds struct {
	ID             uuid.UUID `json:"id"               db:"id"`
	ExternalGameID string    `json:"external_game_id" db:"external_game_id"`
	Sport          string    `json:"sport"            db:"sport"`
	League         string    `json:"league"           db:"league"`
	GameDate       time.Time `json:"game_date"        db:"game_date"`
	TeamA          string    `json:"team_a"           db:"team_a"` // home
	TeamB          string    `json:"team_b"           db:"team_b"` // away

	MoneylineHome *int `json:"moneyline_home" db:"moneyline_home"`
	MoneylineAway *int `json:"moneyline_away" db:"moneyline_away"`

	SpreadHome     *float64 `json:"spread_home"      db:"spread_home"`
	SpreadHomeOdds *int     `json:"spread_home_odds" db:"spread_home_odds"`
	SpreadAway     *float64 `json:"spread_away"      db:"spread_away"`
	SpreadAwayOdds *int     `json:"spread_away_odds" db:"spread_away_odds"`

	TotalOver      *float64 `json:"total_over"       db:"total_over"`
	TotalOverOdds  *int     `json:"total_over_odds"  db:"total_over_odds"`
	TotalUnder     *float64 `json:"total_under"      db:"total_under"`
	TotalUnderOdds *int     `json:"total_under_odds" db:"total_under_odds"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Matchup returns "Away @ Home".
func (g *GameOdds) Matchup() string {
	return g.TeamB + " @ " + g.TeamA
}

// RefreshResult summarises one odds ingestion run.
type RefreshResult struct {
	GamesProcessed int      `json:"games_processed"`
	SportsFailed   []string `json:"sports_failed"`
	Purged         int64    `json:"purged"`
}
