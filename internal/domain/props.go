package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var propDisplayNames = map[string]string{
	// passing
	"player_pass_yds":                "Passing Yards",
	"player_pass_tds":                "Passing TDs",
	"player_pass_completions":        "Completions",
	"player_pass_attempts":           "Pass Attempts",
	"player_pass_interceptions":      "Interceptions",
	"player_pass_longest_completion": "Longest Completion",

	// rushing
	"player_rush_yds":      "Rushing Yards",
	"player_rush_tds":      "Rushing TDs",
	"player_rush_attempts": "Rush Attempts",
	"player_rush_longest":  "Longest Rush",

	// receiving
	"player_receptions":        "Receptions",
	"player_reception_yds":     "Receiving Yards",
	"player_reception_tds":     "Receiving TDs",
	"player_reception_longest": "Longest Reception",

	// touchdowns
	"player_anytime_td": "Anytime TD",
	"player_1st_td":     "First TD",
	"player_last_td":    "Last TD",

	// defense
	"player_sacks":             "Sacks",
	"player_tackles_assists":   "Tackles + Assists",
	"player_interceptions":     "Interceptions",
	"player_fumbles_recovered": "Fumbles Recovered",

	// kicking
	"player_field_goals":    "Field Goals",
	"player_kicking_points": "Kicking Points",
	"player_extra_points":   "Extra Points",

	// combined
	"player_pass_rush_reception_yds": "Pass + Rush + Rec Yards",
	"player_rush_reception_yds":      "Rush + Rec Yards",
	"player_pass_reception_yds":      "Pass + Rec Yards",

	// game markets
	"h2h":     "Moneyline",
	"spreads": "Point Spread",
	"totals":  "Total Points",
	"total":   "Total Points",
}

var touchdownProps = map[string]bool{
	"player_anytime_td": true,
	"player_1st_td":     true,
	"player_last_td":    true,
}

// FormatPropDisplayName maps a market or prop key to its label. Unknown keys
// are title-cased with underscores replaced by spaces.
func FormatPropDisplayName(key string) string {
	if name, ok := propDisplayNames[key]; ok {
		return name
	}
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}

// FormatLegDescription renders "Player - Prop: Selection" for player props
// and just the selection for game bets.
func FormatLegDescription(playerName, propType, selection string) string {
	if playerName != "" && propType != "" {
		return playerName + " - " + FormatPropDisplayName(propType) + ": " + selection
	}
	return selection
}

// BetCategory distinguishes player props from game bets.
type BetCategory string

const (
	CategoryPlayerProp BetCategory = "player_prop"
	CategoryGameBet    BetCategory = "game_bet"
)

// BetTypeCategory classifies a leg by whether it names a player and a prop.
func BetTypeCategory(playerName, propType string) BetCategory {
	if playerName != "" && propType != "" {
		return CategoryPlayerProp
	}
	return CategoryGameBet
}

// IsTouchdownProp reports whether marketKey is any touchdown scorer market.
func IsTouchdownProp(marketKey string) bool {
	return touchdownProps[marketKey]
}

// IsAnytimeTouchdownProp reports whether marketKey is the anytime scorer market.
func IsAnytimeTouchdownProp(marketKey string) bool {
	return marketKey == "player_anytime_td"
}
