package domain

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Parlay is the cached projection of a week's approved legs. It is always
// recomputed from the leg set and overwritten, never patched.
type Parlay struct {
	ID               uuid.UUID      `json:"id"                db:"id"`
	WeekID           uuid.UUID      `json:"week_id"           db:"week_id"`
	CombinedDecimal  float64        `json:"combined_decimal"  db:"combined_decimal"`
	CombinedAmerican int64          `json:"combined_american" db:"combined_american"`
	StakeAmount      int64          `json:"stake_amount"      db:"stake_amount"`
	ProjectedPayout  int64          `json:"projected_payout"  db:"projected_payout"`
	LegCount         int            `json:"leg_count"         db:"leg_count"`
	SummaryJSON      types.JSONText `json:"summary"           db:"summary_json"`
	ComputedAt       time.Time      `json:"computed_at"       db:"computed_at"`
}

// ParlayView adds display strings to a Parlay for API responses.
type ParlayView struct {
	*Parlay
	CombinedAmericanDisplay string `json:"combined_american_display"`
	StakeDisplay            string `json:"stake_display"`
	PayoutDisplay           string `json:"payout_display"`
	Preview                 bool   `json:"preview"`
}

// View wraps p with formatted values.
func (p *Parlay) View(preview bool) ParlayView {
	return ParlayView{
		Parlay:                  p,
		CombinedAmericanDisplay: FormatCombinedOdds(p.CombinedAmerican, p.LegCount),
		StakeDisplay:            FormatCurrency(p.StakeAmount),
		PayoutDisplay:           FormatCurrency(p.ProjectedPayout),
		Preview:                 preview,
	}
}

// ParlaySummary is the payload stored in Parlay.SummaryJSON.
type ParlaySummary struct {
	IncludePending bool               `json:"include_pending"`
	ExcludedCount  int                `json:"excluded_count"`
	Legs           []ParlaySummaryLeg `json:"legs"`
}

// ParlaySummaryLeg is one included leg as recorded in the summary.
type ParlaySummaryLeg struct {
	LegID        uuid.UUID `json:"leg_id"`
	UserID       uuid.UUID `json:"user_id"`
	Description  string    `json:"description"`
	AmericanOdds int       `json:"american_odds"`
	DecimalOdds  float64   `json:"decimal_odds"`
	Status       LegStatus `json:"status"`
}

// ComputeParlay projects the week's legs into a Parlay. Only OK legs count,
// plus PENDING ones when includePending is set. The week's own id and stake
// are used; legs belonging to other weeks are ignored.
//
// With no included legs the combined decimal is 1 and the combined American
// odds are 0, which FormatCombinedOdds renders as not available.
func ComputeParlay(week *Week, legs []Leg, includePending bool, now time.Time) (*Parlay, error) {
	included := make([]Leg, 0, len(legs))
	excluded := 0
	for _, l := range legs {
		if l.WeekID != week.ID {
			continue
		}
		if l.Status.Included(includePending) {
			included = append(included, l)
		} else {
			excluded++
		}
	}

	// Stable order keeps the summary payload identical across recomputes.
	sort.Slice(included, func(i, j int) bool {
		if !included[i].CreatedAt.Equal(included[j].CreatedAt) {
			return included[i].CreatedAt.Before(included[j].CreatedAt)
		}
		return included[i].ID.String() < included[j].ID.String()
	})

	odds := make([]float64, 0, len(included))
	summary := ParlaySummary{
		IncludePending: includePending,
		ExcludedCount:  excluded,
		Legs:           make([]ParlaySummaryLeg, 0, len(included)),
	}
	for i := range included {
		l := &included[i]
		// Recomputed from the American odds so a stale decimal column
		// cannot leak into the product.
		d := AmericanToDecimal(l.AmericanOdds)
		odds = append(odds, d)
		summary.Legs = append(summary.Legs, ParlaySummaryLeg{
			LegID:        l.ID,
			UserID:       l.UserID,
			Description:  l.Description(),
			AmericanOdds: l.AmericanOdds,
			DecimalOdds:  d,
			Status:       l.Status,
		})
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	combined := ParlayDecimal(odds)
	var american int64
	if len(odds) > 0 {
		american = DecimalToAmerican(combined)
	}

	return &Parlay{
		ID:               uuid.New(),
		WeekID:           week.ID,
		CombinedDecimal:  combined,
		CombinedAmerican: american,
		StakeAmount:      week.StakeAmount,
		ProjectedPayout:  ParlayPayout(week.StakeAmount, combined),
		LegCount:         len(included),
		SummaryJSON:      types.JSONText(raw),
		ComputedAt:       now,
	}, nil
}
