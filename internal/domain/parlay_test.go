package domain_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
)

func legWithOdds(weekID uuid.UUID, american int, status domain.LegStatus, created time.Time) domain.Leg {
	return domain.Leg{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		WeekID:       weekID,
		Selection:    "pick",
		AmericanOdds: american,
		DecimalOdds:  domain.AmericanToDecimal(american),
		Status:       status,
		CreatedAt:    created,
	}
}

func TestComputeParlay_OnlyApprovedLegsCount(t *testing.T) {
	now := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	week := &domain.Week{ID: uuid.New(), StakeAmount: 1000}

	legs := []domain.Leg{
		legWithOdds(week.ID, 150, domain.LegOK, now.Add(-3*time.Hour)),   // 2.50
		legWithOdds(week.ID, -125, domain.LegOK, now.Add(-2*time.Hour)),  // 1.80
		legWithOdds(week.ID, 300, domain.LegRejected, now),               // excluded
		legWithOdds(week.ID, 200, domain.LegDuplicate, now),              // excluded
		legWithOdds(week.ID, 400, domain.LegConflict, now),               // excluded
		legWithOdds(week.ID, -200, domain.LegPending, now),               // excluded unless preview
		legWithOdds(uuid.New(), 500, domain.LegOK, now),                  // other week
	}

	p, err := domain.ComputeParlay(week, legs, false, now)
	if err != nil {
		t.Fatal(err)
	}
	if p.LegCount != 2 {
		t.Errorf("LegCount = %d, want 2", p.LegCount)
	}
	if math.Abs(p.CombinedDecimal-4.5) > 1e-9 {
		t.Errorf("CombinedDecimal = %v, want 4.5", p.CombinedDecimal)
	}
	if p.CombinedAmerican != 350 {
		t.Errorf("CombinedAmerican = %d, want 350", p.CombinedAmerican)
	}
	if p.ProjectedPayout != 4500 {
		t.Errorf("ProjectedPayout = %d, want 4500", p.ProjectedPayout)
	}
	if p.StakeAmount != 1000 || p.WeekID != week.ID || !p.ComputedAt.Equal(now) {
		t.Error("week stake, id and computed_at should carry over")
	}

	var summary domain.ParlaySummary
	if err := json.Unmarshal(p.SummaryJSON, &summary); err != nil {
		t.Fatalf("summary payload: %v", err)
	}
	if len(summary.Legs) != 2 || summary.ExcludedCount != 4 || summary.IncludePending {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Legs[0].AmericanOdds != 150 {
		t.Errorf("summary legs should be ordered by creation time, got %+v", summary.Legs)
	}

	preview, err := domain.ComputeParlay(week, legs, true, now)
	if err != nil {
		t.Fatal(err)
	}
	if preview.LegCount != 3 {
		t.Errorf("preview LegCount = %d, want 3", preview.LegCount)
	}
	if math.Abs(preview.CombinedDecimal-6.75) > 1e-9 {
		t.Errorf("preview CombinedDecimal = %v, want 6.75", preview.CombinedDecimal)
	}
}

func TestComputeParlay_IgnoresStoredDecimal(t *testing.T) {
	now := time.Now()
	week := &domain.Week{ID: uuid.New(), StakeAmount: 1000}
	l := legWithOdds(week.ID, 100, domain.LegOK, now)
	l.DecimalOdds = 9.99

	p, err := domain.ComputeParlay(week, []domain.Leg{l}, false, now)
	if err != nil {
		t.Fatal(err)
	}
	if p.CombinedDecimal != 2.0 {
		t.Errorf("CombinedDecimal = %v, want 2.0", p.CombinedDecimal)
	}
}

func TestComputeParlay_Empty(t *testing.T) {
	now := time.Now()
	week := &domain.Week{ID: uuid.New(), StakeAmount: 2500}
	p, err := domain.ComputeParlay(week, nil, false, now)
	if err != nil {
		t.Fatal(err)
	}
	if p.CombinedDecimal != 1 || p.LegCount != 0 {
		t.Errorf("empty parlay = %+v", p)
	}
	if p.ProjectedPayout != 2500 {
		t.Errorf("ProjectedPayout = %d, want stake 2500", p.ProjectedPayout)
	}
	v := p.View(false)
	if v.CombinedAmericanDisplay != domain.OddsNotAvailable {
		t.Errorf("empty parlay odds display = %q, want %q", v.CombinedAmericanDisplay, domain.OddsNotAvailable)
	}
	if v.StakeDisplay != "$25.00" || v.PayoutDisplay != "$25.00" {
		t.Errorf("displays = %q / %q", v.StakeDisplay, v.PayoutDisplay)
	}
}

func TestComputeParlay_OrderIndependent(t *testing.T) {
	now := time.Now()
	week := &domain.Week{ID: uuid.New(), StakeAmount: 1000}
	a := legWithOdds(week.ID, -110, domain.LegOK, now)
	b := legWithOdds(week.ID, 150, domain.LegOK, now.Add(time.Minute))
	c := legWithOdds(week.ID, -125, domain.LegOK, now.Add(2*time.Minute))

	p1, _ := domain.ComputeParlay(week, []domain.Leg{a, b, c}, false, now)
	p2, _ := domain.ComputeParlay(week, []domain.Leg{c, a, b}, false, now)
	if p1.CombinedDecimal != p2.CombinedDecimal || p1.ProjectedPayout != p2.ProjectedPayout {
		t.Errorf("order changed the result: %v vs %v", p1.CombinedDecimal, p2.CombinedDecimal)
	}
	if string(p1.SummaryJSON) != string(p2.SummaryJSON) {
		t.Error("summary payload should not depend on input order")
	}
}

func TestComputeParlay_LongShotsKeepAPrice(t *testing.T) {
	now := time.Now()
	week := &domain.Week{ID: uuid.New(), StakeAmount: 1000}

	legs := make([]domain.Leg, 5)
	for i := range legs {
		legs[i] = legWithOdds(week.ID, 200, domain.LegOK, now.Add(time.Duration(i)*time.Minute))
	}
	p, err := domain.ComputeParlay(week, legs, false, now)
	if err != nil {
		t.Fatal(err)
	}
	// 3^5 = 243 → +24200, beyond any single-leg quote.
	if p.CombinedAmerican != 24200 {
		t.Errorf("CombinedAmerican = %d, want 24200", p.CombinedAmerican)
	}
	if got := p.View(false).CombinedAmericanDisplay; got != "+24200" {
		t.Errorf("display = %q, want +24200", got)
	}
}

func TestComputeParlay_ExtremeOddsSaturate(t *testing.T) {
	now := time.Now()
	week := &domain.Week{ID: uuid.New(), StakeAmount: 1000}

	legs := make([]domain.Leg, 20)
	for i := range legs {
		legs[i] = legWithOdds(week.ID, domain.MaxAmericanOdds, domain.LegOK, now.Add(time.Duration(i)*time.Minute))
	}
	p, err := domain.ComputeParlay(week, legs, false, now)
	if err != nil {
		t.Fatal(err)
	}
	if p.CombinedAmerican != math.MaxInt64 {
		t.Errorf("CombinedAmerican = %d, want saturation at MaxInt64", p.CombinedAmerican)
	}
	if p.ProjectedPayout != math.MaxInt64 {
		t.Errorf("ProjectedPayout = %d, want saturation at MaxInt64", p.ProjectedPayout)
	}
}
