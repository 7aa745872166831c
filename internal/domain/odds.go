// Package domain defines the entities, odds math and lifecycle rules of the
// weekly group parlay.
package domain

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ──────────────────────────────────────────────────────────────────────────────
// Odds bounds
// ──────────────────────────────────────────────────────────────────────────────

const (
	MinAmericanOdds = -10000
	MaxAmericanOdds = 10000

	// OddsNotAvailable is rendered in place of absent or invalid odds so it is
	// never mistaken for even money.
	OddsNotAvailable = "N/A"
)

// ──────────────────────────────────────────────────────────────────────────────
// Conversions
// ──────────────────────────────────────────────────────────────────────────────

// AmericanToDecimal converts American odds to a decimal payout multiplier.
//
//	+150 → 2.50    -110 → 1.909...
//
// a must be validated with IsValidOdds first; a == 0 yields +Inf.
func AmericanToDecimal(a int) float64 {
	f := float64(a)
	if a > 0 {
		return f/100 + 1
	}
	return 100/math.Abs(f) + 1
}

// DecimalToAmerican converts a decimal multiplier back to American odds.
// Lossy; for display only. Combined long-shot parlays can exceed int64, in
// which case the result saturates.
func DecimalToAmerican(d float64) int64 {
	if d >= 2 {
		return roundToInt64((d - 1) * 100)
	}
	return roundToInt64(-100 / (d - 1))
}

// ParlayDecimal multiplies the decimal odds of every included leg.
// An empty slice yields 1.
func ParlayDecimal(odds []float64) float64 {
	combined := 1.0
	for _, d := range odds {
		combined *= d
	}
	return combined
}

// ParlayPayout returns the total return in cents for a stake in cents at the
// combined decimal odds d.
//
//	profit = (d - 1) × stake
//	payout = round((profit + stake) × 100)
func ParlayPayout(stakeCents int64, d float64) int64 {
	stake := float64(stakeCents) / 100
	profit := (d - 1) * stake
	return roundToInt64((profit + stake) * 100)
}

// roundToInt64 rounds f to the nearest integer, clamped to the int64 range.
// NaN maps to 0.
func roundToInt64(f float64) int64 {
	r := math.Round(f)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return int64(r)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validation
// ──────────────────────────────────────────────────────────────────────────────

// IsValidOdds reports whether a is a finite integer in
// [MinAmericanOdds, MaxAmericanOdds] other than zero.
func IsValidOdds(a float64) bool {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return false
	}
	if a != math.Trunc(a) {
		return false
	}
	return a >= MinAmericanOdds && a <= MaxAmericanOdds && a != 0
}

// IsValidLine reports whether a point spread or total is usable. Any finite
// number is.
func IsValidLine(l float64) bool {
	return !math.IsNaN(l) && !math.IsInf(l, 0)
}

// ──────────────────────────────────────────────────────────────────────────────
// Formatting
// ──────────────────────────────────────────────────────────────────────────────

// FormatOdds renders American odds with an explicit sign for positives.
// nil or out-of-range odds render as OddsNotAvailable.
func FormatOdds(a *int) string {
	if a == nil || !IsValidOdds(float64(*a)) {
		return OddsNotAvailable
	}
	if *a > 0 {
		return "+" + strconv.Itoa(*a)
	}
	return strconv.Itoa(*a)
}

// FormatCombinedOdds renders a parlay's combined American odds. Unlike
// FormatOdds there is no single-leg range check, since a few underdogs put a
// parlay well past +10000. Only an empty parlay has no price.
func FormatCombinedOdds(american int64, legCount int) string {
	if legCount == 0 {
		return OddsNotAvailable
	}
	if american > 0 {
		return "+" + strconv.FormatInt(american, 10)
	}
	return strconv.FormatInt(american, 10)
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders cents as US dollars with grouping separators,
// e.g. 123456 → "$1,234.56" and -100 → "-$1.00".
// Dollars and cents are split in decimal so no float rounding is involved.
func FormatCurrency(cents int64) string {
	amount := decimal.New(cents, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	dollars := amount.IntPart()
	rest := amount.Sub(decimal.NewFromInt(dollars)).Shift(2).IntPart()
	return sign + "$" + usd.Sprintf("%d", dollars) + "." + twoDigits(rest)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
