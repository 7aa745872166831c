package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// LegStatus
// ──────────────────────────────────────────────────────────────────────────────

// LegStatus is the review state of a submitted leg.
type LegStatus string

const (
	LegPending   LegStatus = "PENDING"   // submitted, awaiting review
	LegOK        LegStatus = "OK"        // approved; counts toward the parlay
	LegDuplicate LegStatus = "DUPLICATE" // same pick as another member
	LegConflict  LegStatus = "CONFLICT"  // contradicts another leg
	LegRejected  LegStatus = "REJECTED"
)

// IsValid returns true for the five known statuses.
func (s LegStatus) IsValid() bool {
	switch s {
	case LegPending, LegOK, LegDuplicate, LegConflict, LegRejected:
		return true
	}
	return false
}

// Included reports whether a leg in this status contributes to the combined
// odds. PENDING legs count only in previews.
func (s LegStatus) Included(includePending bool) bool {
	return s == LegOK || (includePending && s == LegPending)
}

// CanAdminTransition reports whether a commissioner may move a leg from one
// status to another.
//
//	PENDING, CONFLICT → OK | DUPLICATE | CONFLICT | REJECTED
//	OK                → PENDING
func CanAdminTransition(from, to LegStatus) bool {
	switch from {
	case LegPending, LegConflict:
		switch to {
		case LegOK, LegDuplicate, LegConflict, LegRejected:
			return true
		}
	case LegOK:
		return to == LegPending
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Leg
// ──────────────────────────────────────────────────────────────────────────────

// MaxNotesLength caps notes after tag stripping.
const MaxNotesLength = 500

// Leg is one member's single pick for a week.
type Leg struct {
	ID           uuid.UUID `json:"id"            db:"id"`
	UserID       uuid.UUID `json:"user_id"       db:"user_id"`
	WeekID       uuid.UUID `json:"week_id"       db:"week_id"`
	SportKey     string    `json:"sport_key"     db:"sport_key"`
	League       string    `json:"league"        db:"league"`
	GameID       *string   `json:"game_id"       db:"game_id"` // odds_cache external id, if picked from the board
	GameDesc     string    `json:"game_desc"     db:"game_desc"`
	MarketKey    string    `json:"market_key"    db:"market_key"` // h2h | spreads | totals | player_*
	Selection    string    `json:"selection"     db:"selection"`
	Line         *float64  `json:"line"          db:"line"`
	PlayerName   *string   `json:"player_name"   db:"player_name"`
	PropType     *string   `json:"prop_type"     db:"prop_type"`
	AmericanOdds int       `json:"american_odds" db:"american_odds"`
	DecimalOdds  float64   `json:"decimal_odds"  db:"decimal_odds"` // always AmericanToDecimal(AmericanOdds)
	Source       string    `json:"source"        db:"source"`
	Bookmaker    *string   `json:"bookmaker"     db:"bookmaker"`
	Notes        *string   `json:"notes"         db:"notes"`
	Status       LegStatus `json:"status"        db:"status"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"`
}

// CanMemberModify reports whether userID may edit or delete the leg.
func (l *Leg) CanMemberModify(userID uuid.UUID) bool {
	return l.UserID == userID && l.Status == LegPending
}

// Description returns the one-line summary shown in lists and broadcasts.
func (l *Leg) Description() string {
	return FormatLegDescription(deref(l.PlayerName), deref(l.PropType), l.Selection)
}

// BetType returns CategoryPlayerProp or CategoryGameBet.
func (l *Leg) BetType() BetCategory {
	return BetTypeCategory(deref(l.PlayerName), deref(l.PropType))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ──────────────────────────────────────────────────────────────────────────────
// Notes
// ──────────────────────────────────────────────────────────────────────────────

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeNotes strips HTML tags and surrounding whitespace and enforces
// MaxNotesLength on the result.
func SanitizeNotes(raw string) (string, error) {
	clean := strings.TrimSpace(htmlTag.ReplaceAllString(raw, ""))
	if utf8.RuneCountInString(clean) > MaxNotesLength {
		return "", NewValidationError("notes", "must be %d characters or fewer", MaxNotesLength)
	}
	return clean, nil
}

// sanitizeOptionalNotes returns nil for absent or empty notes.
func sanitizeOptionalNotes(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	clean, err := SanitizeNotes(*raw)
	if err != nil {
		return nil, err
	}
	if clean == "" {
		return nil, nil
	}
	return &clean, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// LegInput
// ──────────────────────────────────────────────────────────────────────────────

// LegInput is the untrusted payload a member submits or edits. AmericanOdds
// is a float so non-integers are rejected instead of truncated during
// decoding.
type LegInput struct {
	SportKey     string   `json:"sport_key"`
	League       string   `json:"league"`
	GameID       *string  `json:"game_id"`
	GameDesc     string   `json:"game_desc"`
	MarketKey    string   `json:"market_key"`
	Selection    string   `json:"selection"`
	Line         *float64 `json:"line"`
	PlayerName   *string  `json:"player_name"`
	PropType     *string  `json:"prop_type"`
	AmericanOdds float64  `json:"american_odds"`
	Source       string   `json:"source"`
	Bookmaker    *string  `json:"bookmaker"`
	Notes        *string  `json:"notes"`
}

// Validate checks every field and returns the first *ValidationError found.
// It also sanitizes Notes in place.
func (in *LegInput) Validate() error {
	if strings.TrimSpace(in.GameDesc) == "" {
		return NewValidationError("game_desc", "is required")
	}
	if strings.TrimSpace(in.MarketKey) == "" {
		return NewValidationError("market_key", "is required")
	}
	if strings.TrimSpace(in.Selection) == "" {
		return NewValidationError("selection", "is required")
	}
	if !IsValidOdds(in.AmericanOdds) {
		return NewValidationError("american_odds",
			"must be a non-zero integer between %d and %d", MinAmericanOdds, MaxAmericanOdds)
	}
	if in.Line != nil && !IsValidLine(*in.Line) {
		return NewValidationError("line", "must be a finite number")
	}
	notes, err := sanitizeOptionalNotes(in.Notes)
	if err != nil {
		return err
	}
	in.Notes = notes
	return nil
}

// ToLeg builds a PENDING leg from a validated input. DecimalOdds is derived,
// never taken from the client.
func (in *LegInput) ToLeg(userID, weekID uuid.UUID) *Leg {
	american := int(in.AmericanOdds)
	source := in.Source
	if source == "" {
		source = "manual"
	}
	return &Leg{
		ID:           uuid.New(),
		UserID:       userID,
		WeekID:       weekID,
		SportKey:     in.SportKey,
		League:       in.League,
		GameID:       in.GameID,
		GameDesc:     strings.TrimSpace(in.GameDesc),
		MarketKey:    strings.TrimSpace(in.MarketKey),
		Selection:    strings.TrimSpace(in.Selection),
		Line:         in.Line,
		PlayerName:   in.PlayerName,
		PropType:     in.PropType,
		AmericanOdds: american,
		DecimalOdds:  AmericanToDecimal(american),
		Source:       source,
		Bookmaker:    in.Bookmaker,
		Notes:        in.Notes,
		Status:       LegPending,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Status change requests
// ──────────────────────────────────────────────────────────────────────────────

// StatusChange is a commissioner's request to move a leg to Status.
type StatusChange struct {
	Status LegStatus `json:"status"`
	Notes  *string   `json:"notes"`
}

// Validate checks the target status and sanitizes Notes in place.
func (c *StatusChange) Validate() error {
	if !c.Status.IsValid() {
		return NewValidationError("status", "must be one of PENDING, OK, DUPLICATE, CONFLICT, REJECTED")
	}
	notes, err := sanitizeOptionalNotes(c.Notes)
	if err != nil {
		return err
	}
	c.Notes = notes
	return nil
}

// BatchItemResult is the outcome for one leg in a batch transition.
type BatchItemResult struct {
	LegID uuid.UUID `json:"leg_id"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}

// BatchResult reports partial success explicitly.
type BatchResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Review queue filter
// ──────────────────────────────────────────────────────────────────────────────

// ReviewFilter selects which legs appear in the commissioner's queue.
type ReviewFilter string

const (
	FilterNeedsReview ReviewFilter = "all" // PENDING + CONFLICT
	FilterPending     ReviewFilter = "pending"
	FilterConflict    ReviewFilter = "conflict"
	FilterApproved    ReviewFilter = "approved"
	FilterAllStatuses ReviewFilter = "all_statuses"
)

// Statuses returns the statuses matched by the filter. nil means no status
// restriction. Unknown filters fall back to FilterNeedsReview.
func (f ReviewFilter) Statuses() []LegStatus {
	switch f {
	case FilterPending:
		return []LegStatus{LegPending}
	case FilterConflict:
		return []LegStatus{LegConflict}
	case FilterApproved:
		return []LegStatus{LegOK}
	case FilterAllStatuses:
		return nil
	default:
		return []LegStatus{LegPending, LegConflict}
	}
}
