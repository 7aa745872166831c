// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs pushed to connected members.
package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeParlayUpdated     MsgType = "parlay_updated"
	MsgTypeLegStatusChanged  MsgType = "leg_status_changed"
	MsgTypeWeekStatusChanged MsgType = "week_status_changed"
	MsgTypeError             MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// ParlayUpdatedMessage is sent after every recompute of a week's parlay.
// ──────────────────────────────────────────────────────────────────────────────

// ParlayUpdatedMessage carries the freshly stored projection with display
// strings so clients can render it without a follow-up request.
type ParlayUpdatedMessage struct {
	Type      MsgType           `json:"type"`
	WeekID    uuid.UUID         `json:"week_id"`
	Parlay    domain.ParlayView `json:"parlay"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewParlayUpdated builds the message for p.
func NewParlayUpdated(p *domain.Parlay) ParlayUpdatedMessage {
	return ParlayUpdatedMessage{
		Type:      MsgTypeParlayUpdated,
		WeekID:    p.WeekID,
		Parlay:    p.View(false),
		Timestamp: time.Now().UTC(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// LegStatusChangedMessage is sent on submit and on every review decision.
// ──────────────────────────────────────────────────────────────────────────────

// LegStatusChangedMessage tells the group a leg entered or moved through the
// review queue. Notes are left out; they are visible through the API only.
type LegStatusChangedMessage struct {
	Type         MsgType          `json:"type"`
	LegID        uuid.UUID        `json:"leg_id"`
	WeekID       uuid.UUID        `json:"week_id"`
	UserID       uuid.UUID        `json:"user_id"`
	Status       domain.LegStatus `json:"status"`
	Description  string           `json:"description"`
	OddsDisplay  string           `json:"odds_display"`
	AmericanOdds int              `json:"american_odds"`
	Timestamp    time.Time        `json:"timestamp"`
}

// NewLegStatusChanged builds the message for l.
func NewLegStatusChanged(l *domain.Leg) LegStatusChangedMessage {
	odds := l.AmericanOdds
	return LegStatusChangedMessage{
		Type:         MsgTypeLegStatusChanged,
		LegID:        l.ID,
		WeekID:       l.WeekID,
		UserID:       l.UserID,
		Status:       l.Status,
		Description:  l.Description(),
		OddsDisplay:  domain.FormatOdds(&odds),
		AmericanOdds: l.AmericanOdds,
		Timestamp:    time.Now().UTC(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// WeekStatusChangedMessage is sent when a week opens, locks or is finalized.
// ──────────────────────────────────────────────────────────────────────────────

// WeekStatusChangedMessage carries the week's new lifecycle state.
type WeekStatusChangedMessage struct {
	Type        MsgType           `json:"type"`
	WeekID      uuid.UUID         `json:"week_id"`
	WeekNumber  int               `json:"week_number"`
	Status      domain.WeekStatus `json:"status"`
	LocksAt     time.Time         `json:"locks_at"`
	FinalizedAt *time.Time        `json:"finalized_at"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewWeekStatusChanged builds the message for w.
func NewWeekStatusChanged(w *domain.Week) WeekStatusChangedMessage {
	return WeekStatusChangedMessage{
		Type:        MsgTypeWeekStatusChanged,
		WeekID:      w.ID,
		WeekNumber:  w.WeekNumber,
		Status:      w.Status,
		LocksAt:     w.LocksAt,
		FinalizedAt: w.FinalizedAt,
		Timestamp:   time.Now().UTC(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage is sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
