package domain

import (
	"errors"
	"fmt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors, compared with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Week errors
var (
	// ErrWeekNotFound is returned when no week matches the given criteria.
	ErrWeekNotFound = errors.New("week not found")

	// ErrNoOpenWeek is returned when current-week resolution finds no OPEN week.
	// Submission endpoints surface it instead of falling back to another week.
	ErrNoOpenWeek = errors.New("no week is currently open for submissions")

	// ErrWeekNotOpen is returned when a leg is submitted to a week that is
	// LOCKED, FINALIZED, or past its lock time.
	ErrWeekNotOpen = errors.New("week is not open for submissions")

	// ErrInvalidWeekTransition is returned when the requested status change is
	// not an edge of the week lifecycle.
	ErrInvalidWeekTransition = errors.New("invalid week status transition")

	// ErrWeekStateChanged is returned when a week changed status between read
	// and write.
	ErrWeekStateChanged = errors.New("week status changed, please refresh")

	// ErrAnotherWeekOpen is returned when opening a week would leave two weeks
	// OPEN at the same time.
	ErrAnotherWeekOpen = errors.New("another week is already open")

	// ErrWeekExists is returned when the season already has that week number.
	ErrWeekExists = errors.New("week number already exists for this season")

	// ErrSeasonNotFound is returned when no season matches the given id.
	ErrSeasonNotFound = errors.New("season not found")
)

// Leg errors
var (
	// ErrLegNotFound is returned when no leg matches the given criteria.
	ErrLegNotFound = errors.New("leg not found")

	// ErrLegAlreadySubmitted is returned when a member already has a leg for
	// the week. Raised from the (user_id, week_id) unique constraint.
	ErrLegAlreadySubmitted = errors.New("you have already submitted a leg for this week")

	// ErrLegNotEditable is returned when a member edits or deletes a leg that
	// is no longer PENDING.
	ErrLegNotEditable = errors.New("leg can only be changed while pending")

	// ErrInvalidLegTransition is returned for admin status changes that the
	// leg lifecycle does not allow.
	ErrInvalidLegTransition = errors.New("invalid leg status transition")

	// ErrLegStateChanged is returned when a concurrent update won the race.
	ErrLegStateChanged = errors.New("leg status changed, please refresh")

	// ErrInvalidLegStatus is returned for unknown status strings.
	ErrInvalidLegStatus = errors.New("invalid leg status")
)

// Parlay errors
var (
	// ErrParlayNotFound is returned when no summary has been computed yet.
	ErrParlayNotFound = errors.New("parlay summary not found")
)

// User / profile errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEmailTaken         = errors.New("email address is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrInvalidRole        = errors.New("invalid role: must be MEMBER or COMMISSIONER")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks ownership or role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// ValidationError
// ──────────────────────────────────────────────────────────────────────────────

// ValidationError rejects untrusted input before it reaches persistence.
// Field names the offending input field as it appears in request bodies.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

var notFoundErrors = []error{
	ErrWeekNotFound,
	ErrNoOpenWeek,
	ErrSeasonNotFound,
	ErrLegNotFound,
	ErrParlayNotFound,
	ErrUserNotFound,
	ErrProfileNotFound,
}

var conflictErrors = []error{
	ErrLegAlreadySubmitted,
	ErrLegNotEditable,
	ErrInvalidLegTransition,
	ErrLegStateChanged,
	ErrWeekNotOpen,
	ErrInvalidWeekTransition,
	ErrWeekStateChanged,
	ErrAnotherWeekOpen,
	ErrWeekExists,
	ErrEmailTaken,
}

var authErrors = []error{
	ErrUnauthorized,
	ErrForbidden,
	ErrTokenExpired,
	ErrTokenInvalid,
	ErrInvalidCredentials,
	ErrUserInactive,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors.
func IsNotFound(err error) bool { return isAny(err, notFoundErrors) }

// IsConflict returns true for errors that represent a state conflict: a
// duplicate submission, a forbidden transition or a lost race.
func IsConflict(err error) bool { return isAny(err, conflictErrors) }

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool { return isAny(err, authErrors) }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
