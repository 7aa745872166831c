package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Role
// ──────────────────────────────────────────────────────────────────────────────

// Role controls access to commissioner operations.
type Role string

const (
	RoleMember       Role = "MEMBER"
	RoleCommissioner Role = "COMMISSIONER"
)

// IsValid returns true for MEMBER and COMMISSIONER.
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleCommissioner
}

// IsCommissioner returns true only for the admin role.
func (r Role) IsCommissioner() bool {
	return r == RoleCommissioner
}

// ──────────────────────────────────────────────────────────────────────────────
// User
// ──────────────────────────────────────────────────────────────────────────────

// User is the login record. Everything league-facing lives on Profile.
type User struct {
	ID           uuid.UUID `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"` // never serialised
	IsActive     bool      `json:"is_active"  db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile
// ──────────────────────────────────────────────────────────────────────────────

// Profile is a league member as seen by other members.
type Profile struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	UserID    uuid.UUID `json:"user_id"    db:"user_id"`
	Name      string    `json:"name"       db:"name"`
	Email     string    `json:"email"      db:"email"`
	TeamName  *string   `json:"team_name"  db:"team_name"`
	Role      Role      `json:"role"       db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileUpdate carries the self-editable fields. nil leaves a field as is.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	TeamName *string `json:"team_name"`
}

// Validate trims both fields and rejects an empty name.
func (u *ProfileUpdate) Validate() error {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		if n == "" {
			return NewValidationError("name", "must not be empty")
		}
		if len(n) > 100 {
			return NewValidationError("name", "must be 100 characters or fewer")
		}
		u.Name = &n
	}
	if u.TeamName != nil {
		t := strings.TrimSpace(*u.TeamName)
		if len(t) > 100 {
			return NewValidationError("team_name", "must be 100 characters or fewer")
		}
		u.TeamName = &t
	}
	return nil
}

// Apply copies the set fields onto p. An empty team name clears it.
func (u *ProfileUpdate) Apply(p *Profile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.TeamName != nil {
		if *u.TeamName == "" {
			p.TeamName = nil
		} else {
			t := *u.TeamName
			p.TeamName = &t
		}
	}
}
