package domain

import (
	"time"

	"github.com/google/uuid"
)

// Season groups weeks, e.g. "2025 NFL".
type Season struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	Label     string    `json:"label"      db:"label"`
	League    string    `json:"league"     db:"league"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date"   db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
