package models

import "time"

// TermStatus tracks whether a term still accepts schedule changes.
type TermStatus string

const (
	TermActive    TermStatus = "ACTIVE"
	TermFinalized TermStatus = "FINALIZED"
)

// Term models an academic term (semester). Unique per (year, number).
type Term struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Year      int        `db:"year" json:"year"`
	Number    int        `db:"number" json:"number"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	Status    TermStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by term list endpoints.
type TermFilter struct {
	Year     int
	Status   TermStatus
	Page     int
	PageSize int
}
