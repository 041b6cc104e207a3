package models

import "time"

// Classroom is a physical room where group lessons take place.
type Classroom struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Abbreviation string    `db:"abbreviation" json:"abbreviation"`
	Location     string    `db:"location" json:"location"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter defines filters for classroom listings.
type ClassroomFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
