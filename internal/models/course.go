package models

import "time"

// Course models a degree course whose timetable is managed per term.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	CoordinatorID *string   `db:"coordinator_id" json:"coordinator_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// CoordinatorName is populated by list queries joining users.
	CoordinatorName *string `db:"coordinator_name" json:"coordinator_name,omitempty"`
}

// CourseFilter defines filters supported by course list endpoints.
type CourseFilter struct {
	Search        string
	CoordinatorID string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// Discipline is a subject taught within a course by one teacher.
type Discipline struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Name         string    `db:"name" json:"name"`
	Abbreviation string    `db:"abbreviation" json:"abbreviation"`
	Credits      int       `db:"credits" json:"credits"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// DisciplineFilter defines filters for discipline listings.
type DisciplineFilter struct {
	CourseID  string
	TeacherID string
	Search    string
	Page      int
	PageSize  int
}
