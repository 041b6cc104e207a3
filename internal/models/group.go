package models

import "time"

// ClassGroup is a class group eligible for placement on the timetable grid.
// Groups are created through the group form flow, never by the grid itself.
type ClassGroup struct {
	ID           string    `db:"id" json:"id"`
	DisciplineID string    `db:"discipline_id" json:"discipline_id"`
	ClassroomID  string    `db:"classroom_id" json:"classroom_id"`
	Name         string    `db:"name" json:"name"`
	Abbreviation string    `db:"abbreviation" json:"abbreviation"`
	Color        string    `db:"color" json:"color"`
	TermOfCourse int       `db:"term_of_course" json:"term_of_course"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined display fields populated by list queries.
	DisciplineName string  `db:"discipline_name" json:"discipline_name,omitempty"`
	TeacherID      *string `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName    *string `db:"teacher_name" json:"teacher_name,omitempty"`
	ClassroomName  string  `db:"classroom_name" json:"classroom_name,omitempty"`
	CourseID       string  `db:"course_id" json:"course_id,omitempty"`
	Credits        int     `db:"credits" json:"credits,omitempty"`
}

// GroupFilter defines filters for group listings.
type GroupFilter struct {
	CourseID     string
	DisciplineID string
	Search       string
	Page         int
	PageSize     int
}
