package models

import "time"

// ExportStatus tracks the lifecycle of an asynchronous timetable export.
type ExportStatus string

const (
	ExportPending   ExportStatus = "PENDING"
	ExportRunning   ExportStatus = "RUNNING"
	ExportCompleted ExportStatus = "COMPLETED"
	ExportFailed    ExportStatus = "FAILED"
)

// ExportJob is a queued CSV export of a (course, term) timetable.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	CourseID    string       `db:"course_id" json:"course_id"`
	TermID      string       `db:"term_id" json:"term_id"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	Status      ExportStatus `db:"status" json:"status"`
	FilePath    string       `db:"file_path" json:"-"`
	Error       *string      `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
