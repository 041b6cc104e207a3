package models

import "time"

// ConflictCode identifies why a placement was rejected. Codes travel on the
// wire so clients translate them without matching free-form text.
type ConflictCode string

const (
	ConflictTeacher          ConflictCode = "TEACHER_CONFLICT"
	ConflictRoom             ConflictCode = "ROOM_CONFLICT"
	ConflictGroup            ConflictCode = "GROUP_CONFLICT"
	ConflictTermFinalized    ConflictCode = "TERM_FINALIZED"
	ConflictDayNotAllowed    ConflictCode = "DAY_NOT_ALLOWED"
	ConflictOutsideWindow    ConflictCode = "OUTSIDE_WINDOW"
	ConflictDurationMismatch ConflictCode = "DURATION_MISMATCH"
	ConflictUnknown          ConflictCode = "UNKNOWN"
)

// ScheduleEntry is a placed occupation of one (weekday, slot) cell by exactly
// one class group within a term.
type ScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	TermID    string    `db:"term_id" json:"term_id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined display fields populated by list queries.
	GroupName      string  `db:"group_name" json:"group_name,omitempty"`
	GroupColor     string  `db:"group_color" json:"group_color,omitempty"`
	DisciplineName string  `db:"discipline_name" json:"discipline_name,omitempty"`
	TeacherID      *string `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName    *string `db:"teacher_name" json:"teacher_name,omitempty"`
	ClassroomID    string  `db:"classroom_id" json:"classroom_id,omitempty"`
	ClassroomName  string  `db:"classroom_name" json:"classroom_name,omitempty"`
	CourseID       string  `db:"course_id" json:"course_id,omitempty"`
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	TermID    string
	CourseID  string
	TeacherID string
	DayOfWeek string
}

// ScheduleConflictError is returned when a placement collides with an
// existing entry or violates the course time window.
type ScheduleConflictError struct {
	Code     ConflictCode   `json:"code"`
	Message  string         `json:"message"`
	Existing *ScheduleEntry `json:"existing,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
