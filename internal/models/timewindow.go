package models

import (
	"time"

	"github.com/lib/pq"
)

// TimeWindow is a course's configured teaching window: the weekdays lessons
// may occupy, the daily start/end boundaries and the fixed lesson duration.
// Times are stored as HH:MM:SS strings; slot arithmetic lives in the
// timetable package.
type TimeWindow struct {
	ID                    string         `db:"id" json:"id"`
	CourseID              string         `db:"course_id" json:"course_id"`
	DaysOfWeek            pq.StringArray `db:"days_of_week" json:"days_of_week"`
	StartTime             string         `db:"start_time" json:"start_time"`
	EndTime               string         `db:"end_time" json:"end_time"`
	LessonDurationMinutes int            `db:"lesson_duration_minutes" json:"lesson_duration_minutes"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}
