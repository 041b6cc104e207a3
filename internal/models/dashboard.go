package models

import "time"

// TeacherWorkload aggregates scheduled lessons per teacher for one term.
type TeacherWorkload struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	LessonCount int    `db:"lesson_count" json:"lesson_count"`
	Minutes     int    `db:"minutes" json:"minutes"`
}

// ClassroomOccupation aggregates scheduled lessons per classroom for one term.
type ClassroomOccupation struct {
	ClassroomID   string `db:"classroom_id" json:"classroom_id"`
	ClassroomName string `db:"classroom_name" json:"classroom_name"`
	LessonCount   int    `db:"lesson_count" json:"lesson_count"`
}

// UnassignedTeacher is a teacher with no scheduled lesson in a term.
type UnassignedTeacher struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	Email       string `db:"email" json:"email"`
}

// SystemMetrics is a point-in-time snapshot of runtime counters for the dashboard system panel.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ConflictsRejected        uint64    `json:"conflicts_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// DashboardReport bundles the per-term reports served to the dashboard view.
type DashboardReport struct {
	TermID              string                `json:"term_id"`
	TeacherWorkload     []TeacherWorkload     `json:"teacher_workload"`
	ClassroomOccupation []ClassroomOccupation `json:"classroom_occupation"`
	UnassignedTeachers  []UnassignedTeacher   `json:"unassigned_teachers"`
}
