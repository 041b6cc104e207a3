package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classmanager/backend/internal/models"
)

// TimeWindowRepository handles persistence for course time windows. Each
// course has at most one window.
type TimeWindowRepository struct {
	db *sqlx.DB
}

// NewTimeWindowRepository instantiates a time window repository.
func NewTimeWindowRepository(db *sqlx.DB) *TimeWindowRepository {
	return &TimeWindowRepository{db: db}
}

// FindByCourse loads the time window configured for a course. Returns
// sql.ErrNoRows when the course has none.
func (r *TimeWindowRepository) FindByCourse(ctx context.Context, courseID string) (*models.TimeWindow, error) {
	const query = `SELECT id, course_id, days_of_week, start_time, end_time, lesson_duration_minutes, created_at, updated_at FROM time_windows WHERE course_id = $1`
	var window models.TimeWindow
	if err := r.db.GetContext(ctx, &window, query, courseID); err != nil {
		return nil, err
	}
	return &window, nil
}

// Upsert inserts the window for a course or replaces the existing one. The
// course_id unique constraint makes the insert-or-update atomic.
func (r *TimeWindowRepository) Upsert(ctx context.Context, window *models.TimeWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO time_windows (id, course_id, days_of_week, start_time, end_time, lesson_duration_minutes, created_at, updated_at)
        VALUES (:id, :course_id, :days_of_week, :start_time, :end_time, :lesson_duration_minutes, :created_at, :updated_at)
        ON CONFLICT (course_id) DO UPDATE SET
            days_of_week = EXCLUDED.days_of_week,
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            lesson_duration_minutes = EXCLUDED.lesson_duration_minutes,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("upsert time window: %w", err)
	}
	return nil
}

// Delete removes the time window of a course.
func (r *TimeWindowRepository) Delete(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_windows WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete time window: %w", err)
	}
	return nil
}
