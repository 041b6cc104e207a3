package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classmanager/backend/internal/models"
)

// scheduleSelect joins the display fields every schedule listing needs.
const scheduleSelect = `SELECT s.id, s.term_id, s.group_id, s.day_of_week, s.start_time, s.end_time, s.created_at, s.updated_at,
    g.name AS group_name, g.color AS group_color, g.classroom_id,
    d.name AS discipline_name, d.teacher_id, d.course_id,
    u.name || ' ' || u.surname AS teacher_name,
    cr.name AS classroom_name`

const scheduleFrom = ` FROM schedules s
    JOIN class_groups g ON g.id = s.group_id
    JOIN disciplines d ON d.id = g.discipline_id
    JOIN classrooms cr ON cr.id = g.classroom_id
    LEFT JOIN users u ON u.id = d.teacher_id`

// ScheduleRepository handles persistence for schedule entries.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository instantiates a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedule entries matching the provided filters, joined with
// their display fields. Grid loads and exports both go through here.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	base := scheduleFrom + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("s.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("d.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("d.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("s.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	query := scheduleSelect + base + " ORDER BY s.day_of_week, s.start_time"

	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return entries, nil
}

// FindByID loads a schedule entry with its joined display fields.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := scheduleSelect + scheduleFrom + " WHERE s.id = $1"
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindTeacherOverlap returns an entry of the same teacher overlapping the
// given interval, excluding excludeID. Returns sql.ErrNoRows when free.
func (r *ScheduleRepository) FindTeacherOverlap(ctx context.Context, teacherID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	query := scheduleSelect + scheduleFrom + ` WHERE d.teacher_id = $1 AND s.term_id = $2 AND s.day_of_week = $3
        AND s.start_time < $5 AND s.end_time > $4`
	args := []interface{}{teacherID, termID, day, start, end}
	if excludeID != "" {
		query += " AND s.id <> $6"
		args = append(args, excludeID)
	}
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query+" LIMIT 1", args...); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindClassroomOverlap returns an entry in the same classroom overlapping the
// given interval, excluding excludeID. Returns sql.ErrNoRows when free.
func (r *ScheduleRepository) FindClassroomOverlap(ctx context.Context, classroomID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	query := scheduleSelect + scheduleFrom + ` WHERE g.classroom_id = $1 AND s.term_id = $2 AND s.day_of_week = $3
        AND s.start_time < $5 AND s.end_time > $4`
	args := []interface{}{classroomID, termID, day, start, end}
	if excludeID != "" {
		query += " AND s.id <> $6"
		args = append(args, excludeID)
	}
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query+" LIMIT 1", args...); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindGroupOverlap returns an entry of the same group overlapping the given
// interval, excluding excludeID. Returns sql.ErrNoRows when free.
func (r *ScheduleRepository) FindGroupOverlap(ctx context.Context, groupID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	query := scheduleSelect + scheduleFrom + ` WHERE s.group_id = $1 AND s.term_id = $2 AND s.day_of_week = $3
        AND s.start_time < $5 AND s.end_time > $4`
	args := []interface{}{groupID, termID, day, start, end}
	if excludeID != "" {
		query += " AND s.id <> $6"
		args = append(args, excludeID)
	}
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query+" LIMIT 1", args...); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a new schedule entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO schedules (id, term_id, group_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :term_id, :group_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// BulkCreate inserts a batch of entries inside one transaction. The
// generator and the copy operation persist their results through here.
func (r *ScheduleRepository) BulkCreate(ctx context.Context, entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO schedules (id, term_id, group_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :term_id, :group_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			return fmt.Errorf("bulk create schedule: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create tx: %w", err)
	}
	return nil
}

// Update moves an existing entry to a new cell.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule entry permanently.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByTermAndCourse clears a course's timetable in one term. The
// generator wipes before writing a fresh layout.
func (r *ScheduleRepository) DeleteByTermAndCourse(ctx context.Context, termID, courseID string) error {
	const query = `DELETE FROM schedules WHERE term_id = $1 AND group_id IN (
        SELECT g.id FROM class_groups g JOIN disciplines d ON d.id = g.discipline_id WHERE d.course_id = $2)`
	if _, err := r.db.ExecContext(ctx, query, termID, courseID); err != nil {
		return fmt.Errorf("delete schedules by term and course: %w", err)
	}
	return nil
}

// TeacherWorkload aggregates scheduled lesson counts and minutes per teacher
// in a term.
func (r *ScheduleRepository) TeacherWorkload(ctx context.Context, termID string) ([]models.TeacherWorkload, error) {
	const query = `SELECT d.teacher_id, u.name || ' ' || u.surname AS teacher_name, COUNT(*) AS lesson_count,
        COALESCE(SUM(EXTRACT(EPOCH FROM (s.end_time::time - s.start_time::time)) / 60), 0)::int AS minutes
        FROM schedules s
        JOIN class_groups g ON g.id = s.group_id
        JOIN disciplines d ON d.id = g.discipline_id
        JOIN users u ON u.id = d.teacher_id
        WHERE s.term_id = $1 AND d.teacher_id IS NOT NULL
        GROUP BY d.teacher_id, teacher_name
        ORDER BY lesson_count DESC`
	var workloads []models.TeacherWorkload
	if err := r.db.SelectContext(ctx, &workloads, query, termID); err != nil {
		return nil, fmt.Errorf("teacher workload: %w", err)
	}
	return workloads, nil
}

// ClassroomOccupation aggregates scheduled lesson counts per classroom in a
// term.
func (r *ScheduleRepository) ClassroomOccupation(ctx context.Context, termID string) ([]models.ClassroomOccupation, error) {
	const query = `SELECT g.classroom_id, cr.name AS classroom_name, COUNT(*) AS lesson_count
        FROM schedules s
        JOIN class_groups g ON g.id = s.group_id
        JOIN classrooms cr ON cr.id = g.classroom_id
        WHERE s.term_id = $1
        GROUP BY g.classroom_id, cr.name
        ORDER BY lesson_count DESC`
	var occupations []models.ClassroomOccupation
	if err := r.db.SelectContext(ctx, &occupations, query, termID); err != nil {
		return nil, fmt.Errorf("classroom occupation: %w", err)
	}
	return occupations, nil
}

// UnassignedTeachers lists active teachers with no scheduled lesson in a
// term.
func (r *ScheduleRepository) UnassignedTeachers(ctx context.Context, termID string) ([]models.UnassignedTeacher, error) {
	const query = `SELECT u.id AS teacher_id, u.name || ' ' || u.surname AS teacher_name, u.email
        FROM users u
        WHERE u.role = $1 AND u.active = TRUE AND NOT EXISTS (
            SELECT 1 FROM schedules s
            JOIN class_groups g ON g.id = s.group_id
            JOIN disciplines d ON d.id = g.discipline_id
            WHERE d.teacher_id = u.id AND s.term_id = $2)
        ORDER BY u.surname, u.name`
	var teachers []models.UnassignedTeacher
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher, termID); err != nil {
		return nil, fmt.Errorf("unassigned teachers: %w", err)
	}
	return teachers, nil
}
