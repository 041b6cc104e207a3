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

// groupSelect joins the display fields every group listing needs.
const groupSelect = `SELECT g.id, g.discipline_id, g.classroom_id, g.name, g.abbreviation, g.color, g.term_of_course, g.created_at, g.updated_at,
    d.name AS discipline_name, d.teacher_id, d.course_id, d.credits,
    u.name || ' ' || u.surname AS teacher_name,
    cr.name AS classroom_name`

const groupFrom = ` FROM class_groups g
    JOIN disciplines d ON d.id = g.discipline_id
    JOIN classrooms cr ON cr.id = g.classroom_id
    LEFT JOIN users u ON u.id = d.teacher_id`

// GroupRepository handles persistence for class groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository instantiates a group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups matching the provided filters with total count. The
// grid sidebar pages through this listing.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.ClassGroup, int, error) {
	base := groupFrom + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("d.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.DisciplineID != "" {
		conditions = append(conditions, fmt.Sprintf("g.discipline_id = $%d", len(args)+1))
		args = append(args, filter.DisciplineID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(g.name) LIKE $%d OR LOWER(g.abbreviation) LIKE $%d OR LOWER(d.name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY g.term_of_course, g.abbreviation LIMIT %d OFFSET %d", groupSelect, base, size, offset)

	var groups []models.ClassGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*)%s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return groups, total, nil
}

// FindByID loads a group with its joined display fields.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	query := groupSelect + groupFrom + " WHERE g.id = $1"
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByCourse returns every group of a course, unpaged. Used by the
// timetable generator and exports.
func (r *GroupRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ClassGroup, error) {
	query := groupSelect + groupFrom + " WHERE d.course_id = $1 ORDER BY g.term_of_course, g.abbreviation"
	var groups []models.ClassGroup
	if err := r.db.SelectContext(ctx, &groups, query, courseID); err != nil {
		return nil, fmt.Errorf("list groups by course: %w", err)
	}
	return groups, nil
}

// ExistsByAbbreviation checks abbreviation uniqueness within a discipline.
func (r *GroupRepository) ExistsByAbbreviation(ctx context.Context, disciplineID, abbreviation, excludeID string) (bool, error) {
	query := "SELECT 1 FROM class_groups WHERE discipline_id = $1 AND LOWER(abbreviation) = LOWER($2)"
	args := []interface{}{disciplineID, abbreviation}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group abbreviation: %w", err)
	}
	return true, nil
}

// Create inserts a new group record.
func (r *GroupRepository) Create(ctx context.Context, group *models.ClassGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	const query = `INSERT INTO class_groups (id, discipline_id, classroom_id, name, abbreviation, color, term_of_course, created_at, updated_at) VALUES (:id, :discipline_id, :classroom_id, :name, :abbreviation, :color, :term_of_course, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update modifies an existing group.
func (r *GroupRepository) Update(ctx context.Context, group *models.ClassGroup) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_groups SET discipline_id = :discipline_id, classroom_id = :classroom_id, name = :name, abbreviation = :abbreviation, color = :color, term_of_course = :term_of_course, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group permanently.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// CountSchedules returns the number of schedule entries referencing the group.
func (r *GroupRepository) CountSchedules(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedules WHERE group_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count group schedules: %w", err)
	}
	return count, nil
}
