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

// DisciplineRepository handles persistence for course disciplines.
type DisciplineRepository struct {
	db *sqlx.DB
}

// NewDisciplineRepository instantiates a discipline repository.
func NewDisciplineRepository(db *sqlx.DB) *DisciplineRepository {
	return &DisciplineRepository{db: db}
}

// List returns disciplines matching the provided filters.
func (r *DisciplineRepository) List(ctx context.Context, filter models.DisciplineFilter) ([]models.Discipline, int, error) {
	base := "FROM disciplines d LEFT JOIN users u ON u.id = d.teacher_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("d.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("d.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(d.name) LIKE $%d OR LOWER(d.abbreviation) LIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT d.id, d.course_id, d.teacher_id, d.name, d.abbreviation, d.credits, d.created_at, d.updated_at,
        u.name || ' ' || u.surname AS teacher_name
        %s ORDER BY d.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var disciplines []models.Discipline
	if err := r.db.SelectContext(ctx, &disciplines, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list disciplines: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count disciplines: %w", err)
	}
	return disciplines, total, nil
}

// FindByID loads a discipline by identifier.
func (r *DisciplineRepository) FindByID(ctx context.Context, id string) (*models.Discipline, error) {
	const query = `SELECT d.id, d.course_id, d.teacher_id, d.name, d.abbreviation, d.credits, d.created_at, d.updated_at,
        u.name || ' ' || u.surname AS teacher_name
        FROM disciplines d LEFT JOIN users u ON u.id = d.teacher_id WHERE d.id = $1`
	var discipline models.Discipline
	if err := r.db.GetContext(ctx, &discipline, query, id); err != nil {
		return nil, err
	}
	return &discipline, nil
}

// FindByName loads a discipline by its case-insensitive name. Used by the
// bulk importer to resolve cross-references.
func (r *DisciplineRepository) FindByName(ctx context.Context, name string) (*models.Discipline, error) {
	const query = `SELECT d.id, d.course_id, d.teacher_id, d.name, d.abbreviation, d.credits, d.created_at, d.updated_at,
        u.name || ' ' || u.surname AS teacher_name
        FROM disciplines d LEFT JOIN users u ON u.id = d.teacher_id WHERE LOWER(d.name) = LOWER($1) LIMIT 1`
	var discipline models.Discipline
	if err := r.db.GetContext(ctx, &discipline, query, name); err != nil {
		return nil, err
	}
	return &discipline, nil
}

// ExistsByAbbreviation checks abbreviation uniqueness within a course.
func (r *DisciplineRepository) ExistsByAbbreviation(ctx context.Context, courseID, abbreviation, excludeID string) (bool, error) {
	query := "SELECT 1 FROM disciplines WHERE course_id = $1 AND LOWER(abbreviation) = LOWER($2)"
	args := []interface{}{courseID, abbreviation}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check discipline abbreviation: %w", err)
	}
	return true, nil
}

// Create inserts a new discipline record.
func (r *DisciplineRepository) Create(ctx context.Context, discipline *models.Discipline) error {
	if discipline.ID == "" {
		discipline.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if discipline.CreatedAt.IsZero() {
		discipline.CreatedAt = now
	}
	discipline.UpdatedAt = now

	const query = `INSERT INTO disciplines (id, course_id, teacher_id, name, abbreviation, credits, created_at, updated_at) VALUES (:id, :course_id, :teacher_id, :name, :abbreviation, :credits, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, discipline); err != nil {
		return fmt.Errorf("create discipline: %w", err)
	}
	return nil
}

// Update modifies an existing discipline.
func (r *DisciplineRepository) Update(ctx context.Context, discipline *models.Discipline) error {
	discipline.UpdatedAt = time.Now().UTC()
	const query = `UPDATE disciplines SET teacher_id = :teacher_id, name = :name, abbreviation = :abbreviation, credits = :credits, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, discipline); err != nil {
		return fmt.Errorf("update discipline: %w", err)
	}
	return nil
}

// Delete removes a discipline permanently.
func (r *DisciplineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM disciplines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete discipline: %w", err)
	}
	return nil
}

// CountGroups returns the number of groups referencing the discipline.
func (r *DisciplineRepository) CountGroups(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_groups WHERE discipline_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count discipline groups: %w", err)
	}
	return count, nil
}
