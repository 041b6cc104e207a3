package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classmanager/backend/internal/models"
)

// ExportJobRepository tracks asynchronous timetable export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository instantiates an export job repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a new export job in PENDING state.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.ExportPending
	}

	const query = `INSERT INTO export_jobs (id, course_id, term_id, requested_by, status, file_path, error, created_at, updated_at, completed_at) VALUES (:id, :course_id, :term_id, :requested_by, :status, :file_path, :error, :created_at, :updated_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID loads an export job by identifier.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, course_id, term_id, requested_by, status, file_path, error, created_at, updated_at, completed_at FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job's status, recording the file path on
// success or the error message on failure.
func (r *ExportJobRepository) UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath string, jobErr *string) error {
	now := time.Now().UTC()
	var completedAt *time.Time
	if status == models.ExportCompleted || status == models.ExportFailed {
		completedAt = &now
	}
	const query = `UPDATE export_jobs SET status = $2, file_path = $3, error = $4, updated_at = $5, completed_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, filePath, jobErr, now, completedAt); err != nil {
		return fmt.Errorf("update export job status: %w", err)
	}
	return nil
}

// ListByUser returns the export jobs requested by a user, newest first.
func (r *ExportJobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, course_id, term_id, requested_by, status, file_path, error, created_at, updated_at, completed_at FROM export_jobs WHERE requested_by = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}
