package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/export"
	"github.com/classmanager/backend/pkg/jobs"
	"github.com/classmanager/backend/pkg/storage"
)

const exportJobType = "timetable_csv"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath string, jobErr *string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error)
}

type exportScheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
}

type exportCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type exportTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// RequestExportRequest asks for an asynchronous CSV export of one course timetable.
type RequestExportRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid4"`
	TermID   string `json:"term_id" validate:"required,uuid4"`
}

// ExportService renders course timetables to CSV files in the background and
// hands out signed download tokens for the results.
type ExportService struct {
	jobs      exportJobRepository
	schedules exportScheduleRepository
	courses   exportCourseRepository
	terms     exportTermRepository
	exporter  *export.CSVExporter
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// ExportServiceParams bundles the dependencies for NewExportService.
type ExportServiceParams struct {
	JobRepo      exportJobRepository
	ScheduleRepo exportScheduleRepository
	CourseRepo   exportCourseRepository
	TermRepo     exportTermRepository
	Storage      *storage.LocalStorage
	Signer       *storage.SignedURLSigner
	QueueConfig  jobs.QueueConfig
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
}

// NewExportService wires the export pipeline and its worker queue. The queue is
// not started until Start is called.
func NewExportService(params ExportServiceParams) *ExportService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}

	s := &ExportService{
		jobs:      params.JobRepo,
		schedules: params.ScheduleRepo,
		courses:   params.CourseRepo,
		terms:     params.TermRepo,
		exporter:  export.NewCSVExporter(),
		storage:   params.Storage,
		signer:    params.Signer,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
	}
	s.queue = jobs.NewQueue("timetable-exports", s.process, params.QueueConfig)
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request validates the export parameters, persists a pending job and enqueues it.
func (s *ExportService) Request(ctx context.Context, req RequestExportRequest, userID string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	job := &models.ExportJob{
		CourseID:    req.CourseID,
		TermID:      req.TermID,
		RequestedBy: userID,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Payload: job.ID}); err != nil {
		failure := err.Error()
		if updateErr := s.jobs.UpdateStatus(ctx, job.ID, models.ExportFailed, "", &failure); updateErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	s.logger.Info("export job enqueued",
		zap.String("job_id", job.ID),
		zap.String("course_id", req.CourseID),
		zap.String("term_id", req.TermID))

	return job, nil
}

// Get returns an export job visible to the requesting user.
func (s *ExportService) Get(ctx context.Context, jobID, userID string, admin bool) (*models.ExportJob, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if !admin && job.RequestedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	return job, nil
}

// ListForUser returns the user's most recent export jobs.
func (s *ExportService) ListForUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.jobs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return list, nil
}

// DownloadToken issues a signed token for a completed job's file.
func (s *ExportService) DownloadToken(ctx context.Context, jobID, userID string, admin bool) (string, time.Time, error) {
	job, err := s.Get(ctx, jobID, userID, admin)
	if err != nil {
		return "", time.Time{}, err
	}
	if job.Status != models.ExportCompleted || job.FilePath == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "export is not completed yet")
	}
	token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// ResolveDownload validates a signed token and opens the exported file. The
// caller owns the returned handle.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match the export file")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file is no longer available")
	}
	return file, path.Base(relPath), nil
}

// process is the queue handler: it renders and stores the CSV for one job.
func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	jobID, _ := job.Payload.(string)
	if jobID == "" {
		jobID = job.ID
	}

	if err := s.jobs.UpdateStatus(ctx, jobID, models.ExportRunning, "", nil); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}

	record, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}

	filePath, err := s.render(ctx, record)
	if err != nil {
		failure := err.Error()
		if updateErr := s.jobs.UpdateStatus(ctx, jobID, models.ExportFailed, "", &failure); updateErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(updateErr))
		}
		s.metrics.RecordExportJob(models.ExportFailed)
		return err
	}

	if err := s.jobs.UpdateStatus(ctx, jobID, models.ExportCompleted, filePath, nil); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	s.metrics.RecordExportJob(models.ExportCompleted)
	s.logger.Info("export job completed", zap.String("job_id", jobID), zap.String("file", filePath))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) (string, error) {
	entries, err := s.schedules.List(ctx, models.ScheduleFilter{TermID: job.TermID, CourseID: job.CourseID})
	if err != nil {
		return "", fmt.Errorf("list schedules: %w", err)
	}

	rows := make([]export.TimetableRow, 0, len(entries))
	for _, entry := range entries {
		teacher := ""
		if entry.TeacherName != nil {
			teacher = *entry.TeacherName
		}
		rows = append(rows, export.TimetableRow{
			Day:        entry.DayOfWeek,
			Start:      entry.StartTime,
			End:        entry.EndTime,
			Group:      entry.GroupName,
			Discipline: entry.DisciplineName,
			Teacher:    teacher,
			Classroom:  entry.ClassroomName,
		})
	}

	data, err := s.exporter.Render(export.TimetableDataset(rows))
	if err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}

	filename := path.Join(job.TermID, fmt.Sprintf("%s-%s.csv", job.CourseID, job.ID))
	if _, err := s.storage.Save(filename, data); err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}
	return filename, nil
}
