package service

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/jobs"
	"github.com/classmanager/backend/pkg/storage"
)

type exportJobRepoStub struct {
	mu   sync.Mutex
	jobs map[string]*models.ExportJob
}

func (s *exportJobRepoStub) Create(ctx context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.ExportPending
	if s.jobs == nil {
		s.jobs = map[string]*models.ExportJob{}
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportJobRepoStub) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *exportJobRepoStub) UpdateStatus(ctx context.Context, id string, status models.ExportStatus, filePath string, jobErr *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.Status = status
	if filePath != "" {
		job.FilePath = filePath
	}
	job.Error = jobErr
	return nil
}

func (s *exportJobRepoStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ExportJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.RequestedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobRepoStub) status(id string) models.ExportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		return job.Status
	}
	return ""
}

type exportScheduleStub struct {
	entries []models.ScheduleEntry
}

func (s *exportScheduleStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	return s.entries, nil
}

type exportFixture struct {
	service *ExportService
	jobs    *exportJobRepoStub
	store   *storage.LocalStorage

	courseID string
	termID   string
	userID   string
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	courseID := uuid.NewString()
	termID := uuid.NewString()
	teacher := "Carlos Lima"
	schedules := &exportScheduleStub{entries: []models.ScheduleEntry{{
		ID:             uuid.NewString(),
		TermID:         termID,
		DayOfWeek:      "MONDAY",
		StartTime:      "08:00:00",
		EndTime:        "09:00:00",
		GroupName:      "Algorithms A",
		DisciplineName: "Algorithms",
		TeacherName:    &teacher,
		ClassroomName:  "Lab 2",
	}}}

	jobRepo := &exportJobRepoStub{}
	termRepo := &termRepoStub{terms: map[string]*models.Term{termID: {ID: termID, Status: models.TermActive}}}
	courseRepo := &courseRepoStub{course: &models.Course{ID: courseID, Name: "Computer Science"}}

	service := NewExportService(ExportServiceParams{
		JobRepo:      jobRepo,
		ScheduleRepo: schedules,
		CourseRepo:   courseRepo,
		TermRepo:     termRepo,
		Storage:      store,
		Signer:       storage.NewSignedURLSigner("export-secret", time.Hour),
		QueueConfig:  jobs.QueueConfig{Workers: 1, Logger: zap.NewNop()},
		Logger:       zap.NewNop(),
	})

	return &exportFixture{
		service:  service,
		jobs:     jobRepo,
		store:    store,
		courseID: courseID,
		termID:   termID,
		userID:   uuid.NewString(),
	}
}

func TestExportServiceProcessRendersCSV(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ExportJob{CourseID: f.courseID, TermID: f.termID, RequestedBy: f.userID}
	require.NoError(t, f.jobs.Create(context.Background(), job))

	err := f.service.process(context.Background(), jobs.Job{ID: job.ID, Type: exportJobType, Payload: job.ID})
	require.NoError(t, err)

	stored, err := f.jobs.FindByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportCompleted, stored.Status)
	require.NotEmpty(t, stored.FilePath)

	raw, err := os.ReadFile(f.store.Path(stored.FilePath))
	require.NoError(t, err)
	content := string(raw)
	assert.True(t, strings.HasPrefix(content, "Day,Start,End,Group,Discipline,Teacher,Classroom"))
	assert.Contains(t, content, "MONDAY,08:00:00,09:00:00,Algorithms A,Algorithms,Carlos Lima,Lab 2")
}

func TestExportServiceRequestRunsThroughQueue(t *testing.T) {
	f := newExportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.service.Start(ctx)
	defer f.service.Stop()

	job, err := f.service.Request(ctx, RequestExportRequest{CourseID: f.courseID, TermID: f.termID}, f.userID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportPending, job.Status)

	require.Eventually(t, func() bool {
		return f.jobs.status(job.ID) == models.ExportCompleted
	}, 5*time.Second, 10*time.Millisecond, "queued export should complete")
}

func TestExportServiceRequestUnknownCourse(t *testing.T) {
	f := newExportFixture(t)

	_, err := f.service.Request(context.Background(), RequestExportRequest{
		CourseID: uuid.NewString(),
		TermID:   f.termID,
	}, f.userID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceGetEnforcesOwnership(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ExportJob{CourseID: f.courseID, TermID: f.termID, RequestedBy: f.userID}
	require.NoError(t, f.jobs.Create(context.Background(), job))

	_, err := f.service.Get(context.Background(), job.ID, uuid.NewString(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	got, err := f.service.Get(context.Background(), job.ID, uuid.NewString(), true)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestExportServiceDownloadRoundTrip(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ExportJob{CourseID: f.courseID, TermID: f.termID, RequestedBy: f.userID}
	require.NoError(t, f.jobs.Create(context.Background(), job))
	require.NoError(t, f.service.process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	token, expiresAt, err := f.service.DownloadToken(context.Background(), job.ID, f.userID, false)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	file, filename, err := f.service.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	raw, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Algorithms A")
}

func TestExportServiceDownloadTokenPendingJob(t *testing.T) {
	f := newExportFixture(t)
	job := &models.ExportJob{CourseID: f.courseID, TermID: f.termID, RequestedBy: f.userID}
	require.NoError(t, f.jobs.Create(context.Background(), job))

	_, _, err := f.service.DownloadToken(context.Background(), job.ID, f.userID, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestExportServiceResolveDownloadBadToken(t *testing.T) {
	f := newExportFixture(t)

	_, _, err := f.service.ResolveDownload(context.Background(), "not.a.real.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
