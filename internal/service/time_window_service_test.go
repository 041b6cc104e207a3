package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type timeWindowRepoStub struct {
	window   *models.TimeWindow
	upserted *models.TimeWindow
	deleted  []string
}

func (s *timeWindowRepoStub) FindByCourse(ctx context.Context, courseID string) (*models.TimeWindow, error) {
	if s.window == nil {
		return nil, sql.ErrNoRows
	}
	return s.window, nil
}

func (s *timeWindowRepoStub) Upsert(ctx context.Context, window *models.TimeWindow) error {
	s.upserted = window
	s.window = window
	return nil
}

func (s *timeWindowRepoStub) Delete(ctx context.Context, courseID string) error {
	s.deleted = append(s.deleted, courseID)
	return nil
}

type courseRepoStub struct {
	course *models.Course
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if s.course == nil {
		return nil, sql.ErrNoRows
	}
	return s.course, nil
}

func newTimeWindowFixture(t *testing.T) (*TimeWindowService, *timeWindowRepoStub, string) {
	t.Helper()
	courseID := uuid.NewString()
	repo := &timeWindowRepoStub{}
	courses := &courseRepoStub{course: &models.Course{ID: courseID, Name: "Computer Science"}}
	return NewTimeWindowService(repo, courses, nil, zap.NewNop()), repo, courseID
}

func validWindowRequest() TimeWindowRequest {
	return TimeWindowRequest{
		DaysOfWeek:            []string{"WEDNESDAY", "MONDAY"},
		StartTime:             "08:00",
		EndTime:               "12:00",
		LessonDurationMinutes: 60,
	}
}

func TestTimeWindowServiceGetUnconfigured(t *testing.T) {
	service, _, courseID := newTimeWindowFixture(t)

	_, err := service.Get(context.Background(), courseID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceUpsertNormalizesAndSortsDays(t *testing.T) {
	service, repo, courseID := newTimeWindowFixture(t)

	window, err := service.Upsert(context.Background(), courseID, validWindowRequest())
	require.NoError(t, err)

	assert.Equal(t, "08:00:00", window.StartTime)
	assert.Equal(t, "12:00:00", window.EndTime)
	assert.Equal(t, []string{"MONDAY", "WEDNESDAY"}, []string(window.DaysOfWeek))
	require.NotNil(t, repo.upserted)
}

func TestTimeWindowServiceUpsertUnknownCourse(t *testing.T) {
	service := NewTimeWindowService(&timeWindowRepoStub{}, &courseRepoStub{}, nil, zap.NewNop())

	_, err := service.Upsert(context.Background(), uuid.NewString(), validWindowRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceUpsertRejectsInvertedRange(t *testing.T) {
	service, _, courseID := newTimeWindowFixture(t)

	req := validWindowRequest()
	req.StartTime = "12:00"
	req.EndTime = "08:00"

	_, err := service.Upsert(context.Background(), courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceUpsertRejectsWindowShorterThanLesson(t *testing.T) {
	service, _, courseID := newTimeWindowFixture(t)

	req := validWindowRequest()
	req.EndTime = "08:45"

	_, err := service.Upsert(context.Background(), courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceUpsertRejectsDuplicateDays(t *testing.T) {
	service, _, courseID := newTimeWindowFixture(t)

	req := validWindowRequest()
	req.DaysOfWeek = []string{"MONDAY", "MONDAY"}

	_, err := service.Upsert(context.Background(), courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceUpsertRejectsUnknownDay(t *testing.T) {
	service, _, courseID := newTimeWindowFixture(t)

	req := validWindowRequest()
	req.DaysOfWeek = []string{"FUNDAY"}

	_, err := service.Upsert(context.Background(), courseID, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeWindowServiceSlots(t *testing.T) {
	service, repo, courseID := newTimeWindowFixture(t)
	repo.window = &models.TimeWindow{
		CourseID:              courseID,
		DaysOfWeek:            []string{"MONDAY"},
		StartTime:             "08:00:00",
		EndTime:               "11:10:00",
		LessonDurationMinutes: 60,
	}

	slots, err := service.Slots(context.Background(), courseID)
	require.NoError(t, err)
	require.Len(t, slots, 3, "trailing partial slot must be discarded")
	assert.Equal(t, "08:00:00", slots[0].Start)
	assert.Equal(t, "11:00:00", slots[2].End)
}

func TestTimeWindowServiceDelete(t *testing.T) {
	service, repo, courseID := newTimeWindowFixture(t)
	repo.window = &models.TimeWindow{CourseID: courseID}

	err := service.Delete(context.Background(), courseID)
	require.NoError(t, err)
	assert.Equal(t, []string{courseID}, repo.deleted)
}

func TestTimeWindowServiceDeleteUnconfigured(t *testing.T) {
	service, repo, courseID := newTimeWindowFixture(t)

	err := service.Delete(context.Background(), courseID)
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}
