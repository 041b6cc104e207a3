package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/timetable"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type timeWindowRepository interface {
	FindByCourse(ctx context.Context, courseID string) (*models.TimeWindow, error)
	Upsert(ctx context.Context, window *models.TimeWindow) error
	Delete(ctx context.Context, courseID string) error
}

type timeWindowCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// TimeWindowRequest describes payload for configuring a course time window.
type TimeWindowRequest struct {
	DaysOfWeek            []string `json:"days_of_week" validate:"required,min=1,max=7,dive,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime             string   `json:"start_time" validate:"required"`
	EndTime               string   `json:"end_time" validate:"required"`
	LessonDurationMinutes int      `json:"lesson_duration_minutes" validate:"required,min=1"`
}

// TimeWindowService manages per-course time window configuration. The window
// is the sole source of the grid geometry, so every write re-validates that
// at least one whole slot fits.
type TimeWindowService struct {
	repo      timeWindowRepository
	courses   timeWindowCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeWindowService creates a new time window service instance.
func NewTimeWindowService(repo timeWindowRepository, courses timeWindowCourseRepository, validate *validator.Validate, logger *zap.Logger) *TimeWindowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeWindowService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Get returns the time window of a course. A course without one yields the
// NOT_CONFIGURED error so clients can render the unconfigured grid state.
func (s *TimeWindowService) Get(ctx context.Context, courseID string) (*models.TimeWindow, error) {
	window, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotConfigured, "course has no time window configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time window")
	}
	return window, nil
}

// Slots returns the derived slot grid of a course.
func (s *TimeWindowService) Slots(ctx context.Context, courseID string) ([]timetable.Slot, error) {
	window, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	slots, err := timetable.DeriveSlots(window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive slots")
	}
	return slots, nil
}

// Upsert creates or replaces the time window of a course.
func (s *TimeWindowService) Upsert(ctx context.Context, courseID string, req TimeWindowRequest) (*models.TimeWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time window payload")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	start, err := timetable.NormalizeClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM or HH:MM:SS")
	}
	end, err := timetable.NormalizeClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM or HH:MM:SS")
	}

	startMin, _ := timetable.ClockMinutes(start)
	endMin, _ := timetable.ClockMinutes(end)
	if startMin >= endMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if endMin-startMin < req.LessonDurationMinutes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "window is shorter than one lesson")
	}

	seen := make(map[string]bool, len(req.DaysOfWeek))
	for _, day := range req.DaysOfWeek {
		if seen[day] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "days_of_week contains duplicates")
		}
		seen[day] = true
	}

	window := &models.TimeWindow{
		CourseID:              courseID,
		DaysOfWeek:            timetable.SortDays(req.DaysOfWeek),
		StartTime:             start,
		EndTime:               end,
		LessonDurationMinutes: req.LessonDurationMinutes,
	}
	if err := s.repo.Upsert(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save time window")
	}

	s.logger.Info("time window configured",
		zap.String("course_id", courseID),
		zap.Strings("days", window.DaysOfWeek),
		zap.Int("lesson_minutes", window.LessonDurationMinutes))
	return window, nil
}

// Delete removes the time window of a course.
func (s *TimeWindowService) Delete(ctx context.Context, courseID string) error {
	if _, err := s.Get(ctx, courseID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time window")
	}
	return nil
}
