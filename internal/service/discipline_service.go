package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type disciplineRepository interface {
	List(ctx context.Context, filter models.DisciplineFilter) ([]models.Discipline, int, error)
	FindByID(ctx context.Context, id string) (*models.Discipline, error)
	FindByName(ctx context.Context, name string) (*models.Discipline, error)
	ExistsByAbbreviation(ctx context.Context, courseID, abbreviation, excludeID string) (bool, error)
	Create(ctx context.Context, discipline *models.Discipline) error
	Update(ctx context.Context, discipline *models.Discipline) error
	Delete(ctx context.Context, id string) error
	CountGroups(ctx context.Context, id string) (int, error)
}

type disciplineCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// DisciplineRequest describes payload for creating or updating a discipline.
type DisciplineRequest struct {
	CourseID     string  `json:"course_id" validate:"required,uuid4"`
	TeacherID    *string `json:"teacher_id" validate:"omitempty,uuid4"`
	Name         string  `json:"name" validate:"required"`
	Abbreviation string  `json:"abbreviation" validate:"required,max=10"`
	Credits      int     `json:"credits" validate:"required,min=1"`
}

// DisciplineService orchestrates discipline workflows.
type DisciplineService struct {
	repo      disciplineRepository
	courses   disciplineCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDisciplineService creates a new discipline service instance.
func NewDisciplineService(repo disciplineRepository, courses disciplineCourseRepository, validate *validator.Validate, logger *zap.Logger) *DisciplineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisciplineService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns paginated disciplines.
func (s *DisciplineService) List(ctx context.Context, filter models.DisciplineFilter) ([]models.Discipline, *models.Pagination, error) {
	disciplines, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disciplines")
	}
	return disciplines, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a discipline by ID.
func (s *DisciplineService) Get(ctx context.Context, id string) (*models.Discipline, error) {
	discipline, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline")
	}
	return discipline, nil
}

// FindByName returns a discipline by its case-insensitive name.
func (s *DisciplineService) FindByName(ctx context.Context, name string) (*models.Discipline, error) {
	discipline, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline")
	}
	return discipline, nil
}

// Create adds a discipline to a course.
func (s *DisciplineService) Create(ctx context.Context, req DisciplineRequest) (*models.Discipline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discipline payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.ExistsByAbbreviation(ctx, req.CourseID, req.Abbreviation, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check abbreviation")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "abbreviation already in use within course")
	}

	discipline := &models.Discipline{
		CourseID:     req.CourseID,
		TeacherID:    req.TeacherID,
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		Credits:      req.Credits,
	}
	if err := s.repo.Create(ctx, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create discipline")
	}
	return discipline, nil
}

// Update modifies a discipline record.
func (s *DisciplineService) Update(ctx context.Context, id string, req DisciplineRequest) (*models.Discipline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid discipline payload")
	}

	discipline, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline")
	}

	exists, err := s.repo.ExistsByAbbreviation(ctx, discipline.CourseID, req.Abbreviation, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check abbreviation")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "abbreviation already in use within course")
	}

	discipline.TeacherID = req.TeacherID
	discipline.Name = req.Name
	discipline.Abbreviation = req.Abbreviation
	discipline.Credits = req.Credits
	if err := s.repo.Update(ctx, discipline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update discipline")
	}
	return discipline, nil
}

// Delete removes a discipline without groups attached.
func (s *DisciplineService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline")
	}

	count, err := s.repo.CountGroups(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check discipline dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "discipline has groups associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete discipline")
	}
	return nil
}
