package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.ClassGroup, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	ExistsByAbbreviation(ctx context.Context, disciplineID, abbreviation, excludeID string) (bool, error)
	Create(ctx context.Context, group *models.ClassGroup) error
	Update(ctx context.Context, group *models.ClassGroup) error
	Delete(ctx context.Context, id string) error
	CountSchedules(ctx context.Context, id string) (int, error)
}

type groupDisciplineRepository interface {
	FindByID(ctx context.Context, id string) (*models.Discipline, error)
}

type groupClassroomRepository interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// GroupRequest describes payload for creating or updating a class group.
type GroupRequest struct {
	DisciplineID string `json:"discipline_id" validate:"required,uuid4"`
	ClassroomID  string `json:"classroom_id" validate:"required,uuid4"`
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation" validate:"required,max=10"`
	Color        string `json:"color" validate:"required"`
	TermOfCourse int    `json:"term_of_course" validate:"required,min=1,max=12"`
}

// GroupService orchestrates class group workflows.
type GroupService struct {
	repo        groupRepository
	disciplines groupDisciplineRepository
	classrooms  groupClassroomRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGroupService creates a new group service instance.
func NewGroupService(repo groupRepository, disciplines groupDisciplineRepository, classrooms groupClassroomRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, disciplines: disciplines, classrooms: classrooms, validator: validate, logger: logger}
}

// List returns paginated groups. The grid sidebar consumes this listing.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.ClassGroup, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a group by ID.
func (s *GroupService) Get(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// Create adds a new group to a discipline.
func (s *GroupService) Create(ctx context.Context, req GroupRequest) (*models.ClassGroup, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	if _, err := s.disciplines.FindByID(ctx, req.DisciplineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline")
	}
	classroom, err := s.classrooms.FindByID(ctx, req.ClassroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if !classroom.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom is inactive")
	}

	exists, err := s.repo.ExistsByAbbreviation(ctx, req.DisciplineID, req.Abbreviation, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check abbreviation")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "abbreviation already in use within discipline")
	}

	group := &models.ClassGroup{
		DisciplineID: req.DisciplineID,
		ClassroomID:  req.ClassroomID,
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		Color:        req.Color,
		TermOfCourse: req.TermOfCourse,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// Update modifies a group record.
func (s *GroupService) Update(ctx context.Context, id string, req GroupRequest) (*models.ClassGroup, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	exists, err := s.repo.ExistsByAbbreviation(ctx, req.DisciplineID, req.Abbreviation, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check abbreviation")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "abbreviation already in use within discipline")
	}

	group.DisciplineID = req.DisciplineID
	group.ClassroomID = req.ClassroomID
	group.Name = req.Name
	group.Abbreviation = req.Abbreviation
	group.Color = req.Color
	group.TermOfCourse = req.TermOfCourse
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return group, nil
}

// Delete removes a group that has no placed schedule entries.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "group has schedule entries placed")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	return nil
}

func (s *GroupService) validateRequest(req *GroupRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}
	if !hexColorPattern.MatchString(req.Color) {
		return appErrors.Clone(appErrors.ErrValidation, "color must be a #RRGGBB value")
	}
	return nil
}
