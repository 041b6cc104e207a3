package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id string) (*models.Term, error)
	ListActive(ctx context.Context) ([]models.Term, error)
	ExistsByYearAndNumber(ctx context.Context, year, number int, excludeID string) (bool, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
	UpdateStatus(ctx context.Context, id string, status models.TermStatus) error
	FinalizeEnded(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
	CountSchedules(ctx context.Context, id string) (int, error)
}

// TermRequest describes payload for creating or updating academic terms.
type TermRequest struct {
	Name      string    `json:"name" validate:"required"`
	Year      int       `json:"year" validate:"required,min=2000,max=2200"`
	Number    int       `json:"number" validate:"required,min=1,max=2"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// TermService orchestrates term workflows. Terms finalize lazily: reads that
// care about schedulability first flip any ACTIVE term whose end date passed.
type TermService struct {
	repo      termRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns paginated terms.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

// FindSchedulable returns the terms that still accept schedule changes.
// Ended terms are finalized on the way so the listing never includes a term
// whose end date already passed.
func (s *TermService) FindSchedulable(ctx context.Context) ([]models.Term, error) {
	affected, err := s.repo.FinalizeEnded(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize ended terms")
	}
	if affected > 0 {
		s.logger.Info("finalized ended terms", zap.Int64("count", affected))
	}

	terms, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedulable terms")
	}
	return terms, nil
}

// EnsureSchedulable loads a term and verifies it still accepts mutations.
// Lazily finalizes the term when its end date already passed.
func (s *TermService) EnsureSchedulable(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if term.Status == models.TermActive && term.EndDate.Before(s.now()) {
		if err := s.repo.UpdateStatus(ctx, term.ID, models.TermFinalized); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize term")
		}
		term.Status = models.TermFinalized
	}

	if term.Status == models.TermFinalized {
		return nil, appErrors.Clone(appErrors.ErrTermFinalized, "term is finalized and read-only")
	}
	return term, nil
}

// Create adds a new term ensuring uniqueness and date validation.
func (s *TermService) Create(ctx context.Context, req TermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	exists, err := s.repo.ExistsByYearAndNumber(ctx, req.Year, req.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term already exists for year and number")
	}

	term := &models.Term{
		Name:      req.Name,
		Year:      req.Year,
		Number:    req.Number,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.TermActive,
	}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create term")
	}
	return term, nil
}

// Update modifies a term record. Finalized terms stay read-only.
func (s *TermService) Update(ctx context.Context, id string, req TermRequest) (*models.Term, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Status == models.TermFinalized {
		return nil, appErrors.Clone(appErrors.ErrTermFinalized, "term is finalized and read-only")
	}

	exists, err := s.repo.ExistsByYearAndNumber(ctx, req.Year, req.Number, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "term already exists for year and number")
	}

	term.Name = req.Name
	term.Year = req.Year
	term.Number = req.Number
	term.StartDate = req.StartDate
	term.EndDate = req.EndDate
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update term")
	}
	return term, nil
}

// Finalize explicitly closes a term ahead of its end date.
func (s *TermService) Finalize(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if term.Status == models.TermFinalized {
		return term, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, models.TermFinalized); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize term")
	}
	term.Status = models.TermFinalized
	return term, nil
}

// Delete removes a term without schedules attached.
func (s *TermService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "term has schedules associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete term")
	}
	return nil
}
