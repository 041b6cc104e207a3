package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type dashboardScheduleRepository interface {
	TeacherWorkload(ctx context.Context, termID string) ([]models.TeacherWorkload, error)
	ClassroomOccupation(ctx context.Context, termID string) ([]models.ClassroomOccupation, error)
	UnassignedTeachers(ctx context.Context, termID string) ([]models.UnassignedTeacher, error)
}

type dashboardTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// DashboardServiceConfig tunes caching behaviour for dashboard reports.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams bundles the dependencies for NewDashboardService.
type DashboardServiceParams struct {
	ScheduleRepo dashboardScheduleRepository
	TermRepo     dashboardTermRepository
	Cache        *CacheService
	Config       DashboardServiceConfig
	Logger       *zap.Logger
}

// DashboardService assembles per-term occupancy reports for the dashboard view.
type DashboardService struct {
	scheduleRepo dashboardScheduleRepository
	termRepo     dashboardTermRepository
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewDashboardService wires a dashboard service from its params.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Config.CacheTTL <= 0 {
		params.Config.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		scheduleRepo: params.ScheduleRepo,
		termRepo:     params.TermRepo,
		cache:        params.Cache,
		cacheTTL:     params.Config.CacheTTL,
		logger:       params.Logger,
	}
}

// Report returns workload, occupation and unassigned-teacher aggregates for a term.
// Results are cached per term and invalidated by schedule mutations.
func (s *DashboardService) Report(ctx context.Context, termID string) (*models.DashboardReport, error) {
	if _, err := s.termRepo.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	cacheKey := DashboardCacheKey(termID)
	if s.cache.Enabled() {
		var cached models.DashboardReport
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	workload, err := s.scheduleRepo.TeacherWorkload(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate teacher workload")
	}
	occupation, err := s.scheduleRepo.ClassroomOccupation(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate classroom occupation")
	}
	unassigned, err := s.scheduleRepo.UnassignedTeachers(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unassigned teachers")
	}

	report := &models.DashboardReport{
		TermID:              termID,
		TeacherWorkload:     workload,
		ClassroomOccupation: occupation,
		UnassignedTeachers:  unassigned,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard report", zap.String("term_id", termID), zap.Error(err))
		}
	}

	return report, nil
}
