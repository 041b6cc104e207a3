package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/timetable"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	FindTeacherOverlap(ctx context.Context, teacherID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error)
	FindClassroomOverlap(ctx context.Context, classroomID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error)
	FindGroupOverlap(ctx context.Context, groupID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	BulkCreate(ctx context.Context, entries []models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
	DeleteByTermAndCourse(ctx context.Context, termID, courseID string) error
}

type scheduleGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.ClassGroup, error)
}

type scheduleWindowRepository interface {
	FindByCourse(ctx context.Context, courseID string) (*models.TimeWindow, error)
}

// termGate guards schedule mutations behind term schedulability.
type termGate interface {
	EnsureSchedulable(ctx context.Context, id string) (*models.Term, error)
}

type scheduleCacheInvalidator interface {
	InvalidateTerm(ctx context.Context, termID string) error
}

// SaveScheduleRequest places a group on a cell or moves an existing entry.
// When ScheduleID is set the request moves that entry; otherwise a new entry
// is always created. Groups hold one weekly lesson per discipline credit, so
// a placement without an id never relocates one of the group's other lessons.
type SaveScheduleRequest struct {
	ScheduleID *string `json:"schedule_id" validate:"omitempty,uuid4"`
	GroupID    string  `json:"group_id" validate:"required_without=ScheduleID,omitempty,uuid4"`
	TermID     string  `json:"term_id" validate:"required,uuid4"`
	DayOfWeek  string  `json:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime  string  `json:"start_time" validate:"required"`
	EndTime    string  `json:"end_time" validate:"required"`
}

// CopyScheduleRequest copies a course timetable between terms.
type CopyScheduleRequest struct {
	CourseID   string `json:"course_id" validate:"required,uuid4"`
	FromTermID string `json:"from_term_id" validate:"required,uuid4"`
	ToTermID   string `json:"to_term_id" validate:"required,uuid4"`
}

// CopySkip records one source entry the copy left behind and why.
type CopySkip struct {
	GroupID   string `json:"group_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	Reason    string `json:"reason"`
}

// CopyScheduleResult reports what the copy replicated into the target term
// and which source entries were skipped over a conflict there.
type CopyScheduleResult struct {
	Copied  []models.ScheduleEntry `json:"copied"`
	Skipped []CopySkip             `json:"skipped"`
}

// GenerateScheduleRequest asks for an automatic layout of a course timetable.
type GenerateScheduleRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid4"`
	TermID   string `json:"term_id" validate:"required,uuid4"`
}

// GenerationFailure reports a group whose weekly lessons could not all be
// placed without a conflict.
type GenerationFailure struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Message   string `json:"message"`
}

// GenerateScheduleResult reports what the generator placed and, per group,
// how far short it fell.
type GenerateScheduleResult struct {
	Placed   []models.ScheduleEntry `json:"placed"`
	Failures []GenerationFailure    `json:"failures"`
}

// ScheduleService owns placement on the timetable. Every mutation runs the
// full conflict chain; the rejection carries a machine-readable conflict
// code so clients translate it without parsing text.
type ScheduleService struct {
	repo      scheduleRepository
	groups    scheduleGroupRepository
	windows   scheduleWindowRepository
	terms     termGate
	cache     scheduleCacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService creates a new schedule service instance.
func NewScheduleService(repo scheduleRepository, groups scheduleGroupRepository, windows scheduleWindowRepository, terms termGate, cache scheduleCacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, groups: groups, windows: windows, terms: terms, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns schedule entries for the given filters.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return entries, nil
}

// SaveOrUpdate places a group on a cell or moves an existing entry there.
// The whole conflict chain runs before any write; the server is the final
// authority regardless of client-side pre-checks.
func (s *ScheduleService) SaveOrUpdate(ctx context.Context, req SaveScheduleRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	start, err := timetable.NormalizeClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM or HH:MM:SS")
	}
	end, err := timetable.NormalizeClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM or HH:MM:SS")
	}

	if _, err := s.terms.EnsureSchedulable(ctx, req.TermID); err != nil {
		return nil, err
	}

	// Only an explicit id moves an entry. Groups carry several weekly
	// lessons, so the group overlap check is the sole same-group guard on
	// a fresh placement.
	var existing *models.ScheduleEntry
	groupID := req.GroupID
	if req.ScheduleID != nil {
		existing, err = s.repo.FindByID(ctx, *req.ScheduleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
		}
		groupID = existing.GroupID
	}

	group, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	excludeID := ""
	if existing != nil {
		excludeID = existing.ID
	}
	if err := s.checkConflicts(ctx, group, req.TermID, req.DayOfWeek, start, end, excludeID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status == appErrors.ErrConflict.Status {
			s.metrics.RecordScheduleConflict(appErr.Code)
		}
		return nil, err
	}

	if existing != nil {
		existing.DayOfWeek = req.DayOfWeek
		existing.StartTime = start
		existing.EndTime = end
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move schedule entry")
		}
		s.invalidate(ctx, req.TermID)
		return s.reload(ctx, existing.ID)
	}

	entry := &models.ScheduleEntry{
		TermID:    req.TermID,
		GroupID:   groupID,
		DayOfWeek: req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule entry")
	}
	s.invalidate(ctx, req.TermID)
	return s.reload(ctx, entry.ID)
}

// Delete removes a schedule entry when its term still accepts changes.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}

	if _, err := s.terms.EnsureSchedulable(ctx, entry.TermID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	s.invalidate(ctx, entry.TermID)
	return nil
}

// Copy replaces the target term's course timetable with the source term's.
// The target is wiped first; each source entry then runs the conflict chain
// against whatever other courses hold in the target term, and entries that
// collide are skipped and reported rather than failing the whole copy.
func (s *ScheduleService) Copy(ctx context.Context, req CopyScheduleRequest) (*CopyScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy payload")
	}
	if req.FromTermID == req.ToTermID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target terms must differ")
	}

	if _, err := s.terms.EnsureSchedulable(ctx, req.ToTermID); err != nil {
		return nil, err
	}

	source, err := s.repo.List(ctx, models.ScheduleFilter{TermID: req.FromTermID, CourseID: req.CourseID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load source timetable")
	}

	if err := s.repo.DeleteByTermAndCourse(ctx, req.ToTermID, req.CourseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear target timetable")
	}

	result := &CopyScheduleResult{}
	for _, entry := range source {
		group, err := s.groups.FindByID(ctx, entry.GroupID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
		if err := s.checkConflicts(ctx, group, req.ToTermID, entry.DayOfWeek, entry.StartTime, entry.EndTime, ""); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Status == appErrors.ErrConflict.Status {
				result.Skipped = append(result.Skipped, CopySkip{
					GroupID:   entry.GroupID,
					DayOfWeek: entry.DayOfWeek,
					StartTime: entry.StartTime,
					Reason:    appErr.Message,
				})
				continue
			}
			return nil, err
		}
		result.Copied = append(result.Copied, models.ScheduleEntry{
			TermID:    req.ToTermID,
			GroupID:   entry.GroupID,
			DayOfWeek: entry.DayOfWeek,
			StartTime: entry.StartTime,
			EndTime:   entry.EndTime,
		})
	}

	if len(result.Copied) > 0 {
		if err := s.repo.BulkCreate(ctx, result.Copied); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist copied timetable")
		}
	}
	s.invalidate(ctx, req.ToTermID)

	s.logger.Info("timetable copied",
		zap.String("course_id", req.CourseID),
		zap.String("from_term", req.FromTermID),
		zap.String("to_term", req.ToTermID),
		zap.Int("copied", len(result.Copied)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// Generate wipes a course's timetable in a term and lays it out again. Each
// group gets one weekly lesson per discipline credit. Placement strategies
// fall through in order: every lesson on one day, a split across two days,
// then one lesson per day wherever room remains. Groups that still fall
// short are reported back rather than failing the whole run.
func (s *ScheduleService) Generate(ctx context.Context, req GenerateScheduleRequest) (*GenerateScheduleResult, error) {
	started := time.Now()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	if _, err := s.terms.EnsureSchedulable(ctx, req.TermID); err != nil {
		return nil, err
	}

	window, err := s.windows.FindByCourse(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotConfigured, "course has no time window configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time window")
	}
	slots, err := timetable.DeriveSlots(window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive slots")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "time window does not fit a single lesson")
	}

	groups, err := s.groups.ListByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course groups")
	}
	if len(groups) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course has no groups to place")
	}

	// Heavier groups first, so the hardest placements see the emptiest grid.
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Credits > groups[j].Credits })

	if err := s.repo.DeleteByTermAndCourse(ctx, req.TermID, req.CourseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing timetable")
	}

	board := newPlacementBoard(timetable.SortDays(window.DaysOfWeek), slots)
	result := &GenerateScheduleResult{}

	for i := range groups {
		group := &groups[i]
		credits := group.Credits
		if credits < 1 {
			credits = 1
		}
		placed, err := s.placeGroup(ctx, board, group, req.TermID, credits)
		if err != nil {
			return nil, err
		}
		result.Placed = append(result.Placed, placed...)
		if len(placed) < credits {
			result.Failures = append(result.Failures, GenerationFailure{
				GroupID:   group.ID,
				GroupName: group.Name,
				Message:   fmt.Sprintf("scheduled only %d of %d weekly lessons", len(placed), credits),
			})
		}
	}

	if len(result.Placed) > 0 {
		if err := s.repo.BulkCreate(ctx, result.Placed); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated timetable")
		}
	}
	s.invalidate(ctx, req.TermID)
	s.metrics.ObserveGeneration(time.Since(started), len(result.Failures))

	s.logger.Info("timetable generated",
		zap.String("course_id", req.CourseID),
		zap.String("term_id", req.TermID),
		zap.Int("placed", len(result.Placed)),
		zap.Int("failed_groups", len(result.Failures)))

	return result, nil
}

// placeGroup lays out one group's weekly lessons on the board. The one-day
// and two-day strategies are all-or-nothing; the per-day spread fills as far
// as it can.
func (s *ScheduleService) placeGroup(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID string, credits int) ([]models.ScheduleEntry, error) {
	entries, err := s.fillOneDay(ctx, board, group, termID, credits)
	if err != nil || entries != nil {
		return entries, err
	}
	if credits >= 2 {
		entries, err = s.fillTwoDays(ctx, board, group, termID, credits)
		if err != nil || entries != nil {
			return entries, err
		}
	}
	return s.fillSpread(ctx, board, group, termID, credits)
}

// fillOneDay places all lessons on the first day with enough open cells.
func (s *ScheduleService) fillOneDay(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID string, credits int) ([]models.ScheduleEntry, error) {
	for _, day := range board.days {
		picks, err := s.openCells(ctx, board, group, termID, day, credits)
		if err != nil {
			return nil, err
		}
		if len(picks) < credits {
			continue
		}
		entries := make([]models.ScheduleEntry, 0, credits)
		for _, slot := range picks {
			entries = append(entries, board.claim(group, termID, day, slot))
		}
		return entries, nil
	}
	return nil, nil
}

// fillTwoDays splits the lessons across the first day pair that can host
// them, heavier half on the earlier day.
func (s *ScheduleService) fillTwoDays(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID string, credits int) ([]models.ScheduleEntry, error) {
	firstHalf := (credits + 1) / 2
	secondHalf := credits - firstHalf
	for i := 0; i < len(board.days); i++ {
		for j := i + 1; j < len(board.days); j++ {
			first, err := s.openCells(ctx, board, group, termID, board.days[i], firstHalf)
			if err != nil {
				return nil, err
			}
			if len(first) < firstHalf {
				break
			}
			second, err := s.openCells(ctx, board, group, termID, board.days[j], secondHalf)
			if err != nil {
				return nil, err
			}
			if len(second) < secondHalf {
				continue
			}
			entries := make([]models.ScheduleEntry, 0, credits)
			for _, slot := range first {
				entries = append(entries, board.claim(group, termID, board.days[i], slot))
			}
			for _, slot := range second {
				entries = append(entries, board.claim(group, termID, board.days[j], slot))
			}
			return entries, nil
		}
	}
	return nil, nil
}

// fillSpread places one lesson at a time, preferring days the group already
// occupies, and keeps whatever it managed to place.
func (s *ScheduleService) fillSpread(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID string, credits int) ([]models.ScheduleEntry, error) {
	entries := make([]models.ScheduleEntry, 0, credits)
	for len(entries) < credits {
		day, slot, err := s.nextSpreadCell(ctx, board, group, termID)
		if err != nil {
			return nil, err
		}
		if day == "" {
			break
		}
		entries = append(entries, board.claim(group, termID, day, slot))
	}
	return entries, nil
}

func (s *ScheduleService) nextSpreadCell(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID string) (string, timetable.Slot, error) {
	ordered := make([]string, 0, len(board.days))
	for _, day := range board.days {
		if board.groupDays[group.ID][day] {
			ordered = append(ordered, day)
		}
	}
	for _, day := range board.days {
		if !board.groupDays[group.ID][day] {
			ordered = append(ordered, day)
		}
	}
	for _, day := range ordered {
		picks, err := s.openCells(ctx, board, group, termID, day, 1)
		if err != nil {
			return "", timetable.Slot{}, err
		}
		if len(picks) > 0 {
			return day, picks[0], nil
		}
	}
	return "", timetable.Slot{}, nil
}

// openCells collects up to want slots on a day that are free for the group
// both on the in-run board and against the persisted term.
func (s *ScheduleService) openCells(ctx context.Context, board *placementBoard, group *models.ClassGroup, termID, day string, want int) ([]timetable.Slot, error) {
	var picks []timetable.Slot
	for _, slot := range board.slots {
		if len(picks) == want {
			break
		}
		if board.busy(group, day, slot) {
			continue
		}
		if err := s.checkConflicts(ctx, group, termID, day, slot.Start, slot.End, ""); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Status == appErrors.ErrConflict.Status {
				continue
			}
			return nil, err
		}
		picks = append(picks, slot)
	}
	return picks, nil
}

// checkConflicts runs the full validation chain for one candidate cell. The
// returned error carries the conflict code in its wire Code field.
func (s *ScheduleService) checkConflicts(ctx context.Context, group *models.ClassGroup, termID, day, start, end, excludeID string) error {
	window, err := s.windows.FindByCourse(ctx, group.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotConfigured, "course has no time window configured")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time window")
	}

	dayAllowed := false
	for _, d := range window.DaysOfWeek {
		if d == day {
			dayAllowed = true
			break
		}
	}
	if !dayAllowed {
		return conflictError(models.ConflictDayNotAllowed)
	}

	startMin, err := timetable.ClockMinutes(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM or HH:MM:SS")
	}
	endMin, err := timetable.ClockMinutes(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM or HH:MM:SS")
	}
	windowStart, _ := timetable.ClockMinutes(window.StartTime)
	windowEnd, _ := timetable.ClockMinutes(window.EndTime)

	if startMin < windowStart || endMin > windowEnd {
		return conflictError(models.ConflictOutsideWindow)
	}
	if endMin-startMin != window.LessonDurationMinutes {
		return conflictError(models.ConflictDurationMismatch)
	}

	if group.TeacherID != nil {
		if _, err := s.repo.FindTeacherOverlap(ctx, *group.TeacherID, termID, day, start, end, excludeID); err == nil {
			return conflictError(models.ConflictTeacher)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher availability")
		}
	}

	if _, err := s.repo.FindClassroomOverlap(ctx, group.ClassroomID, termID, day, start, end, excludeID); err == nil {
		return conflictError(models.ConflictRoom)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom availability")
	}

	if _, err := s.repo.FindGroupOverlap(ctx, group.ID, termID, day, start, end, excludeID); err == nil {
		return conflictError(models.ConflictGroup)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group availability")
	}

	return nil
}

func (s *ScheduleService) reload(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload schedule entry")
	}
	return entry, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTerm(ctx, termID); err != nil {
		s.logger.Warn("failed to invalidate term cache", zap.String("term_id", termID), zap.Error(err))
	}
}

func conflictError(code models.ConflictCode) *appErrors.Error {
	return appErrors.New(string(code), appErrors.ErrConflict.Status, timetable.TranslateConflict(code))
}

// placementBoard tracks occupancy produced by the current generation run,
// which the repository overlap checks cannot see before the bulk insert.
type placementBoard struct {
	days      []string
	slots     []timetable.Slot
	teacher   map[string]bool
	room      map[string]bool
	group     map[string]bool
	groupDays map[string]map[string]bool
}

func newPlacementBoard(days []string, slots []timetable.Slot) *placementBoard {
	return &placementBoard{
		days:      days,
		slots:     slots,
		teacher:   make(map[string]bool),
		room:      make(map[string]bool),
		group:     make(map[string]bool),
		groupDays: make(map[string]map[string]bool),
	}
}

func (b *placementBoard) busy(group *models.ClassGroup, day string, slot timetable.Slot) bool {
	key := timetable.CellKey(day, timetable.FormatRange(slot.Start, slot.End))
	if group.TeacherID != nil && b.teacher[*group.TeacherID+"|"+key] {
		return true
	}
	if b.room[group.ClassroomID+"|"+key] {
		return true
	}
	return b.group[group.ID+"|"+key]
}

func (b *placementBoard) claim(group *models.ClassGroup, termID, day string, slot timetable.Slot) models.ScheduleEntry {
	key := timetable.CellKey(day, timetable.FormatRange(slot.Start, slot.End))
	if group.TeacherID != nil {
		b.teacher[*group.TeacherID+"|"+key] = true
	}
	b.room[group.ClassroomID+"|"+key] = true
	b.group[group.ID+"|"+key] = true
	days := b.groupDays[group.ID]
	if days == nil {
		days = make(map[string]bool)
		b.groupDays[group.ID] = days
	}
	days[day] = true
	return models.ScheduleEntry{
		TermID:    termID,
		GroupID:   group.ID,
		DayOfWeek: day,
		StartTime: slot.Start,
		EndTime:   slot.End,
	}
}
