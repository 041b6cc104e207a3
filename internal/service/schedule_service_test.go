package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type scheduleRepoStub struct {
	entries        map[string]*models.ScheduleEntry
	teacherOverlap *models.ScheduleEntry
	roomOverlap    *models.ScheduleEntry
	groupOverlap   *models.ScheduleEntry
	listQueue      [][]models.ScheduleEntry

	created     []models.ScheduleEntry
	updated     []models.ScheduleEntry
	bulkCreated []models.ScheduleEntry
	deleted     []string
	wipes       []string
	lastExclude string
}

func (s *scheduleRepoStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	if len(s.listQueue) == 0 {
		return nil, nil
	}
	head := s.listQueue[0]
	s.listQueue = s.listQueue[1:]
	return head, nil
}

func (s *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	if entry, ok := s.entries[id]; ok {
		return entry, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) FindTeacherOverlap(ctx context.Context, teacherID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	s.lastExclude = excludeID
	if s.teacherOverlap != nil {
		return s.teacherOverlap, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) FindClassroomOverlap(ctx context.Context, classroomID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	if s.roomOverlap != nil {
		return s.roomOverlap, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) FindGroupOverlap(ctx context.Context, groupID, termID, day, start, end, excludeID string) (*models.ScheduleEntry, error) {
	if s.groupOverlap != nil {
		return s.groupOverlap, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleRepoStub) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if s.entries == nil {
		s.entries = map[string]*models.ScheduleEntry{}
	}
	s.entries[entry.ID] = entry
	s.created = append(s.created, *entry)
	return nil
}

func (s *scheduleRepoStub) BulkCreate(ctx context.Context, entries []models.ScheduleEntry) error {
	s.bulkCreated = append(s.bulkCreated, entries...)
	return nil
}

func (s *scheduleRepoStub) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	if s.entries == nil {
		s.entries = map[string]*models.ScheduleEntry{}
	}
	s.entries[entry.ID] = entry
	s.updated = append(s.updated, *entry)
	return nil
}

func (s *scheduleRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *scheduleRepoStub) DeleteByTermAndCourse(ctx context.Context, termID, courseID string) error {
	s.wipes = append(s.wipes, termID+"/"+courseID)
	return nil
}

type groupRepoStub struct {
	groups map[string]*models.ClassGroup
	list   []models.ClassGroup
}

func (s *groupRepoStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if group, ok := s.groups[id]; ok {
		return group, nil
	}
	return nil, sql.ErrNoRows
}

func (s *groupRepoStub) ListByCourse(ctx context.Context, courseID string) ([]models.ClassGroup, error) {
	return s.list, nil
}

type windowRepoStub struct {
	window *models.TimeWindow
	err    error
}

func (s *windowRepoStub) FindByCourse(ctx context.Context, courseID string) (*models.TimeWindow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.window, nil
}

type termGateStub struct {
	err   error
	calls int
}

func (s *termGateStub) EnsureSchedulable(ctx context.Context, id string) (*models.Term, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Term{ID: id, Status: models.TermActive}, nil
}

type cacheInvalidatorStub struct {
	terms []string
}

func (s *cacheInvalidatorStub) InvalidateTerm(ctx context.Context, termID string) error {
	s.terms = append(s.terms, termID)
	return nil
}

type scheduleFixture struct {
	service *ScheduleService
	repo    *scheduleRepoStub
	groups  *groupRepoStub
	windows *windowRepoStub
	terms   *termGateStub
	cache   *cacheInvalidatorStub

	courseID    string
	termID      string
	groupID     string
	teacherID   string
	classroomID string
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()

	f := &scheduleFixture{
		courseID:    uuid.NewString(),
		termID:      uuid.NewString(),
		groupID:     uuid.NewString(),
		teacherID:   uuid.NewString(),
		classroomID: uuid.NewString(),
	}

	group := &models.ClassGroup{
		ID:          f.groupID,
		ClassroomID: f.classroomID,
		TeacherID:   &f.teacherID,
		CourseID:    f.courseID,
		Name:        "Algorithms A",
		Credits:     2,
	}

	f.repo = &scheduleRepoStub{}
	f.groups = &groupRepoStub{groups: map[string]*models.ClassGroup{f.groupID: group}}
	f.windows = &windowRepoStub{window: &models.TimeWindow{
		CourseID:              f.courseID,
		DaysOfWeek:            []string{"MONDAY", "WEDNESDAY"},
		StartTime:             "08:00:00",
		EndTime:               "12:00:00",
		LessonDurationMinutes: 60,
	}}
	f.terms = &termGateStub{}
	f.cache = &cacheInvalidatorStub{}
	f.service = NewScheduleService(f.repo, f.groups, f.windows, f.terms, f.cache, nil, nil, zap.NewNop())
	return f
}

func (f *scheduleFixture) saveRequest() SaveScheduleRequest {
	return SaveScheduleRequest{
		GroupID:   f.groupID,
		TermID:    f.termID,
		DayOfWeek: "MONDAY",
		StartTime: "08:00",
		EndTime:   "09:00",
	}
}

func TestScheduleServiceSaveCreatesEntry(t *testing.T) {
	f := newScheduleFixture(t)

	entry, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.NoError(t, err)

	require.Len(t, f.repo.created, 1)
	assert.Equal(t, "MONDAY", entry.DayOfWeek)
	assert.Equal(t, "08:00:00", entry.StartTime)
	assert.Equal(t, "09:00:00", entry.EndTime)
	assert.Equal(t, f.groupID, entry.GroupID)
	assert.Equal(t, []string{f.termID}, f.cache.terms)
	assert.Equal(t, 1, f.terms.calls)
}

func TestScheduleServiceSaveWithoutIDAlwaysCreates(t *testing.T) {
	f := newScheduleFixture(t)

	// A group holds one weekly lesson per credit: placing it on a second
	// cell must add an entry, never relocate the first one.
	first, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.NoError(t, err)

	req := f.saveRequest()
	req.DayOfWeek = "WEDNESDAY"
	req.StartTime = "09:00"
	req.EndTime = "10:00"
	second, err := f.service.SaveOrUpdate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.repo.created, 2)
	assert.Empty(t, f.repo.updated)
	assert.Equal(t, "MONDAY", f.repo.entries[first.ID].DayOfWeek, "the first lesson must stay where it was placed")
	assert.Equal(t, "WEDNESDAY", second.DayOfWeek)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestScheduleServiceSaveExplicitMoveRelocatesEntry(t *testing.T) {
	f := newScheduleFixture(t)
	existingID := uuid.NewString()
	f.repo.entries = map[string]*models.ScheduleEntry{existingID: {
		ID:        existingID,
		TermID:    f.termID,
		GroupID:   f.groupID,
		DayOfWeek: "MONDAY",
		StartTime: "08:00:00",
		EndTime:   "09:00:00",
	}}

	req := f.saveRequest()
	req.GroupID = ""
	req.ScheduleID = &existingID
	req.DayOfWeek = "WEDNESDAY"
	req.StartTime = "10:00"
	req.EndTime = "11:00"

	entry, err := f.service.SaveOrUpdate(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, f.repo.created, "an explicit move must not create a second entry")
	require.Len(t, f.repo.updated, 1)
	assert.Equal(t, f.groupID, entry.GroupID)
	assert.Equal(t, "WEDNESDAY", entry.DayOfWeek)
	assert.Equal(t, "10:00:00", entry.StartTime)
	assert.Equal(t, existingID, f.repo.lastExclude, "the moved entry must be excluded from overlap checks")
}

func TestScheduleServiceSaveUnknownScheduleID(t *testing.T) {
	f := newScheduleFixture(t)
	missing := uuid.NewString()

	req := f.saveRequest()
	req.GroupID = ""
	req.ScheduleID = &missing

	_, err := f.service.SaveOrUpdate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceSaveTeacherConflict(t *testing.T) {
	f := newScheduleFixture(t)
	f.repo.teacherOverlap = &models.ScheduleEntry{ID: uuid.NewString()}

	_, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, string(models.ConflictTeacher), appErr.Code)
	assert.Equal(t, appErrors.ErrConflict.Status, appErr.Status)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.cache.terms)
}

func TestScheduleServiceSaveRoomConflict(t *testing.T) {
	f := newScheduleFixture(t)
	f.repo.roomOverlap = &models.ScheduleEntry{ID: uuid.NewString()}

	_, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.Error(t, err)
	assert.Equal(t, string(models.ConflictRoom), appErrors.FromError(err).Code)
}

func TestScheduleServiceSaveGroupConflict(t *testing.T) {
	f := newScheduleFixture(t)
	f.repo.groupOverlap = &models.ScheduleEntry{ID: uuid.NewString()}

	_, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.Error(t, err)
	assert.Equal(t, string(models.ConflictGroup), appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestScheduleServiceSaveDayNotAllowed(t *testing.T) {
	f := newScheduleFixture(t)

	req := f.saveRequest()
	req.DayOfWeek = "TUESDAY"

	_, err := f.service.SaveOrUpdate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, string(models.ConflictDayNotAllowed), appErrors.FromError(err).Code)
}

func TestScheduleServiceSaveOutsideWindow(t *testing.T) {
	f := newScheduleFixture(t)

	req := f.saveRequest()
	req.StartTime = "07:00"
	req.EndTime = "08:00"

	_, err := f.service.SaveOrUpdate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, string(models.ConflictOutsideWindow), appErrors.FromError(err).Code)
}

func TestScheduleServiceSaveDurationMismatch(t *testing.T) {
	f := newScheduleFixture(t)

	req := f.saveRequest()
	req.EndTime = "09:30"

	_, err := f.service.SaveOrUpdate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, string(models.ConflictDurationMismatch), appErrors.FromError(err).Code)
}

func TestScheduleServiceSaveFinalizedTermRejected(t *testing.T) {
	f := newScheduleFixture(t)
	f.terms.err = appErrors.Clone(appErrors.ErrTermFinalized, "term is finalized and read-only")

	_, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTermFinalized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
	assert.Empty(t, f.repo.updated)
}

func TestScheduleServiceSaveUnconfiguredCourse(t *testing.T) {
	f := newScheduleFixture(t)
	f.windows.err = sql.ErrNoRows

	_, err := f.service.SaveOrUpdate(context.Background(), f.saveRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDelete(t *testing.T) {
	f := newScheduleFixture(t)
	entryID := uuid.NewString()
	f.repo.entries = map[string]*models.ScheduleEntry{entryID: {ID: entryID, TermID: f.termID}}

	err := f.service.Delete(context.Background(), entryID)
	require.NoError(t, err)
	assert.Equal(t, []string{entryID}, f.repo.deleted)
	assert.Equal(t, []string{f.termID}, f.cache.terms)
}

func TestScheduleServiceDeleteFinalizedTerm(t *testing.T) {
	f := newScheduleFixture(t)
	entryID := uuid.NewString()
	f.repo.entries = map[string]*models.ScheduleEntry{entryID: {ID: entryID, TermID: f.termID}}
	f.terms.err = appErrors.Clone(appErrors.ErrTermFinalized, "term is finalized and read-only")

	err := f.service.Delete(context.Background(), entryID)
	require.Error(t, err)
	assert.Empty(t, f.repo.deleted)
}

func TestScheduleServiceDeleteMissingEntry(t *testing.T) {
	f := newScheduleFixture(t)

	err := f.service.Delete(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCopyWipesTargetAndReplicates(t *testing.T) {
	f := newScheduleFixture(t)
	fromTerm := uuid.NewString()
	source := []models.ScheduleEntry{
		{ID: uuid.NewString(), TermID: fromTerm, GroupID: f.groupID, DayOfWeek: "MONDAY", StartTime: "08:00:00", EndTime: "09:00:00"},
		{ID: uuid.NewString(), TermID: fromTerm, GroupID: f.groupID, DayOfWeek: "WEDNESDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	f.repo.listQueue = [][]models.ScheduleEntry{source}

	result, err := f.service.Copy(context.Background(), CopyScheduleRequest{
		CourseID:   f.courseID,
		FromTermID: fromTerm,
		ToTermID:   f.termID,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{f.termID + "/" + f.courseID}, f.repo.wipes, "the copy must clear the target term first")
	require.Len(t, result.Copied, 2)
	assert.Empty(t, result.Skipped)
	require.Len(t, f.repo.bulkCreated, 2)
	assert.Equal(t, f.termID, f.repo.bulkCreated[0].TermID)
	assert.Equal(t, []string{f.termID}, f.cache.terms)
}

func TestScheduleServiceCopySkipsConflictingEntries(t *testing.T) {
	f := newScheduleFixture(t)
	fromTerm := uuid.NewString()
	source := []models.ScheduleEntry{
		{ID: uuid.NewString(), TermID: fromTerm, GroupID: f.groupID, DayOfWeek: "MONDAY", StartTime: "08:00:00", EndTime: "09:00:00"},
		{ID: uuid.NewString(), TermID: fromTerm, GroupID: f.groupID, DayOfWeek: "WEDNESDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	f.repo.listQueue = [][]models.ScheduleEntry{source}
	// Another course already holds the teacher in the target term.
	f.repo.teacherOverlap = &models.ScheduleEntry{ID: uuid.NewString()}

	result, err := f.service.Copy(context.Background(), CopyScheduleRequest{
		CourseID:   f.courseID,
		FromTermID: fromTerm,
		ToTermID:   f.termID,
	})
	require.NoError(t, err, "a conflicting entry must be skipped, not fail the copy")

	assert.Empty(t, result.Copied)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, f.groupID, result.Skipped[0].GroupID)
	assert.Equal(t, "MONDAY", result.Skipped[0].DayOfWeek)
	assert.NotEmpty(t, result.Skipped[0].Reason)
	assert.Empty(t, f.repo.bulkCreated)
}

func TestScheduleServiceCopySameTermRejected(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.service.Copy(context.Background(), CopyScheduleRequest{
		CourseID:   f.courseID,
		FromTermID: f.termID,
		ToTermID:   f.termID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.wipes)
}

func TestScheduleServiceCopyEmptySourceStillWipesTarget(t *testing.T) {
	f := newScheduleFixture(t)
	f.repo.listQueue = [][]models.ScheduleEntry{{}}

	result, err := f.service.Copy(context.Background(), CopyScheduleRequest{
		CourseID:   f.courseID,
		FromTermID: uuid.NewString(),
		ToTermID:   f.termID,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Copied)
	assert.Equal(t, []string{f.termID + "/" + f.courseID}, f.repo.wipes)
	assert.Empty(t, f.repo.bulkCreated)
}

func generatorGroup(f *scheduleFixture, name string, credits int) models.ClassGroup {
	teacherID := uuid.NewString()
	return models.ClassGroup{
		ID:          uuid.NewString(),
		ClassroomID: uuid.NewString(),
		TeacherID:   &teacherID,
		CourseID:    f.courseID,
		Name:        name,
		Credits:     credits,
	}
}

func generateRequest(f *scheduleFixture) GenerateScheduleRequest {
	return GenerateScheduleRequest{CourseID: f.courseID, TermID: f.termID}
}

func TestScheduleServiceGeneratePlacesOneLessonPerCredit(t *testing.T) {
	f := newScheduleFixture(t)
	f.groups.list = []models.ClassGroup{generatorGroup(f, "Algorithms A", 2)}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 2)
	assert.Empty(t, result.Failures)

	// Both lessons fit the first configured day.
	assert.Equal(t, "MONDAY", result.Placed[0].DayOfWeek)
	assert.Equal(t, "08:00:00", result.Placed[0].StartTime)
	assert.Equal(t, "MONDAY", result.Placed[1].DayOfWeek)
	assert.Equal(t, "09:00:00", result.Placed[1].StartTime)

	assert.Equal(t, []string{f.termID + "/" + f.courseID}, f.repo.wipes, "generation must wipe the previous layout")
	assert.Len(t, f.repo.bulkCreated, 2)
}

func TestScheduleServiceGenerateCreditsDefaultToOne(t *testing.T) {
	f := newScheduleFixture(t)
	f.groups.list = []models.ClassGroup{generatorGroup(f, "Seminar", 0)}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 1)
	assert.Empty(t, result.Failures)
}

func TestScheduleServiceGenerateHeavierGroupsFirst(t *testing.T) {
	f := newScheduleFixture(t)
	light := generatorGroup(f, "Electives", 1)
	heavy := generatorGroup(f, "Calculus", 3)
	f.groups.list = []models.ClassGroup{light, heavy}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 4)

	assert.Equal(t, heavy.ID, result.Placed[0].GroupID, "the heavier group must be placed first")
	assert.Equal(t, heavy.ID, result.Placed[2].GroupID)
	assert.Equal(t, light.ID, result.Placed[3].GroupID)
}

func TestScheduleServiceGenerateSplitsAcrossTwoDays(t *testing.T) {
	f := newScheduleFixture(t)
	// Two slots per day cannot host three lessons on one day, so the
	// layout falls back to a two-day split, heavier half first.
	f.windows.window.EndTime = "10:00:00"
	f.groups.list = []models.ClassGroup{generatorGroup(f, "Databases", 3)}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 3)
	assert.Empty(t, result.Failures)

	assert.Equal(t, "MONDAY", result.Placed[0].DayOfWeek)
	assert.Equal(t, "08:00:00", result.Placed[0].StartTime)
	assert.Equal(t, "MONDAY", result.Placed[1].DayOfWeek)
	assert.Equal(t, "09:00:00", result.Placed[1].StartTime)
	assert.Equal(t, "WEDNESDAY", result.Placed[2].DayOfWeek)
	assert.Equal(t, "08:00:00", result.Placed[2].StartTime)
}

func TestScheduleServiceGenerateSpreadsOnePerDay(t *testing.T) {
	f := newScheduleFixture(t)
	// One slot per day: neither a single day nor a day pair can host three
	// lessons, so they spread one per day.
	f.windows.window.DaysOfWeek = []string{"MONDAY", "WEDNESDAY", "FRIDAY"}
	f.windows.window.EndTime = "09:00:00"
	f.groups.list = []models.ClassGroup{generatorGroup(f, "Physics", 3)}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 3)
	assert.Empty(t, result.Failures)

	days := []string{result.Placed[0].DayOfWeek, result.Placed[1].DayOfWeek, result.Placed[2].DayOfWeek}
	assert.Equal(t, []string{"MONDAY", "WEDNESDAY", "FRIDAY"}, days)
}

func TestScheduleServiceGenerateReportsShortfall(t *testing.T) {
	f := newScheduleFixture(t)
	// Both groups share a teacher and the window fits a single lesson, so
	// only the first group can be placed.
	f.windows.window.DaysOfWeek = []string{"MONDAY"}
	f.windows.window.EndTime = "09:00:00"
	shared := uuid.NewString()
	first := generatorGroup(f, "Algebra A", 1)
	second := generatorGroup(f, "Algebra B", 1)
	first.TeacherID = &shared
	second.TeacherID = &shared
	f.groups.list = []models.ClassGroup{first, second}

	result, err := f.service.Generate(context.Background(), generateRequest(f))
	require.NoError(t, err)
	require.Len(t, result.Placed, 1)
	assert.Equal(t, first.ID, result.Placed[0].GroupID)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, second.ID, result.Failures[0].GroupID)
	assert.Equal(t, "Algebra B", result.Failures[0].GroupName)
	assert.Equal(t, fmt.Sprintf("scheduled only %d of %d weekly lessons", 0, 1), result.Failures[0].Message)
}

func TestScheduleServiceGenerateUnconfiguredCourse(t *testing.T) {
	f := newScheduleFixture(t)
	f.windows.err = sql.ErrNoRows

	_, err := f.service.Generate(context.Background(), generateRequest(f))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceGenerateNoGroups(t *testing.T) {
	f := newScheduleFixture(t)

	_, err := f.service.Generate(context.Background(), generateRequest(f))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
