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

type groupCrudRepoStub struct {
	groups        map[string]*models.ClassGroup
	exists        bool
	scheduleCount int
	created       []models.ClassGroup
	deleted       []string
}

func (s *groupCrudRepoStub) List(ctx context.Context, filter models.GroupFilter) ([]models.ClassGroup, int, error) {
	out := make([]models.ClassGroup, 0, len(s.groups))
	for _, group := range s.groups {
		out = append(out, *group)
	}
	return out, len(out), nil
}

func (s *groupCrudRepoStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if group, ok := s.groups[id]; ok {
		return group, nil
	}
	return nil, sql.ErrNoRows
}

func (s *groupCrudRepoStub) ExistsByAbbreviation(ctx context.Context, disciplineID, abbreviation, excludeID string) (bool, error) {
	return s.exists, nil
}

func (s *groupCrudRepoStub) Create(ctx context.Context, group *models.ClassGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	s.created = append(s.created, *group)
	return nil
}

func (s *groupCrudRepoStub) Update(ctx context.Context, group *models.ClassGroup) error {
	s.groups[group.ID] = group
	return nil
}

func (s *groupCrudRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *groupCrudRepoStub) CountSchedules(ctx context.Context, id string) (int, error) {
	return s.scheduleCount, nil
}

type disciplineLookupStub struct {
	discipline *models.Discipline
}

func (s *disciplineLookupStub) FindByID(ctx context.Context, id string) (*models.Discipline, error) {
	if s.discipline == nil {
		return nil, sql.ErrNoRows
	}
	return s.discipline, nil
}

type classroomLookupStub struct {
	classroom *models.Classroom
}

func (s *classroomLookupStub) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if s.classroom == nil {
		return nil, sql.ErrNoRows
	}
	return s.classroom, nil
}

type groupCrudFixture struct {
	service    *GroupService
	repo       *groupCrudRepoStub
	classrooms *classroomLookupStub
}

func newGroupCrudFixture(t *testing.T) (*groupCrudFixture, GroupRequest) {
	t.Helper()
	disciplineID := uuid.NewString()
	classroomID := uuid.NewString()

	repo := &groupCrudRepoStub{groups: map[string]*models.ClassGroup{}}
	disciplines := &disciplineLookupStub{discipline: &models.Discipline{ID: disciplineID, Name: "Algorithms"}}
	classrooms := &classroomLookupStub{classroom: &models.Classroom{ID: classroomID, Name: "Lab 2", Active: true}}
	service := NewGroupService(repo, disciplines, classrooms, nil, zap.NewNop())

	req := GroupRequest{
		DisciplineID: disciplineID,
		ClassroomID:  classroomID,
		Name:         "Algorithms A",
		Abbreviation: "ALG-A",
		Color:        "#3366FF",
		TermOfCourse: 3,
	}
	return &groupCrudFixture{service: service, repo: repo, classrooms: classrooms}, req
}

func TestGroupServiceCreate(t *testing.T) {
	f, req := newGroupCrudFixture(t)

	group, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "#3366FF", group.Color)
	require.Len(t, f.repo.created, 1)
}

func TestGroupServiceCreateRejectsBadColor(t *testing.T) {
	f, req := newGroupCrudFixture(t)
	req.Color = "blue"

	_, err := f.service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestGroupServiceCreateRejectsInactiveClassroom(t *testing.T) {
	f, req := newGroupCrudFixture(t)
	f.classrooms.classroom.Active = false

	_, err := f.service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceCreateDuplicateAbbreviation(t *testing.T) {
	f, req := newGroupCrudFixture(t)
	f.repo.exists = true

	_, err := f.service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceDeleteWithPlacementsRejected(t *testing.T) {
	f, _ := newGroupCrudFixture(t)
	groupID := uuid.NewString()
	f.repo.groups[groupID] = &models.ClassGroup{ID: groupID}
	f.repo.scheduleCount = 2

	err := f.service.Delete(context.Background(), groupID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.deleted)
}

func TestGroupServiceDelete(t *testing.T) {
	f, _ := newGroupCrudFixture(t)
	groupID := uuid.NewString()
	f.repo.groups[groupID] = &models.ClassGroup{ID: groupID}

	err := f.service.Delete(context.Background(), groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{groupID}, f.repo.deleted)
}
