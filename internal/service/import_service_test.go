package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type importUserStub struct {
	byEmail map[string]*models.User
	created []CreateUserRequest
	err     error
}

func (s *importUserStub) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, req)
	user := &models.User{ID: uuid.NewString(), Email: req.Email, Name: req.Name, Surname: req.Surname, Role: req.Role}
	if s.byEmail == nil {
		s.byEmail = map[string]*models.User{}
	}
	s.byEmail[req.Email] = user
	return user, nil
}

func (s *importUserStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

type importTermStub struct {
	created []TermRequest
}

func (s *importTermStub) Create(ctx context.Context, req TermRequest) (*models.Term, error) {
	s.created = append(s.created, req)
	return &models.Term{ID: uuid.NewString(), Name: req.Name}, nil
}

type importClassroomStub struct {
	byName  map[string]*models.Classroom
	created []ClassroomRequest
}

func (s *importClassroomStub) Create(ctx context.Context, req ClassroomRequest) (*models.Classroom, error) {
	s.created = append(s.created, req)
	room := &models.Classroom{ID: uuid.NewString(), Name: req.Name, Abbreviation: req.Abbreviation}
	if s.byName == nil {
		s.byName = map[string]*models.Classroom{}
	}
	s.byName[req.Name] = room
	return room, nil
}

func (s *importClassroomStub) FindByName(ctx context.Context, name string) (*models.Classroom, error) {
	if room, ok := s.byName[name]; ok {
		return room, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
}

type importCourseStub struct {
	byName  map[string]*models.Course
	created []CourseRequest
}

func (s *importCourseStub) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	s.created = append(s.created, req)
	course := &models.Course{ID: uuid.NewString(), Name: req.Name, CoordinatorID: req.CoordinatorID}
	if s.byName == nil {
		s.byName = map[string]*models.Course{}
	}
	s.byName[req.Name] = course
	return course, nil
}

func (s *importCourseStub) FindByName(ctx context.Context, name string) (*models.Course, error) {
	if course, ok := s.byName[name]; ok {
		return course, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

type importWindowStub struct {
	upserts map[string]TimeWindowRequest
}

func (s *importWindowStub) Upsert(ctx context.Context, courseID string, req TimeWindowRequest) (*models.TimeWindow, error) {
	if s.upserts == nil {
		s.upserts = map[string]TimeWindowRequest{}
	}
	s.upserts[courseID] = req
	return &models.TimeWindow{CourseID: courseID}, nil
}

type importDisciplineStub struct {
	byName  map[string]*models.Discipline
	created []DisciplineRequest
}

func (s *importDisciplineStub) Create(ctx context.Context, req DisciplineRequest) (*models.Discipline, error) {
	s.created = append(s.created, req)
	discipline := &models.Discipline{ID: uuid.NewString(), Name: req.Name, CourseID: req.CourseID}
	if s.byName == nil {
		s.byName = map[string]*models.Discipline{}
	}
	s.byName[req.Name] = discipline
	return discipline, nil
}

func (s *importDisciplineStub) FindByName(ctx context.Context, name string) (*models.Discipline, error) {
	if discipline, ok := s.byName[name]; ok {
		return discipline, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "discipline not found")
}

type importGroupStub struct {
	created []GroupRequest
	err     error
}

func (s *importGroupStub) Create(ctx context.Context, req GroupRequest) (*models.ClassGroup, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, req)
	return &models.ClassGroup{ID: uuid.NewString(), Name: req.Name}, nil
}

type importFixture struct {
	service     *ImportService
	users       *importUserStub
	terms       *importTermStub
	classrooms  *importClassroomStub
	courses     *importCourseStub
	windows     *importWindowStub
	disciplines *importDisciplineStub
	groups      *importGroupStub
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	f := &importFixture{
		users:       &importUserStub{},
		terms:       &importTermStub{},
		classrooms:  &importClassroomStub{},
		courses:     &importCourseStub{},
		windows:     &importWindowStub{},
		disciplines: &importDisciplineStub{},
		groups:      &importGroupStub{},
	}
	f.service = NewImportService(f.users, f.terms, f.classrooms, f.courses, f.windows, f.disciplines, f.groups, zap.NewNop())
	return f
}

func fullImportRequest() ImportRequest {
	return ImportRequest{
		Users: []CreateUserRequest{
			{Email: "coord@example.edu", Password: "s3cret", Name: "Grace", Surname: "Hopper", Role: models.RoleCoordinator},
			{Email: "teach@example.edu", Password: "s3cret", Name: "Alan", Surname: "Turing", Role: models.RoleTeacher},
		},
		Terms: []TermRequest{{
			Name:      "2026.1",
			Year:      2026,
			Number:    1,
			StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		}},
		Classrooms: []ClassroomRequest{
			{Name: "Lab 1", Abbreviation: "L1"},
		},
		Courses: []ImportCourse{
			{Name: "Computer Science", CoordinatorEmail: "coord@example.edu"},
		},
		TimeWindows: []ImportTimeWindow{
			{CourseName: "Computer Science", DaysOfWeek: []string{"MONDAY"}, StartTime: "08:00", EndTime: "12:00", LessonDurationMinutes: 60},
		},
		Disciplines: []ImportDiscipline{
			{Name: "Algorithms", Abbreviation: "ALG", Credits: 4, CourseName: "Computer Science", TeacherEmail: "teach@example.edu"},
		},
		Groups: []ImportGroup{
			{Name: "Algorithms A", Abbreviation: "ALG-A", Color: "#336699", TermOfCourse: 2, DisciplineName: "Algorithms", ClassroomName: "Lab 1"},
		},
	}
}

func TestImportServiceRunResolvesReferences(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.service.Run(context.Background(), fullImportRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "import finished", result.Message)

	require.Len(t, f.users.created, 2)
	require.Len(t, f.terms.created, 1)
	require.Len(t, f.classrooms.created, 1)

	require.Len(t, f.courses.created, 1)
	coordinator := f.users.byEmail["coord@example.edu"]
	require.NotNil(t, f.courses.created[0].CoordinatorID)
	assert.Equal(t, coordinator.ID, *f.courses.created[0].CoordinatorID)

	course := f.courses.byName["Computer Science"]
	require.Contains(t, f.windows.upserts, course.ID)
	assert.Equal(t, 60, f.windows.upserts[course.ID].LessonDurationMinutes)

	require.Len(t, f.disciplines.created, 1)
	assert.Equal(t, course.ID, f.disciplines.created[0].CourseID)
	teacher := f.users.byEmail["teach@example.edu"]
	require.NotNil(t, f.disciplines.created[0].TeacherID)
	assert.Equal(t, teacher.ID, *f.disciplines.created[0].TeacherID)

	require.Len(t, f.groups.created, 1)
	discipline := f.disciplines.byName["Algorithms"]
	room := f.classrooms.byName["Lab 1"]
	assert.Equal(t, discipline.ID, f.groups.created[0].DisciplineID)
	assert.Equal(t, room.ID, f.groups.created[0].ClassroomID)
}

func TestImportServiceRunCollectsRowErrors(t *testing.T) {
	f := newImportFixture(t)
	req := fullImportRequest()
	// Breaking the coordinator reference fails the course row and cascades
	// into everything resolved through the course.
	req.Courses[0].CoordinatorEmail = "ghost@example.edu"

	result, err := f.service.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "ghost@example.edu")
	assert.Contains(t, result.Errors[1], "Computer Science")
	assert.Contains(t, result.Errors[2], "Computer Science")
	assert.Contains(t, result.Errors[3], "Algorithms")

	assert.Empty(t, f.courses.created)
	assert.Len(t, f.users.created, 2)
	assert.Len(t, f.classrooms.created, 1)
	assert.Empty(t, f.groups.created)
}

func TestImportServiceRunReportsCreateFailures(t *testing.T) {
	f := newImportFixture(t)
	f.users.err = appErrors.Clone(appErrors.ErrConflict, "email already registered")

	req := ImportRequest{Users: []CreateUserRequest{
		{Email: "dup@example.edu", Password: "s3cret", Name: "Dup", Surname: "User", Role: models.RoleTeacher},
	}}
	result, err := f.service.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "dup@example.edu")
}
