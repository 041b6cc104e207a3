package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
)

type importUserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type importTermService interface {
	Create(ctx context.Context, req TermRequest) (*models.Term, error)
}

type importClassroomService interface {
	Create(ctx context.Context, req ClassroomRequest) (*models.Classroom, error)
	FindByName(ctx context.Context, name string) (*models.Classroom, error)
}

type importCourseService interface {
	Create(ctx context.Context, req CourseRequest) (*models.Course, error)
	FindByName(ctx context.Context, name string) (*models.Course, error)
}

type importTimeWindowService interface {
	Upsert(ctx context.Context, courseID string, req TimeWindowRequest) (*models.TimeWindow, error)
}

type importDisciplineService interface {
	Create(ctx context.Context, req DisciplineRequest) (*models.Discipline, error)
	FindByName(ctx context.Context, name string) (*models.Discipline, error)
}

type importGroupService interface {
	Create(ctx context.Context, req GroupRequest) (*models.ClassGroup, error)
}

// ImportCourse is a course row in an import payload. The coordinator is
// referenced by email rather than id.
type ImportCourse struct {
	Name             string `json:"name"`
	CoordinatorEmail string `json:"coordinator_email"`
}

// ImportTimeWindow is a per-course time window row referenced by course name.
type ImportTimeWindow struct {
	CourseName            string   `json:"course_name"`
	DaysOfWeek            []string `json:"days_of_week"`
	StartTime             string   `json:"start_time"`
	EndTime               string   `json:"end_time"`
	LessonDurationMinutes int      `json:"lesson_duration_minutes"`
}

// ImportDiscipline is a discipline row referencing course and teacher by
// name and email.
type ImportDiscipline struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Credits      int    `json:"credits"`
	CourseName   string `json:"course_name"`
	TeacherEmail string `json:"teacher_email"`
}

// ImportGroup is a group row referencing its discipline and classroom by name.
type ImportGroup struct {
	Name           string `json:"name"`
	Abbreviation   string `json:"abbreviation"`
	Color          string `json:"color"`
	TermOfCourse   int    `json:"term_of_course"`
	DisciplineName string `json:"discipline_name"`
	ClassroomName  string `json:"classroom_name"`
}

// ImportRequest is one bulk payload. Sections are processed in dependency
// order so later rows can reference earlier ones by name or email.
type ImportRequest struct {
	Users       []CreateUserRequest `json:"users"`
	Terms       []TermRequest       `json:"terms"`
	Classrooms  []ClassroomRequest  `json:"classrooms"`
	Courses     []ImportCourse      `json:"courses"`
	TimeWindows []ImportTimeWindow  `json:"time_windows"`
	Disciplines []ImportDiscipline  `json:"disciplines"`
	Groups      []ImportGroup       `json:"groups"`
}

// ImportResult summarizes a run. Row failures are collected, not fatal.
type ImportResult struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ImportService loads a whole catalogue in one payload: users, terms,
// classrooms, courses, time windows, disciplines and groups. Each row is
// created through the regular service so every domain rule still applies;
// rows that fail are reported back individually.
type ImportService struct {
	users       importUserService
	terms       importTermService
	classrooms  importClassroomService
	courses     importCourseService
	windows     importTimeWindowService
	disciplines importDisciplineService
	groups      importGroupService
	logger      *zap.Logger
}

// NewImportService creates a new import service instance.
func NewImportService(users importUserService, terms importTermService, classrooms importClassroomService, courses importCourseService, windows importTimeWindowService, disciplines importDisciplineService, groups importGroupService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		users:       users,
		terms:       terms,
		classrooms:  classrooms,
		courses:     courses,
		windows:     windows,
		disciplines: disciplines,
		groups:      groups,
		logger:      logger,
	}
}

// Run processes the payload section by section.
func (s *ImportService) Run(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	result := &ImportResult{}

	for _, user := range req.Users {
		if _, err := s.users.Create(ctx, user); err != nil {
			result.fail("user %q: %v", user.Email, err)
		}
	}

	for _, term := range req.Terms {
		if _, err := s.terms.Create(ctx, term); err != nil {
			result.fail("term %q: %v", term.Name, err)
		}
	}

	for _, room := range req.Classrooms {
		if _, err := s.classrooms.Create(ctx, room); err != nil {
			result.fail("classroom %q: %v", room.Name, err)
		}
	}

	for _, course := range req.Courses {
		coordinator, err := s.users.FindByEmail(ctx, course.CoordinatorEmail)
		if err != nil {
			result.fail("course %q: coordinator %q not found", course.Name, course.CoordinatorEmail)
			continue
		}
		if _, err := s.courses.Create(ctx, CourseRequest{Name: course.Name, CoordinatorID: &coordinator.ID}); err != nil {
			result.fail("course %q: %v", course.Name, err)
		}
	}

	for _, window := range req.TimeWindows {
		course, err := s.courses.FindByName(ctx, window.CourseName)
		if err != nil {
			result.fail("time window: course %q not found", window.CourseName)
			continue
		}
		req := TimeWindowRequest{
			DaysOfWeek:            window.DaysOfWeek,
			StartTime:             window.StartTime,
			EndTime:               window.EndTime,
			LessonDurationMinutes: window.LessonDurationMinutes,
		}
		if _, err := s.windows.Upsert(ctx, course.ID, req); err != nil {
			result.fail("time window for course %q: %v", window.CourseName, err)
		}
	}

	for _, discipline := range req.Disciplines {
		course, err := s.courses.FindByName(ctx, discipline.CourseName)
		if err != nil {
			result.fail("discipline %q: course %q not found", discipline.Name, discipline.CourseName)
			continue
		}
		teacher, err := s.users.FindByEmail(ctx, discipline.TeacherEmail)
		if err != nil {
			result.fail("discipline %q: teacher %q not found", discipline.Name, discipline.TeacherEmail)
			continue
		}
		req := DisciplineRequest{
			CourseID:     course.ID,
			TeacherID:    &teacher.ID,
			Name:         discipline.Name,
			Abbreviation: discipline.Abbreviation,
			Credits:      discipline.Credits,
		}
		if _, err := s.disciplines.Create(ctx, req); err != nil {
			result.fail("discipline %q: %v", discipline.Name, err)
		}
	}

	for _, group := range req.Groups {
		discipline, err := s.disciplines.FindByName(ctx, group.DisciplineName)
		if err != nil {
			result.fail("group %q: discipline %q not found", group.Name, group.DisciplineName)
			continue
		}
		room, err := s.classrooms.FindByName(ctx, group.ClassroomName)
		if err != nil {
			result.fail("group %q: classroom %q not found", group.Name, group.ClassroomName)
			continue
		}
		req := GroupRequest{
			DisciplineID: discipline.ID,
			ClassroomID:  room.ID,
			Name:         group.Name,
			Abbreviation: group.Abbreviation,
			Color:        group.Color,
			TermOfCourse: group.TermOfCourse,
		}
		if _, err := s.groups.Create(ctx, req); err != nil {
			result.fail("group %q: %v", group.Name, err)
		}
	}

	result.Message = "import finished"
	s.logger.Info("bulk import finished", zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (r *ImportResult) fail(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
