package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmanager/backend/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "term_id", "group_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at",
		"group_name", "group_color", "classroom_id", "discipline_name", "teacher_id", "course_id",
		"teacher_name", "classroom_name",
	})
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := scheduleRows().AddRow(
		"s1", "term-1", "g1", "MONDAY", "08:00:00", "09:00:00", time.Now(), time.Now(),
		"Group A", "#ff0000", "room-1", "Algorithms", "t1", "course-1",
		"Ada Teacher", "Room 101",
	)
	mock.ExpectQuery("SELECT s.id, s.term_id, s.group_id").
		WithArgs("term-1", "course-1").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.ScheduleFilter{TermID: "term-1", CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "MONDAY", entries[0].DayOfWeek)
	assert.Equal(t, "Algorithms", entries[0].DisciplineName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindTeacherOverlap(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := scheduleRows().AddRow(
		"s2", "term-1", "g2", "MONDAY", "08:00:00", "09:00:00", time.Now(), time.Now(),
		"Group B", "#00ff00", "room-2", "Databases", "t1", "course-1",
		"Ada Teacher", "Room 102",
	)
	mock.ExpectQuery("WHERE d.teacher_id = \\$1 AND s.term_id = \\$2").
		WithArgs("t1", "term-1", "MONDAY", "08:00:00", "09:00:00", "s1").
		WillReturnRows(rows)

	entry, err := repo.FindTeacherOverlap(context.Background(), "t1", "term-1", "MONDAY", "08:00:00", "09:00:00", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s2", entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindTeacherOverlapFree(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("WHERE d.teacher_id = \\$1 AND s.term_id = \\$2").
		WithArgs("t1", "term-1", "MONDAY", "08:00:00", "09:00:00").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindTeacherOverlap(context.Background(), "t1", "term-1", "MONDAY", "08:00:00", "09:00:00", "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "term-1", "g1", "MONDAY", "08:00:00", "09:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ScheduleEntry{
		TermID:    "term-1",
		GroupID:   "g1",
		DayOfWeek: "MONDAY",
		StartTime: "08:00:00",
		EndTime:   "09:00:00",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "term-1", "g1", "MONDAY", "08:00:00", "09:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "term-1", "g2", "TUESDAY", "09:00:00", "10:00:00", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.ScheduleEntry{
		{TermID: "term-1", GroupID: "g1", DayOfWeek: "MONDAY", StartTime: "08:00:00", EndTime: "09:00:00"},
		{TermID: "term-1", GroupID: "g2", DayOfWeek: "TUESDAY", StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	require.NoError(t, repo.BulkCreate(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteByTermAndCourse(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("DELETE FROM schedules WHERE term_id = \\$1").
		WithArgs("term-1", "course-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.DeleteByTermAndCourse(context.Background(), "term-1", "course-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
