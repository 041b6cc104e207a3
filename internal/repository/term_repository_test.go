package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmanager/backend/internal/models"
)

func newTermRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTermRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "year", "number", "start_date", "end_date", "status", "created_at", "updated_at"}).
		AddRow("term-1", "2026/1", 2026, 1, time.Now(), time.Now().AddDate(0, 5, 0), models.TermActive, time.Now(), time.Now())
	mock.ExpectQuery("FROM terms WHERE status = \\$1").
		WithArgs(models.TermActive).
		WillReturnRows(rows)

	terms, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, models.TermActive, terms[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFinalizeEnded(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET status = $1, updated_at = $2 WHERE status = $3 AND end_date < $2")).
		WithArgs(models.TermFinalized, now, models.TermActive).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.FinalizeEnded(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryExistsByYearAndNumber(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM terms WHERE year = $1 AND number = $2")).
		WithArgs(2026, 1).
		WillReturnRows(rows)

	exists, err := repo.ExistsByYearAndNumber(context.Background(), 2026, 1, "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
