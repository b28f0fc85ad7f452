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

	"github.com/noah-isme/school-records-api/internal/models"
)

func newAcademicYearMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAcademicYearRepositoryList(t *testing.T) {
	db, mock, cleanup := newAcademicYearMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "is_current", "created_at", "updated_at"}).
		AddRow("y1", "2025-2026", time.Now(), time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, start_date, end_date, is_current, created_at, updated_at FROM academic_years WHERE 1=1 ORDER BY start_date DESC LIMIT 10 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	years, total, err := repo.List(context.Background(), models.AcademicYearFilter{})
	require.NoError(t, err)
	assert.Len(t, years, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositorySetCurrent(t *testing.T) {
	db, mock, cleanup := newAcademicYearMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "y2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_current = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("y2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetCurrent(context.Background(), "y2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositorySetCurrentRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAcademicYearMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_current = FALSE, updated_at = $1 WHERE is_current = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "y2").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), "y2")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAcademicYearMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectExec("INSERT INTO academic_years").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	year := &models.AcademicYear{Name: "2025-2026", StartDate: time.Now(), EndDate: time.Now().AddDate(1, 0, 0)}
	err := repo.Create(context.Background(), year)
	require.NoError(t, err)
	assert.NotEmpty(t, year.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newAcademicYearMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM academic_years WHERE name = $1 LIMIT 1")).
		WithArgs("2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByName(context.Background(), "2025-2026", "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
