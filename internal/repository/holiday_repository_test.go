package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestHolidayRepositoryFindByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "date", "name", "is_school_closed", "created_at", "updated_at"}).
		AddRow("h1", date, "Founders Day", true, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date, name, is_school_closed, created_at, updated_at FROM public_holidays WHERE date = $1`)).
		WithArgs(date).
		WillReturnRows(rows)

	holiday, err := repo.FindByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, "h1", holiday.ID)
	assert.True(t, holiday.IsSchoolClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryFindByDateNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date, name, is_school_closed, created_at, updated_at FROM public_holidays WHERE date = $1`)).
		WithArgs(date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByDate(context.Background(), date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestHolidayRepositoryListWithRangeFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "date", "name", "is_school_closed", "created_at", "updated_at"}).
		AddRow("h1", from.AddDate(0, 0, 3), "Founders Day", true, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, name, is_school_closed, created_at, updated_at FROM public_holidays WHERE 1=1 AND date >= $1 AND date <= $2 ORDER BY date ASC LIMIT 50 OFFSET 0")).
		WithArgs(from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM public_holidays WHERE 1=1 AND date >= $1 AND date <= $2")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	holidays, total, err := repo.List(context.Background(), models.HolidayFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryInsertAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public_holidays")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	holiday := &models.PublicHoliday{
		Date:           time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Name:           "Founders Day",
		IsSchoolClosed: true,
	}
	require.NoError(t, repo.Insert(context.Background(), holiday))
	assert.NotEmpty(t, holiday.ID)
	assert.False(t, holiday.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM public_holidays WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
