package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type holidayRepoFake struct {
	byDate  map[string]models.PublicHoliday
	byID    map[string]models.PublicHoliday
	deleted []string
}

func newHolidayRepoFake(holidays ...models.PublicHoliday) *holidayRepoFake {
	f := &holidayRepoFake{
		byDate: make(map[string]models.PublicHoliday),
		byID:   make(map[string]models.PublicHoliday),
	}
	for _, h := range holidays {
		f.byDate[models.DateOnly(h.Date).Format("2006-01-02")] = h
		if h.ID != "" {
			f.byID[h.ID] = h
		}
	}
	return f
}

func (f *holidayRepoFake) FindByID(_ context.Context, id string) (*models.PublicHoliday, error) {
	h, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &h, nil
}

func (f *holidayRepoFake) FindByDate(_ context.Context, date time.Time) (*models.PublicHoliday, error) {
	h, ok := f.byDate[models.DateOnly(date).Format("2006-01-02")]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &h, nil
}

func (f *holidayRepoFake) List(_ context.Context, _ models.HolidayFilter) ([]models.PublicHoliday, int, error) {
	out := make([]models.PublicHoliday, 0, len(f.byDate))
	for _, h := range f.byDate {
		out = append(out, h)
	}
	return out, len(out), nil
}

func (f *holidayRepoFake) ListByRange(_ context.Context, from, to time.Time) ([]models.PublicHoliday, error) {
	var out []models.PublicHoliday
	for _, h := range f.byDate {
		day := models.DateOnly(h.Date)
		if !day.Before(models.DateOnly(from)) && !day.After(models.DateOnly(to)) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *holidayRepoFake) Insert(_ context.Context, holiday *models.PublicHoliday) error {
	if holiday.ID == "" {
		holiday.ID = "holiday-generated"
	}
	f.byID[holiday.ID] = *holiday
	f.byDate[models.DateOnly(holiday.Date).Format("2006-01-02")] = *holiday
	return nil
}

func (f *holidayRepoFake) Update(_ context.Context, holiday *models.PublicHoliday) error {
	if _, ok := f.byID[holiday.ID]; !ok {
		return sql.ErrNoRows
	}
	f.byID[holiday.ID] = *holiday
	return nil
}

func (f *holidayRepoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type termRepoFake struct {
	terms map[string]models.Term
}

func (f *termRepoFake) FindByID(_ context.Context, id string) (*models.Term, error) {
	t, ok := f.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

// Monday 2026-03-02 anchors a week with a closed holiday on Wednesday.
var (
	testMonday    = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testWednesday = testMonday.AddDate(0, 0, 2)
	testSaturday  = testMonday.AddDate(0, 0, 5)
)

func newCalendarFixture(holidays ...models.PublicHoliday) *CalendarService {
	terms := &termRepoFake{terms: map[string]models.Term{
		"term-1": {
			ID:        "term-1",
			StartDate: testMonday,
			EndDate:   testMonday.AddDate(0, 0, 7*12-1),
			IsActive:  true,
		},
	}}
	return NewCalendarService(newHolidayRepoFake(holidays...), terms, nil, zap.NewNop())
}

func TestIsSchoolDayWeekend(t *testing.T) {
	svc := newCalendarFixture()

	ok, holiday, err := svc.IsSchoolDay(context.Background(), testSaturday)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, holiday)
}

func TestIsSchoolDayClosedHoliday(t *testing.T) {
	svc := newCalendarFixture(models.PublicHoliday{
		ID: "h1", Date: testWednesday, Name: "Founders Day", IsSchoolClosed: true,
	})

	ok, holiday, err := svc.IsSchoolDay(context.Background(), testWednesday)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, holiday)
	assert.Equal(t, "Founders Day", holiday.Name)
}

func TestIsSchoolDayOpenHolidayKeepsDay(t *testing.T) {
	svc := newCalendarFixture(models.PublicHoliday{
		ID: "h1", Date: testWednesday, Name: "Heritage Day", IsSchoolClosed: false,
	})

	ok, holiday, err := svc.IsSchoolDay(context.Background(), testWednesday)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, holiday)
}

func TestIsSchoolDayPlainWeekday(t *testing.T) {
	svc := newCalendarFixture()

	ok, holiday, err := svc.IsSchoolDay(context.Background(), testMonday)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, holiday)
}

func TestNextSchoolDaySkipsHolidayAndWeekend(t *testing.T) {
	// Thursday and Friday are closed, so the walk from Wednesday must run
	// out of in-week candidates.
	svc := newCalendarFixture(
		models.PublicHoliday{ID: "h1", Date: testMonday.AddDate(0, 0, 3), Name: "Break", IsSchoolClosed: true},
		models.PublicHoliday{ID: "h2", Date: testMonday.AddDate(0, 0, 4), Name: "Break", IsSchoolClosed: true},
	)

	weekEnd := testMonday.AddDate(0, 0, 6)
	_, found, err := svc.NextSchoolDay(context.Background(), testWednesday, weekEnd)
	require.NoError(t, err)
	assert.False(t, found)

	// With only Thursday closed, Friday is the landing spot.
	svc = newCalendarFixture(
		models.PublicHoliday{ID: "h1", Date: testMonday.AddDate(0, 0, 3), Name: "Break", IsSchoolClosed: true},
	)
	next, found, err := svc.NextSchoolDay(context.Background(), testWednesday, weekEnd)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testMonday.AddDate(0, 0, 4), next)
}

func TestRescheduleImpact(t *testing.T) {
	svc := newCalendarFixture(models.PublicHoliday{
		ID: "h1", Date: testWednesday, Name: "Founders Day", IsSchoolClosed: true,
	})

	resp, err := svc.RescheduleImpact(context.Background(), "term-1", 1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, testWednesday.Format("2006-01-02"), resp.Items[0].Date)
	assert.Equal(t, testWednesday.AddDate(0, 0, 1).Format("2006-01-02"), resp.Items[0].NextSchoolDay)
	assert.False(t, resp.Items[0].Lost)
}

func TestRescheduleImpactLostWhenWeekExhausted(t *testing.T) {
	// Friday is closed and the walk cannot leave the week, so the day is lost.
	svc := newCalendarFixture(models.PublicHoliday{
		ID: "h1", Date: testMonday.AddDate(0, 0, 4), Name: "Closure", IsSchoolClosed: true,
	})

	resp, err := svc.RescheduleImpact(context.Background(), "term-1", 1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Lost)
}

func TestRescheduleImpactUnknownTerm(t *testing.T) {
	svc := newCalendarFixture()

	_, err := svc.RescheduleImpact(context.Background(), "missing", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateHolidayNormalizesDate(t *testing.T) {
	svc := newCalendarFixture()

	created, err := svc.CreateHoliday(context.Background(), dto.CreateHolidayRequest{
		Date:           time.Date(2026, 3, 4, 13, 45, 12, 0, time.UTC),
		Name:           "Founders Day",
		IsSchoolClosed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, testWednesday, created.Date)
	assert.NotEmpty(t, created.ID)
}

func TestDeleteHolidayNotFound(t *testing.T) {
	svc := newCalendarFixture()

	err := svc.DeleteHoliday(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
