package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type dashboardScheduleRepoFake struct {
	total     int
	missing   int
	archived  int
	weekRows  []models.ScheduleEntry
	listCalls int
}

func (f *dashboardScheduleRepoFake) CountByFilter(_ context.Context, filter models.ScheduleEntryFilter) (int, error) {
	if filter.MissingTopic != nil && *filter.MissingTopic {
		return f.missing, nil
	}
	return f.total, nil
}

func (f *dashboardScheduleRepoFake) CountArchived(_ context.Context) (int, error) {
	return f.archived, nil
}

func (f *dashboardScheduleRepoFake) ListByDateRange(_ context.Context, _, _ time.Time) ([]models.ScheduleEntry, error) {
	f.listCalls++
	return f.weekRows, nil
}

type dashboardTimetableRepoFake struct {
	timetables []models.Timetable
	entries    map[string][]models.TimetableEntry
}

func (f *dashboardTimetableRepoFake) ListActive(_ context.Context) ([]models.Timetable, error) {
	return f.timetables, nil
}

func (f *dashboardTimetableRepoFake) ListEntries(_ context.Context, timetableID string) ([]models.TimetableEntry, error) {
	return f.entries[timetableID], nil
}

type dashboardHolidayRepoFake struct {
	upcoming int
}

func (f *dashboardHolidayRepoFake) CountUpcoming(_ context.Context, _ time.Time) (int, error) {
	return f.upcoming, nil
}

type cacheRepoFake struct {
	values map[string][]byte
	sets   int
}

func newCacheRepoFake() *cacheRepoFake {
	return &cacheRepoFake{values: map[string][]byte{}}
}

func (f *cacheRepoFake) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *cacheRepoFake) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	f.sets++
	return nil
}

func (f *cacheRepoFake) DeleteByPattern(_ context.Context, _ string) error {
	f.values = map[string][]byte{}
	return nil
}

func newDashboardFixture(schedules *dashboardScheduleRepoFake, tables *dashboardTimetableRepoFake, cacheRepo *cacheRepoFake) *DashboardService {
	var cacheSvc *CacheService
	if cacheRepo != nil {
		cacheSvc = NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	} else {
		cacheSvc = NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	}
	svc := NewDashboardService(schedules, &genProgressRepoFake{}, tables, &dashboardHolidayRepoFake{upcoming: 2}, cacheSvc, time.Minute, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC) }
	return svc
}

func TestDashboardStatsAggregates(t *testing.T) {
	math := strPtr("math")
	science := strPtr("science")
	schedules := &dashboardScheduleRepoFake{
		total:    40,
		missing:  3,
		archived: 5,
		weekRows: []models.ScheduleEntry{
			// Live at 09:20 on the fixed clock.
			{ID: "e1", StudentID: "student-1", ScheduledDate: testMonday, StartTime: "09:00", EndTime: "09:45"},
			{ID: "e2", StudentID: "student-1", ScheduledDate: testMonday.AddDate(0, 0, 2), StartTime: "09:00", EndTime: "09:45"},
		},
	}
	tables := &dashboardTimetableRepoFake{
		timetables: []models.Timetable{{ID: "tt-1", StudentID: "student-1", Status: models.TimetableStatusActive}},
		entries: map[string][]models.TimetableEntry{
			"tt-1": {
				mondayEntry("a", 1, "09:00", "09:45", math),
				mondayEntry("b", 1, "09:00", "09:45", science),
			},
		},
	}
	svc := newDashboardFixture(schedules, tables, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, stats.TotalScheduleEntries)
	assert.Equal(t, 3, stats.MissingTopics)
	assert.Equal(t, 5, stats.ArchivedEntries)
	assert.Equal(t, 2, stats.UpcomingHolidays)
	assert.Equal(t, 1, stats.OpenConflicts)
	assert.Equal(t, 1, stats.EntriesByStatus[string(models.StatusAvailable)])
	assert.Equal(t, 1, stats.EntriesByStatus[string(models.StatusUpcoming)])
}

func TestDashboardStatsServedFromCache(t *testing.T) {
	schedules := &dashboardScheduleRepoFake{total: 10}
	tables := &dashboardTimetableRepoFake{}
	cacheRepo := newCacheRepoFake()
	svc := newDashboardFixture(schedules, tables, cacheRepo)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cacheRepo.sets)
	assert.Equal(t, 1, schedules.listCalls)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.TotalScheduleEntries, second.TotalScheduleEntries)
	// The second read never reached the repositories.
	assert.Equal(t, 1, schedules.listCalls)
	assert.Equal(t, 1, cacheRepo.sets)
}

func TestCacheServiceDisabledIsPassthrough(t *testing.T) {
	svc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)

	var out dto.DashboardStats
	hit, err := svc.Get(context.Background(), "anything", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "anything", out, time.Minute))
	assert.NoError(t, svc.Invalidate(context.Background(), "anything*"))
}
