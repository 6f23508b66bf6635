package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type dashboardScheduleRepository interface {
	CountByFilter(ctx context.Context, filter models.ScheduleEntryFilter) (int, error)
	CountArchived(ctx context.Context) (int, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error)
}

type dashboardProgressRepository interface {
	ListByEntryIDs(ctx context.Context, entryIDs []string) ([]models.ProgressRecord, error)
}

type dashboardTimetableRepository interface {
	ListActive(ctx context.Context) ([]models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
}

type dashboardHolidayRepository interface {
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}

const dashboardStatsCacheKey = "dashboard:stats"

// DashboardService serves read-only projections over the schedule data.
// Stats are cached briefly; every figure is recomputable from the rows.
type DashboardService struct {
	schedules dashboardScheduleRepository
	progress  dashboardProgressRepository
	tables    dashboardTimetableRepository
	holidays  dashboardHolidayRepository
	cache     *CacheService
	cacheTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(
	schedules dashboardScheduleRepository,
	progress dashboardProgressRepository,
	tables dashboardTimetableRepository,
	holidays dashboardHolidayRepository,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		schedules: schedules,
		progress:  progress,
		tables:    tables,
		holidays:  holidays,
		cache:     cache,
		cacheTTL:  cacheTTL,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Stats aggregates counts across the engine's stored state. The by-status
// breakdown covers the current week only; totals cover everything.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	var cached dto.DashboardStats
	if hit, _ := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); hit {
		return &cached, nil
	}

	now := s.now()
	stats := &dto.DashboardStats{
		EntriesByStatus: make(map[string]int),
		GeneratedAt:     now,
	}

	total, err := s.schedules.CountByFilter(ctx, models.ScheduleEntryFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedule entries")
	}
	stats.TotalScheduleEntries = total

	missing := true
	missingCount, err := s.schedules.CountByFilter(ctx, models.ScheduleEntryFilter{MissingTopic: &missing})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count missing topics")
	}
	stats.MissingTopics = missingCount

	archived, err := s.schedules.CountArchived(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count archived entries")
	}
	stats.ArchivedEntries = archived

	upcoming, err := s.holidays.CountUpcoming(ctx, models.DateOnly(now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming holidays")
	}
	stats.UpcomingHolidays = upcoming

	openConflicts, err := s.countOpenConflicts(ctx)
	if err != nil {
		return nil, err
	}
	stats.OpenConflicts = openConflicts

	if err := s.weekStatusBreakdown(ctx, now, stats); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}

	return stats, nil
}

func (s *DashboardService) countOpenConflicts(ctx context.Context) (int, error) {
	timetables, err := s.tables.ListActive(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active timetables")
	}
	total := 0
	for _, timetable := range timetables {
		entries, err := s.tables.ListEntries(ctx, timetable.ID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
		}
		total += len(DetectConflicts(timetable.ID, entries))
	}
	return total, nil
}

func (s *DashboardService) weekStatusBreakdown(ctx context.Context, now time.Time, stats *dto.DashboardStats) error {
	weekStart := models.DateOnly(now).AddDate(0, 0, -(isoWeekday(now) - 1))
	weekEnd := weekStart.AddDate(0, 0, 6)

	entries, err := s.schedules.ListByDateRange(ctx, weekStart, weekEnd)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list current week entries")
	}
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	records, err := s.progress.ListByEntryIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week progress")
	}
	byEntry := make(map[string]*models.ProgressRecord, len(records))
	for i := range records {
		byEntry[records[i].ScheduleEntryID] = &records[i]
	}

	for _, entry := range entries {
		status := EvaluateStatus(entry, byEntry[entry.ID], now)
		stats.EntriesByStatus[string(status)]++
	}
	return nil
}
