package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type genScheduleRepoFake struct {
	existing   []models.ScheduleEntry
	inserted   []models.ScheduleEntry
	deletedIDs []string
	nextID     int
}

func (f *genScheduleRepoFake) ListByStudentWeek(_ context.Context, studentID string, weekStart, weekEnd time.Time) ([]models.ScheduleEntry, error) {
	var out []models.ScheduleEntry
	for _, e := range f.existing {
		day := models.DateOnly(e.ScheduledDate)
		if e.StudentID == studentID && !day.Before(weekStart) && day.Before(weekEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *genScheduleRepoFake) BulkInsert(_ context.Context, _ sqlx.ExtContext, entries []models.ScheduleEntry) error {
	for i := range entries {
		if entries[i].ID == "" {
			f.nextID++
			entries[i].ID = fmt.Sprintf("gen-%d", f.nextID)
		}
		f.inserted = append(f.inserted, entries[i])
	}
	return nil
}

func (f *genScheduleRepoFake) DeleteByIDs(_ context.Context, _ sqlx.ExtContext, ids []string) error {
	f.deletedIDs = append(f.deletedIDs, ids...)
	return nil
}

type genProgressRepoFake struct {
	byEntry         map[string]models.ProgressRecord
	inserted        []models.ProgressRecord
	deletedEntryIDs []string
}

func (f *genProgressRepoFake) ListByEntryIDs(_ context.Context, entryIDs []string) ([]models.ProgressRecord, error) {
	var out []models.ProgressRecord
	for _, id := range entryIDs {
		if r, ok := f.byEntry[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *genProgressRepoFake) BulkInsert(_ context.Context, _ sqlx.ExtContext, records []models.ProgressRecord) error {
	f.inserted = append(f.inserted, records...)
	return nil
}

func (f *genProgressRepoFake) DeleteByEntryIDs(_ context.Context, _ sqlx.ExtContext, entryIDs []string) error {
	f.deletedEntryIDs = append(f.deletedEntryIDs, entryIDs...)
	return nil
}

type genTimetableRepoFake struct {
	byStudent map[string]models.Timetable
	byDay     map[int][]models.TimetableEntry
}

func (f *genTimetableRepoFake) FindActiveByStudent(_ context.Context, studentID string) (*models.Timetable, error) {
	tt, ok := f.byStudent[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &tt, nil
}

func (f *genTimetableRepoFake) ListEntriesByDay(_ context.Context, _ string, dayOfWeek int) ([]models.TimetableEntry, error) {
	return f.byDay[dayOfWeek], nil
}

type generatorFixture struct {
	svc       *GeneratorService
	mock      sqlmock.Sqlmock
	schedules *genScheduleRepoFake
	progress  *genProgressRepoFake
	tables    *genTimetableRepoFake
	holidays  *holidayRepoFake
	topics    *topicCatalogRepoFake
}

func newGeneratorFixture(t *testing.T, cfg config.GeneratorConfig, holidays ...models.PublicHoliday) *generatorFixture {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	db := sqlx.NewDb(rawDB, "sqlmock")

	schedules := &genScheduleRepoFake{}
	progress := &genProgressRepoFake{byEntry: make(map[string]models.ProgressRecord)}
	tables := &genTimetableRepoFake{
		byStudent: map[string]models.Timetable{
			"student-1": {ID: "tt-1", StudentID: "student-1", Status: models.TimetableStatusActive},
		},
		byDay: make(map[int][]models.TimetableEntry),
	}
	holidayRepo := newHolidayRepoFake(holidays...)
	terms := &termRepoFake{terms: map[string]models.Term{
		"term-1": {
			ID:        "term-1",
			StartDate: testMonday,
			EndDate:   testMonday.AddDate(0, 0, 7*12-1),
			IsActive:  true,
		},
	}}
	calendar := NewCalendarService(holidayRepo, terms, nil, zap.NewNop())
	topics := &topicCatalogRepoFake{
		topics:      make(map[string]models.LessonTopic),
		bySubject:   make(map[string][]models.LessonTopic),
		maxAssigned: make(map[string]int),
		scheduled:   make(map[string]int),
	}
	windows := NewWindowCalculator(config.AssessmentConfig{
		Duration:    30 * time.Minute,
		GracePeriod: 15 * time.Minute,
	})

	svc := NewGeneratorService(db, schedules, progress, tables, terms, calendar, topics, windows, cfg, nil, zap.NewNop())
	return &generatorFixture{
		svc:       svc,
		mock:      mock,
		schedules: schedules,
		progress:  progress,
		tables:    tables,
		holidays:  holidayRepo,
		topics:    topics,
	}
}

func templateEntry(id string, day, period int, start, end string, subject string) models.TimetableEntry {
	e := models.TimetableEntry{
		ID:           id,
		TimetableID:  "tt-1",
		DayOfWeek:    day,
		PeriodNumber: period,
		StartTime:    start,
		EndTime:      end,
	}
	if subject != "" {
		e.SubjectID = &subject
	}
	return e
}

func TestGenerateWeekFreshWeek(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7, BatchWorkers: 2})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", "math"),
		templateEntry("tpl-2", 1, 2, "10:00", "10:45", "science"),
	}
	assessed := models.LessonTopic{
		ID: "topic-math", SubjectID: "math", Title: "Quadratic Equations",
		OrderIndex: 0, TotalPeriods: 1, AssessmentID: strPtr("assess-1"),
	}
	fix.topics.bySubject["math"] = []models.LessonTopic{assessed}
	fix.topics.bySubject["science"] = []models.LessonTopic{
		{ID: "topic-sci", SubjectID: "science", Title: "Cells", OrderIndex: 0, TotalPeriods: 1},
	}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Deleted)
	assert.False(t, result.Skipped)
	assert.Empty(t, result.MissingTopics)

	require.Len(t, fix.schedules.inserted, 2)
	first := fix.schedules.inserted[0]
	assert.Equal(t, testMonday, first.ScheduledDate)
	assert.Equal(t, models.ScheduleSourceGenerated, first.Source)
	require.NotNil(t, first.LessonTopicID)
	assert.Equal(t, "topic-math", *first.LessonTopicID)

	// Only the assessed topic yields a progress record, with its window
	// anchored at the period's end.
	require.Len(t, fix.progress.inserted, 1)
	record := fix.progress.inserted[0]
	assert.Equal(t, "assess-1", *record.AssessmentID)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC), record.WindowStart.Time())
	assert.NoError(t, fix.mock.ExpectationsWereMet())
}

func TestGenerateWeekIdempotentWithoutForce(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7})
	fix.schedules.existing = []models.ScheduleEntry{
		{ID: "e1", StudentID: "student-1", ScheduledDate: testMonday, PeriodNumber: 1},
	}

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 1, result.Preserved)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, fix.schedules.inserted)
	assert.Empty(t, fix.schedules.deletedIDs)
}

func TestGenerateWeekForcePreservesCompleted(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", ""),
		templateEntry("tpl-2", 1, 2, "10:00", "10:45", ""),
	}
	fix.schedules.existing = []models.ScheduleEntry{
		{ID: "e1", StudentID: "student-1", ScheduledDate: testMonday, PeriodNumber: 1},
		{ID: "e2", StudentID: "student-1", ScheduledDate: testMonday, PeriodNumber: 2},
	}
	fix.progress.byEntry["e1"] = models.ProgressRecord{
		ScheduleEntryID: "e1",
		CompletedAt:     instantPtr(time.Date(2026, 3, 2, 9, 40, 0, 0, time.UTC)),
		SubmissionID:    strPtr("sub-1"),
	}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:       "student-1",
		TermID:          "term-1",
		WeekNumber:      1,
		ForceRegenerate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Preserved)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Created)

	assert.Equal(t, []string{"e2"}, fix.schedules.deletedIDs)
	assert.Equal(t, []string{"e2"}, fix.progress.deletedEntryIDs)
	require.Len(t, fix.schedules.inserted, 1)
	assert.Equal(t, 2, fix.schedules.inserted[0].PeriodNumber)
}

func TestGenerateWeekHolidayReschedule(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7, HolidayReschedule: true},
		models.PublicHoliday{ID: "h1", Date: testMonday, Name: "Founders Day", IsSchoolClosed: true})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", ""),
	}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, result.HolidayRescheduled)
	require.Len(t, fix.schedules.inserted, 1)
	moved := fix.schedules.inserted[0]
	assert.Equal(t, testMonday.AddDate(0, 0, 1), moved.ScheduledDate)
	assert.Equal(t, models.ScheduleSourceHolidayReschedule, moved.Source)
}

func TestGenerateWeekHolidayRescheduleKeepsTargetDayLessons(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7, HolidayReschedule: true},
		models.PublicHoliday{ID: "h1", Date: testMonday, Name: "Founders Day", IsSchoolClosed: true})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-mon", 1, 1, "09:00", "09:45", ""),
	}
	fix.tables.byDay[2] = []models.TimetableEntry{
		templateEntry("tpl-tue", 2, 1, "09:00", "09:45", ""),
	}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	assert.True(t, result.HolidayRescheduled)
	assert.Equal(t, 2, result.Created)

	tuesday := testMonday.AddDate(0, 0, 1)
	byTemplate := make(map[string]models.ScheduleEntry, len(fix.schedules.inserted))
	for _, entry := range fix.schedules.inserted {
		require.NotNil(t, entry.TimetableEntryID)
		byTemplate[*entry.TimetableEntryID] = entry
	}

	// Tuesday's own lesson keeps its slot; the moved lesson takes the next
	// free period behind it.
	own, ok := byTemplate["tpl-tue"]
	require.True(t, ok)
	assert.Equal(t, tuesday, own.ScheduledDate)
	assert.Equal(t, 1, own.PeriodNumber)
	assert.Equal(t, models.ScheduleSourceGenerated, own.Source)

	moved, ok := byTemplate["tpl-mon"]
	require.True(t, ok)
	assert.Equal(t, tuesday, moved.ScheduledDate)
	assert.Equal(t, 2, moved.PeriodNumber)
	assert.Equal(t, models.ScheduleSourceHolidayReschedule, moved.Source)
}

func TestPreviewWeekSkipsClosedHolidayWithoutReschedule(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7, HolidayReschedule: false},
		models.PublicHoliday{ID: "h1", Date: testMonday, Name: "Founders Day", IsSchoolClosed: true})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", ""),
	}

	preview, err := fix.svc.PreviewWeek(context.Background(), "student-1", "term-1", 1)
	require.NoError(t, err)
	assert.Empty(t, preview.Entries)
	assert.Equal(t, []string{testMonday.Format("2006-01-02")}, preview.SkippedDates)
	assert.Empty(t, fix.schedules.inserted)
}

func TestGenerateWeekMultiPeriodSequencingAndAssessmentGating(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", "math"),
	}
	fix.tables.byDay[3] = []models.TimetableEntry{
		templateEntry("tpl-2", 3, 1, "09:00", "09:45", "math"),
	}
	fix.topics.bySubject["math"] = []models.LessonTopic{{
		ID: "topic-math", SubjectID: "math", Title: "Forces",
		OrderIndex: 0, TotalPeriods: 2,
		RequiresCustomAssessment: true,
		AssessmentID:             strPtr("assess-1"),
	}}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	require.Len(t, fix.schedules.inserted, 2)
	ordered := append([]models.ScheduleEntry(nil), fix.schedules.inserted...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ScheduledDate.Before(ordered[j].ScheduledDate) })
	assert.Equal(t, 1, ordered[0].PeriodSequence)
	assert.Equal(t, 2, ordered[1].PeriodSequence)
	assert.Equal(t, 2, ordered[0].TotalPeriodsInSequence)

	// The second occurrence needs a teacher-authored assessment, so only the
	// first period gets a window up front.
	require.Len(t, fix.progress.inserted, 1)
	assert.Equal(t, ordered[0].ID, fix.progress.inserted[0].ScheduleEntryID)
}

func TestGenerateWeekNoActiveTimetable(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7})

	_, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-unknown",
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGenerateWeekRejectsWeekOutsideTerm(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7})

	_, err := fix.svc.GenerateWeek(context.Background(), dto.GenerateWeekRequest{
		StudentID:  "student-1",
		TermID:     "term-1",
		WeekNumber: 99,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateBatchCollectsPerStudentFailures(t *testing.T) {
	fix := newGeneratorFixture(t, config.GeneratorConfig{WeekLengthDays: 7, BatchWorkers: 2})
	fix.tables.byDay[1] = []models.TimetableEntry{
		templateEntry("tpl-1", 1, 1, "09:00", "09:45", ""),
	}

	fix.mock.ExpectBegin()
	fix.mock.ExpectCommit()

	result, err := fix.svc.GenerateBatch(context.Background(), dto.BatchGenerateRequest{
		StudentIDs: []string{"student-1", "student-without-timetable"},
		TermID:     "term-1",
		WeekNumber: 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "student-1", result.Results[0].StudentID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "student-without-timetable", result.Errors[0].StudentID)
}
