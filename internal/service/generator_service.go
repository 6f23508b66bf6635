package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type generatorScheduleRepository interface {
	ListByStudentWeek(ctx context.Context, studentID string, weekStart, weekEnd time.Time) ([]models.ScheduleEntry, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error
}

type generatorProgressRepository interface {
	ListByEntryIDs(ctx context.Context, entryIDs []string) ([]models.ProgressRecord, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, records []models.ProgressRecord) error
	DeleteByEntryIDs(ctx context.Context, exec sqlx.ExtContext, entryIDs []string) error
}

type generatorTimetableRepository interface {
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Timetable, error)
	ListEntriesByDay(ctx context.Context, timetableID string, dayOfWeek int) ([]models.TimetableEntry, error)
}

type generatorTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type schoolDayLookup interface {
	IsSchoolDay(ctx context.Context, date time.Time) (bool, *models.PublicHoliday, error)
	NextSchoolDay(ctx context.Context, start, limit time.Time) (time.Time, bool, error)
}

type topicPlanSource interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.LessonTopic, error)
	CountScheduledPeriods(ctx context.Context, studentID, topicID string) (int, error)
}

// studentWeekLocks serializes generation per (studentId, weekNumber) so two
// concurrent requests cannot race to create duplicate rows. The uniqueness
// constraint on (student_id, scheduled_date, period_number) remains the
// durable guard underneath.
type studentWeekLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newStudentWeekLocks() *studentWeekLocks {
	return &studentWeekLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *studentWeekLocks) acquire(key string) func() {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GeneratorService materializes a student's week of schedule entries from
// the timetable, the holiday calendar, the topic curriculum and the window
// policy. Generation is idempotent: a bare re-run against an existing week
// is a no-op, and forceRegenerate rebuilds the week while preserving entries
// with a genuinely completed submission.
type GeneratorService struct {
	db        *sqlx.DB
	schedules generatorScheduleRepository
	progress  generatorProgressRepository
	tables    generatorTimetableRepository
	terms     generatorTermRepository
	calendar  schoolDayLookup
	topics    topicPlanSource
	windows   *WindowCalculator
	cfg       config.GeneratorConfig
	locks     *studentWeekLocks
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGeneratorService constructs the service.
func NewGeneratorService(
	db *sqlx.DB,
	schedules generatorScheduleRepository,
	progress generatorProgressRepository,
	tables generatorTimetableRepository,
	terms generatorTermRepository,
	calendar schoolDayLookup,
	topics topicPlanSource,
	windows *WindowCalculator,
	cfg config.GeneratorConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WeekLengthDays <= 0 || cfg.WeekLengthDays > 7 {
		cfg.WeekLengthDays = 7
	}
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 4
	}
	return &GeneratorService{
		db:        db,
		schedules: schedules,
		progress:  progress,
		tables:    tables,
		terms:     terms,
		calendar:  calendar,
		topics:    topics,
		windows:   windows,
		cfg:       cfg,
		locks:     newStudentWeekLocks(),
		validator: validate,
		logger:    logger,
	}
}

// GenerateWeek produces the week's schedule entries for one student.
func (s *GeneratorService) GenerateWeek(ctx context.Context, req dto.GenerateWeekRequest) (*dto.GenerateWeekResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}

	release := s.locks.acquire(fmt.Sprintf("%s|%d", req.StudentID, req.WeekNumber))
	defer release()

	_, weekStart, weekEnd, err := s.resolveWeek(ctx, req.TermID, req.WeekNumber)
	if err != nil {
		return nil, err
	}

	result := &dto.GenerateWeekResult{StudentID: req.StudentID, WeekNumber: req.WeekNumber}

	existing, err := s.schedules.ListByStudentWeek(ctx, req.StudentID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing entries")
	}

	var preserved []models.ScheduleEntry
	var doomed []models.ScheduleEntry
	if len(existing) > 0 {
		if !req.ForceRegenerate {
			result.Skipped = true
			result.Preserved = len(existing)
			return result, nil
		}
		preserved, doomed, err = s.partitionExisting(ctx, existing)
		if err != nil {
			return nil, err
		}
	}

	plan, err := s.planWeek(ctx, req.StudentID, req.WeekNumber, weekStart, weekEnd, preserved)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(doomed) > 0 {
		doomedIDs := make([]string, len(doomed))
		for i, entry := range doomed {
			doomedIDs[i] = entry.ID
		}
		if err := s.progress.DeleteByEntryIDs(ctx, tx, doomedIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stale progress")
		}
		if err := s.schedules.DeleteByIDs(ctx, tx, doomedIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete stale entries")
		}
	}

	if len(plan.entries) > 0 {
		if err := s.schedules.BulkInsert(ctx, tx, plan.entries); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert entries")
		}
		records := plan.progressFor(plan.entries)
		if len(records) > 0 {
			if err := s.progress.BulkInsert(ctx, tx, records); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert progress records")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit generation")
	}

	result.Created = len(plan.entries)
	result.Deleted = len(doomed)
	result.Preserved = len(preserved)
	result.HolidayRescheduled = plan.holidayRescheduled
	for _, entry := range plan.entries {
		if !entry.MissingTopic() {
			continue
		}
		item := dto.MissingTopicItem{
			ScheduleEntryID: entry.ID,
			ScheduledDate:   entry.ScheduledDate.Format("2006-01-02"),
			PeriodNumber:    entry.PeriodNumber,
		}
		if entry.SubjectID != nil {
			item.SubjectID = *entry.SubjectID
		}
		result.MissingTopics = append(result.MissingTopics, item)
	}

	s.logger.Info("week generated",
		zap.String("student_id", req.StudentID),
		zap.Int("week", req.WeekNumber),
		zap.Int("created", result.Created),
		zap.Int("deleted", result.Deleted),
		zap.Int("preserved", result.Preserved),
		zap.Bool("holiday_rescheduled", result.HolidayRescheduled))

	return result, nil
}

// PreviewWeek runs the planning pass without persisting anything.
func (s *GeneratorService) PreviewWeek(ctx context.Context, studentID, termID string, weekNumber int) (*dto.WeekPreview, error) {
	if studentID == "" || termID == "" || weekNumber < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId, termId and a positive weekNumber are required")
	}

	_, weekStart, weekEnd, err := s.resolveWeek(ctx, termID, weekNumber)
	if err != nil {
		return nil, err
	}

	plan, err := s.planWeek(ctx, studentID, weekNumber, weekStart, weekEnd, nil)
	if err != nil {
		return nil, err
	}

	return &dto.WeekPreview{
		StudentID:          studentID,
		WeekNumber:         weekNumber,
		Entries:            plan.entries,
		HolidayRescheduled: plan.holidayRescheduled,
		SkippedDates:       plan.skippedDates,
	}, nil
}

// GenerateBatch runs per-student generation across a bounded worker pool.
// One student's failure is captured with its context and never aborts the
// other students' work.
func (s *GeneratorService) GenerateBatch(ctx context.Context, req dto.BatchGenerateRequest) (*dto.BatchGenerateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		out    dto.BatchGenerateResult
		tokens = make(chan struct{}, s.cfg.BatchWorkers)
	)

	for _, studentID := range req.StudentIDs {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			tokens <- struct{}{}
			defer func() { <-tokens }()

			result, err := s.GenerateWeek(ctx, dto.GenerateWeekRequest{
				StudentID:       studentID,
				TermID:          req.TermID,
				WeekNumber:      req.WeekNumber,
				ForceRegenerate: req.ForceRegenerate,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors = append(out.Errors, dto.GenerationError{StudentID: studentID, Reason: err.Error()})
				return
			}
			out.Results = append(out.Results, *result)
		}(studentID)
	}

	wg.Wait()

	s.logger.Info("batch generation finished",
		zap.Int("week", req.WeekNumber),
		zap.Int("succeeded", len(out.Results)),
		zap.Int("failed", len(out.Errors)))

	return &out, nil
}

func (s *GeneratorService) resolveWeek(ctx context.Context, termID string, weekNumber int) (*models.Term, time.Time, time.Time, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if weekNumber > term.WeekCount() {
		return nil, time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("week %d is outside term %s", weekNumber, termID))
	}

	weekStart := term.WeekStart(weekNumber)
	weekEnd := weekStart.AddDate(0, 0, 6)
	return term, weekStart, weekEnd, nil
}

// partitionExisting splits a week's rows into entries that must survive a
// forced rebuild (real completed submission) and entries safe to replace.
func (s *GeneratorService) partitionExisting(ctx context.Context, existing []models.ScheduleEntry) (preserved, doomed []models.ScheduleEntry, err error) {
	ids := make([]string, len(existing))
	for i, entry := range existing {
		ids[i] = entry.ID
	}
	records, err := s.progress.ListByEntryIDs(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress records")
	}
	byEntry := make(map[string]*models.ProgressRecord, len(records))
	for i := range records {
		byEntry[records[i].ScheduleEntryID] = &records[i]
	}

	for _, entry := range existing {
		if byEntry[entry.ID].IsCompleted() {
			preserved = append(preserved, entry)
		} else {
			doomed = append(doomed, entry)
		}
	}
	return preserved, doomed, nil
}

// weekPlan is the in-memory outcome of a planning pass.
type weekPlan struct {
	entries            []models.ScheduleEntry
	windows            map[int]models.AssessmentWindow // index into entries
	assessments        map[int]string
	holidayRescheduled bool
	skippedDates       []string
}

func (p *weekPlan) progressFor(entries []models.ScheduleEntry) []models.ProgressRecord {
	var records []models.ProgressRecord
	for i := range entries {
		assessmentID, ok := p.assessments[i]
		if !ok {
			continue
		}
		window := p.windows[i]
		start := window.WindowStart
		end := window.WindowEnd
		grace := window.GracePeriodEnd
		records = append(records, models.ProgressRecord{
			ScheduleEntryID: entries[i].ID,
			AssessmentID:    &assessmentID,
			WindowStart:     &start,
			WindowEnd:       &end,
			GracePeriodEnd:  &grace,
		})
	}
	return records
}

// topicCursor walks a subject's curriculum, continuing partially scheduled
// multi-period topics before advancing.
type topicCursor struct {
	queue []plannedTopic
}

type plannedTopic struct {
	topic     models.LessonTopic
	remaining int
}

func (c *topicCursor) next() (models.LessonTopic, int, int, bool) {
	for len(c.queue) > 0 && c.queue[0].remaining <= 0 {
		c.queue = c.queue[1:]
	}
	if len(c.queue) == 0 {
		return models.LessonTopic{}, 0, 0, false
	}
	head := &c.queue[0]
	total := head.topic.TotalPeriods
	if total < 1 {
		total = 1
	}
	seq := total - head.remaining + 1
	head.remaining--
	return head.topic, seq, total, true
}

func (s *GeneratorService) buildCursor(ctx context.Context, studentID, subjectID string) (*topicCursor, error) {
	topics, err := s.topics.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject topics")
	}

	cursor := &topicCursor{}
	for _, topic := range topics {
		total := topic.TotalPeriods
		if total < 1 {
			total = 1
		}
		scheduled, err := s.topics.CountScheduledPeriods(ctx, studentID, topic.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduled periods")
		}
		if scheduled >= total {
			continue
		}
		cursor.queue = append(cursor.queue, plannedTopic{topic: topic, remaining: total - scheduled})
	}
	return cursor, nil
}

func (s *GeneratorService) planWeek(ctx context.Context, studentID string, weekNumber int, weekStart, weekEnd time.Time, preserved []models.ScheduleEntry) (*weekPlan, error) {
	timetable, err := s.tables.FindActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s has no active timetable", studentID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	taken := make(map[string]bool, len(preserved))
	for _, entry := range preserved {
		taken[slotKey(entry.ScheduledDate, entry.PeriodNumber)] = true
	}

	plan := &weekPlan{
		windows:     make(map[int]models.AssessmentWindow),
		assessments: make(map[int]string),
	}
	cursors := make(map[string]*topicCursor)

	type rescheduledDay struct {
		templates  []models.TimetableEntry
		targetDate time.Time
	}
	var rescheduled []rescheduledDay

	days := s.cfg.WeekLengthDays
	for offset := 0; offset < days; offset++ {
		date := weekStart.AddDate(0, 0, offset)
		dayOfWeek := isoWeekday(date)

		templates, err := s.tables.ListEntriesByDay(ctx, timetable.ID, dayOfWeek)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
		}
		if len(templates) == 0 {
			continue
		}

		schoolDay, holiday, err := s.calendar.IsSchoolDay(ctx, date)
		if err != nil {
			return nil, err
		}
		if !schoolDay {
			if holiday == nil || !s.cfg.HolidayReschedule {
				plan.skippedDates = append(plan.skippedDates, date.Format("2006-01-02"))
				continue
			}
			next, found, err := s.calendar.NextSchoolDay(ctx, date, weekEnd)
			if err != nil {
				return nil, err
			}
			if !found {
				plan.skippedDates = append(plan.skippedDates, date.Format("2006-01-02"))
				continue
			}
			rescheduled = append(rescheduled, rescheduledDay{templates: templates, targetDate: next})
			plan.holidayRescheduled = true
			continue
		}

		for _, template := range templates {
			if taken[slotKey(date, template.PeriodNumber)] {
				continue
			}
			taken[slotKey(date, template.PeriodNumber)] = true
			if err := s.placeTemplate(ctx, plan, cursors, studentID, weekNumber, template, date, template.PeriodNumber, models.ScheduleSourceGenerated); err != nil {
				return nil, err
			}
		}
	}

	// Moved lessons are placed only after every open day has claimed its own
	// slots, into the earliest free period on the target day, so a reschedule
	// never displaces a regular lesson.
	for _, day := range rescheduled {
		for _, template := range day.templates {
			period := 1
			for taken[slotKey(day.targetDate, period)] {
				period++
			}
			taken[slotKey(day.targetDate, period)] = true
			if err := s.placeTemplate(ctx, plan, cursors, studentID, weekNumber, template, day.targetDate, period, models.ScheduleSourceHolidayReschedule); err != nil {
				return nil, err
			}
		}
	}

	return plan, nil
}

func (s *GeneratorService) placeTemplate(ctx context.Context, plan *weekPlan, cursors map[string]*topicCursor, studentID string, weekNumber int, template models.TimetableEntry, date time.Time, periodNumber int, source models.ScheduleSource) error {
	entry := models.ScheduleEntry{
		StudentID:              studentID,
		TimetableEntryID:       &template.ID,
		ScheduledDate:          date,
		WeekNumber:             weekNumber,
		PeriodNumber:           periodNumber,
		SubjectID:              template.SubjectID,
		StartTime:              template.StartTime,
		EndTime:                template.EndTime,
		PeriodSequence:         1,
		TotalPeriodsInSequence: 1,
		Source:                 source,
	}

	if template.SubjectID != nil && *template.SubjectID != "" {
		cursor, ok := cursors[*template.SubjectID]
		if !ok {
			var err error
			cursor, err = s.buildCursor(ctx, studentID, *template.SubjectID)
			if err != nil {
				return err
			}
			cursors[*template.SubjectID] = cursor
		}

		if topic, seq, total, ok := cursor.next(); ok {
			topicID := topic.ID
			entry.LessonTopicID = &topicID
			entry.PeriodSequence = seq
			entry.TotalPeriodsInSequence = total

			needsMissingAssessment := topic.RequiresCustomAssessment && seq > 1
			if topic.HasAssessment() && !needsMissingAssessment {
				window, err := s.windows.Compute(entry)
				if err != nil {
					return err
				}
				idx := len(plan.entries)
				plan.windows[idx] = window
				plan.assessments[idx] = *topic.AssessmentID
			}
		}
	}

	plan.entries = append(plan.entries, entry)
	return nil
}

func slotKey(date time.Time, period int) string {
	return fmt.Sprintf("%s|%d", models.DateOnly(date).Format("2006-01-02"), period)
}

// isoWeekday maps time.Weekday to the stored 1=Monday..7=Sunday convention.
func isoWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
