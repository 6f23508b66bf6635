package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type scheduleReadRepository interface {
	List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error)
	ListByTopicAndStudent(ctx context.Context, studentID, topicID string) ([]models.ScheduleEntry, error)
}

type progressReadRepository interface {
	ListByEntryIDs(ctx context.Context, entryIDs []string) ([]models.ProgressRecord, error)
}

type scheduleTopicRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.LessonTopic, error)
}

type scheduleTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// ScheduleService is the read path over generated entries. Every response
// recomputes status from stored fields and the current clock; a stored
// status is never served across a time boundary.
type ScheduleService struct {
	schedules scheduleReadRepository
	progress  progressReadRepository
	topics    scheduleTopicRepository
	terms     scheduleTermRepository
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(schedules scheduleReadRepository, progress progressReadRepository, topics scheduleTopicRepository, terms scheduleTermRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		progress:  progress,
		topics:    topics,
		terms:     terms,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// List returns a student's entries for a week or date range, each carrying
// its live-derived status and, for multi-period topics, its dependency state.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]dto.ScheduleEntryView, *models.Pagination, error) {
	filter := models.ScheduleEntryFilter{
		StudentID: query.StudentID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	if query.WeekNumber > 0 && query.TermID != "" {
		term, err := s.terms.FindByID(ctx, query.TermID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
		}
		from := term.WeekStart(query.WeekNumber)
		to := from.AddDate(0, 0, 6)
		filter.DateFrom = &from
		filter.DateTo = &to
	} else {
		if query.DateFrom != "" {
			from, err := time.Parse("2006-01-02", query.DateFrom)
			if err != nil {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD")
			}
			filter.DateFrom = &from
		}
		if query.DateTo != "" {
			to, err := time.Parse("2006-01-02", query.DateTo)
			if err != nil {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD")
			}
			filter.DateTo = &to
		}
	}

	entries, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}

	views, err := s.decorate(ctx, entries)
	if err != nil {
		return nil, nil, err
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return views, pagination, nil
}

// decorate attaches progress, live status and dependency state to entries.
func (s *ScheduleService) decorate(ctx context.Context, entries []models.ScheduleEntry) ([]dto.ScheduleEntryView, error) {
	now := s.now()

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	records, err := s.progress.ListByEntryIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress records")
	}
	byEntry := make(map[string]*models.ProgressRecord, len(records))
	for i := range records {
		byEntry[records[i].ScheduleEntryID] = &records[i]
	}

	states, err := s.sequenceStates(ctx, entries, now)
	if err != nil {
		return nil, err
	}

	views := make([]dto.ScheduleEntryView, len(entries))
	for i, entry := range entries {
		record := byEntry[entry.ID]
		view := dto.ScheduleEntryView{
			ScheduleEntry: entry,
			Status:        EvaluateStatus(entry, record, now),
			Progress:      record,
		}
		if state, ok := states[entry.ID]; ok {
			periodState := state
			view.PeriodState = &periodState
		}
		views[i] = view
	}
	return views, nil
}

// sequenceStates resolves the dependency chain for every multi-period topic
// appearing in the page, over the topic's full occurrence list rather than
// just the page slice.
func (s *ScheduleService) sequenceStates(ctx context.Context, entries []models.ScheduleEntry, now time.Time) (map[string]models.PeriodState, error) {
	type group struct{ studentID, topicID string }
	groups := make(map[group]bool)
	for _, entry := range entries {
		if entry.TotalPeriodsInSequence > 1 && entry.LessonTopicID != nil {
			groups[group{entry.StudentID, *entry.LessonTopicID}] = true
		}
	}
	if len(groups) == 0 {
		return map[string]models.PeriodState{}, nil
	}

	topicIDs := make([]string, 0, len(groups))
	for g := range groups {
		topicIDs = append(topicIDs, g.topicID)
	}
	topics, err := s.topics.ListByIDs(ctx, topicIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topics")
	}
	topicByID := make(map[string]models.LessonTopic, len(topics))
	for _, topic := range topics {
		topicByID[topic.ID] = topic
	}

	states := make(map[string]models.PeriodState)
	for g := range groups {
		topic, ok := topicByID[g.topicID]
		if !ok {
			continue
		}
		occurrences, err := s.schedules.ListByTopicAndStudent(ctx, g.studentID, g.topicID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic occurrences")
		}
		occurrenceIDs := make([]string, len(occurrences))
		for i, occurrence := range occurrences {
			occurrenceIDs[i] = occurrence.ID
		}
		records, err := s.progress.ListByEntryIDs(ctx, occurrenceIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence progress")
		}
		byEntry := make(map[string]*models.ProgressRecord, len(records))
		for i := range records {
			byEntry[records[i].ScheduleEntryID] = &records[i]
		}
		for id, state := range ResolveSequence(topic, occurrences, byEntry, now) {
			states[id] = state
		}
	}
	return states, nil
}
