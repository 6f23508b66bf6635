package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type topicScheduleRepository interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error)
	AssignTopic(ctx context.Context, exec sqlx.ExtContext, entryID, topicID string, periodSequence, totalPeriods int) error
}

type topicCatalogRepository interface {
	FindByID(ctx context.Context, id string) (*models.LessonTopic, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.LessonTopic, error)
	MaxAssignedOrderIndex(ctx context.Context, studentID, subjectID string) (int, error)
	CountScheduledPeriods(ctx context.Context, studentID, topicID string) (int, error)
}

type topicProgressRepository interface {
	FindByEntryID(ctx context.Context, entryID string) (*models.ProgressRecord, error)
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, records []models.ProgressRecord) error
	SetWindow(ctx context.Context, exec sqlx.ExtContext, id string, window models.AssessmentWindow) error
}

// TopicService attaches lesson topics to schedule entries, manually or via
// suggestion scoring. Suggestions are advisory; nothing is committed without
// an explicit assign or quick-assign call.
type TopicService struct {
	db        *sqlx.DB
	schedules topicScheduleRepository
	topics    topicCatalogRepository
	progress  topicProgressRepository
	windows   *WindowCalculator
	policy    config.SuggestionsConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTopicService constructs the service.
func NewTopicService(db *sqlx.DB, schedules topicScheduleRepository, topics topicCatalogRepository, progress topicProgressRepository, windows *WindowCalculator, policy config.SuggestionsConfig, validate *validator.Validate, logger *zap.Logger) *TopicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{db: db, schedules: schedules, topics: topics, progress: progress, windows: windows, policy: policy, validator: validate, logger: logger}
}

// ScoreTitle grades how well a topic title matches a query. Exact match is
// 1.0, substring containment 0.8, otherwise the shared-word proportion.
func ScoreTitle(query, title string) float64 {
	q := normalizeTitle(query)
	t := normalizeTitle(title)
	if q == "" || t == "" {
		return 0
	}
	if q == t {
		return 1.0
	}
	if strings.Contains(t, q) || strings.Contains(q, t) {
		return 0.8
	}

	qWords := strings.Fields(q)
	tWords := strings.Fields(t)
	seen := make(map[string]bool, len(qWords))
	for _, w := range qWords {
		seen[w] = true
	}
	shared := 0
	for _, w := range tWords {
		if seen[w] {
			shared++
		}
	}
	longest := len(qWords)
	if len(tWords) > longest {
		longest = len(tWords)
	}
	if longest == 0 {
		return 0
	}
	return float64(shared) / float64(longest)
}

func normalizeTitle(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), " ")
}

// Suggestions scores the entry's subject topics against the query. Without a
// query, candidates are ranked by curriculum position: the next unassigned
// topic for this student scores highest, later topics decay with distance.
// Scores below the configured floor are omitted.
func (s *TopicService) Suggestions(ctx context.Context, entryID, query string) (*dto.SuggestionsResponse, error) {
	entry, err := s.loadAssignableEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.SubjectID == nil || *entry.SubjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry has no mapped subject to suggest topics for")
	}

	candidates, err := s.topics.ListBySubject(ctx, *entry.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject topics")
	}

	var suggestions []models.TopicSuggestion
	if query != "" {
		for _, topic := range candidates {
			score := ScoreTitle(query, topic.Title)
			if score < s.policy.ScoreFloor {
				continue
			}
			suggestions = append(suggestions, models.TopicSuggestion{Topic: topic, Score: score})
		}
	} else {
		maxAssigned, err := s.topics.MaxAssignedOrderIndex(ctx, entry.StudentID, *entry.SubjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect assigned topics")
		}
		for _, topic := range candidates {
			if topic.OrderIndex <= maxAssigned {
				continue
			}
			distance := topic.OrderIndex - maxAssigned
			score := 1.0 / float64(distance)
			if score < s.policy.ScoreFloor {
				continue
			}
			suggestions = append(suggestions, models.TopicSuggestion{Topic: topic, Score: score})
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Topic.OrderIndex < suggestions[j].Topic.OrderIndex
	})

	return &dto.SuggestionsResponse{ScheduleEntryID: entryID, Suggestions: suggestions}, nil
}

// Assign attaches one topic to one entry, continuing the topic's period
// sequence if earlier occurrences are already scheduled.
func (s *TopicService) Assign(ctx context.Context, req dto.AssignTopicRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.assignOne(ctx, tx, req.ScheduleEntryID, req.TopicID, make(map[string]int)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit assignment")
	}

	entry, err := s.schedules.FindByID(ctx, req.ScheduleEntryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload entry")
	}
	return entry, nil
}

// BulkAssign applies one topic to many entries inside a single transaction;
// any invalid entry fails the whole batch and nothing is mutated.
func (s *TopicService) BulkAssign(ctx context.Context, req dto.BulkAssignTopicRequest) (*dto.BulkAssignResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	pending := make(map[string]int)
	for _, entryID := range req.ScheduleEntryIDs {
		if err := s.assignOne(ctx, tx, entryID, req.TopicID, pending); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bulk assignment")
	}

	s.logger.Info("bulk topic assignment applied",
		zap.String("topic_id", req.TopicID),
		zap.Int("entries", len(req.ScheduleEntryIDs)))

	return &dto.BulkAssignResponse{TopicID: req.TopicID, Assigned: len(req.ScheduleEntryIDs)}, nil
}

// QuickAssign commits the top suggestion for one entry. This is the only
// path by which a suggestion becomes an assignment without a chosen topic.
func (s *TopicService) QuickAssign(ctx context.Context, req dto.QuickAssignRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quick-assign payload")
	}

	suggestions, err := s.Suggestions(ctx, req.ScheduleEntryID, "")
	if err != nil {
		return nil, err
	}
	if len(suggestions.Suggestions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no suggestion clears the score floor for this entry")
	}

	return s.Assign(ctx, dto.AssignTopicRequest{
		ScheduleEntryID: req.ScheduleEntryID,
		TopicID:         suggestions.Suggestions[0].Topic.ID,
	})
}

// ListPending returns entries still awaiting a topic assignment.
func (s *TopicService) ListPending(ctx context.Context, query dto.PendingTopicsQuery) ([]models.ScheduleEntry, *models.Pagination, error) {
	missing := true
	filter := models.ScheduleEntryFilter{
		StudentID:    query.StudentID,
		SubjectID:    query.SubjectID,
		WeekNumber:   query.WeekNumber,
		MissingTopic: &missing,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	entries, total, err := s.schedules.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending assignments")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return entries, pagination, nil
}

// assignOne places one entry into the topic's period sequence and applies
// the assignment through the given transaction. Rows written earlier in the
// same transaction are invisible to the committed-state count, so callers
// pass a tally of in-transaction assignments keyed by student and topic.
func (s *TopicService) assignOne(ctx context.Context, tx sqlx.ExtContext, entryID, topicID string, pending map[string]int) error {
	entry, err := s.loadAssignableEntry(ctx, entryID)
	if err != nil {
		return err
	}

	topic, err := s.topics.FindByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson topic not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topic")
	}
	if entry.SubjectID != nil && *entry.SubjectID != "" && topic.SubjectID != *entry.SubjectID {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("topic %s belongs to a different subject than entry %s", topicID, entryID))
	}

	scheduled, err := s.topics.CountScheduledPeriods(ctx, entry.StudentID, topic.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scheduled periods")
	}
	key := entry.StudentID + "|" + topic.ID
	seq, total := SequencePlacement(*topic, scheduled+pending[key])

	if err := s.schedules.AssignTopic(ctx, tx, entryID, topicID, seq, total); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign topic")
	}
	pending[key]++

	return s.attachWindow(ctx, tx, entry, *topic, seq)
}

// attachWindow gives a newly assigned assessed entry its availability
// window when generation did not create one.
func (s *TopicService) attachWindow(ctx context.Context, tx sqlx.ExtContext, entry *models.ScheduleEntry, topic models.LessonTopic, seq int) error {
	if s.windows == nil || !topic.HasAssessment() {
		return nil
	}
	if topic.RequiresCustomAssessment && seq > 1 {
		return nil
	}

	window, err := s.windows.Compute(*entry)
	if err != nil {
		return err
	}

	record, err := s.progress.FindByEntryID(ctx, entry.ID)
	switch {
	case err == nil:
		if record.HasWindow() {
			return nil
		}
		if err := s.progress.SetWindow(ctx, tx, record.ID, window); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set assessment window")
		}
	case errors.Is(err, sql.ErrNoRows):
		start := window.WindowStart
		end := window.WindowEnd
		grace := window.GracePeriodEnd
		records := []models.ProgressRecord{{
			ScheduleEntryID: entry.ID,
			AssessmentID:    topic.AssessmentID,
			WindowStart:     &start,
			WindowEnd:       &end,
			GracePeriodEnd:  &grace,
		}}
		if err := s.progress.BulkInsert(ctx, tx, records); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create progress record")
		}
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress record")
	}
	return nil
}

func (s *TopicService) loadAssignableEntry(ctx context.Context, entryID string) (*models.ScheduleEntry, error) {
	entry, err := s.schedules.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if entry.ArchivedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "archived entries cannot be modified")
	}
	return entry, nil
}
