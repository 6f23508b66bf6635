package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// TopicRepository provides read access to curriculum lesson topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new topic repository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

const topicColumns = `id, subject_id, title, order_index, total_periods, requires_custom_assessment, assessment_id, created_at, updated_at`

// FindByID loads a topic by id.
func (r *TopicRepository) FindByID(ctx context.Context, id string) (*models.LessonTopic, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_topics WHERE id = $1`, topicColumns)
	var topic models.LessonTopic
	if err := r.db.GetContext(ctx, &topic, query, id); err != nil {
		return nil, err
	}
	return &topic, nil
}

// ListBySubject returns a subject's topics in curriculum order.
func (r *TopicRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.LessonTopic, error) {
	query := fmt.Sprintf(`SELECT %s FROM lesson_topics WHERE subject_id = $1 ORDER BY order_index ASC`, topicColumns)
	var topics []models.LessonTopic
	if err := r.db.SelectContext(ctx, &topics, query, subjectID); err != nil {
		return nil, fmt.Errorf("list topics by subject: %w", err)
	}
	return topics, nil
}

// ListByIDs returns topics for a set of ids.
func (r *TopicRepository) ListByIDs(ctx context.Context, ids []string) ([]models.LessonTopic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM lesson_topics WHERE id IN (?)`, topicColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build list topics: %w", err)
	}
	query = r.db.Rebind(query)
	var topics []models.LessonTopic
	if err := r.db.SelectContext(ctx, &topics, query, args...); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// MaxAssignedOrderIndex returns the highest curriculum order index already
// scheduled for a student and subject, or -1 when nothing is assigned yet.
func (r *TopicRepository) MaxAssignedOrderIndex(ctx context.Context, studentID, subjectID string) (int, error) {
	const query = `SELECT COALESCE(MAX(t.order_index), -1) FROM schedule_entries e JOIN lesson_topics t ON t.id = e.lesson_topic_id WHERE e.student_id = $1 AND e.subject_id = $2 AND e.archived_at IS NULL`
	var max int
	if err := r.db.GetContext(ctx, &max, query, studentID, subjectID); err != nil {
		return 0, fmt.Errorf("max assigned order index: %w", err)
	}
	return max, nil
}

// CountScheduledPeriods reports how many non-archived entries already carry
// the topic for a student. Used to continue a multi-period sequence.
func (r *TopicRepository) CountScheduledPeriods(ctx context.Context, studentID, topicID string) (int, error) {
	const query = `SELECT COUNT(*) FROM schedule_entries WHERE student_id = $1 AND lesson_topic_id = $2 AND archived_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, topicID); err != nil {
		return 0, fmt.Errorf("count scheduled periods: %w", err)
	}
	return count, nil
}
