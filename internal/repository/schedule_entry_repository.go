package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// ScheduleEntryRepository persists concrete dated schedule entries.
type ScheduleEntryRepository struct {
	db *sqlx.DB
}

// NewScheduleEntryRepository creates a new schedule entry repository.
func NewScheduleEntryRepository(db *sqlx.DB) *ScheduleEntryRepository {
	return &ScheduleEntryRepository{db: db}
}

const scheduleEntryColumns = `id, student_id, timetable_entry_id, scheduled_date, week_number, period_number, subject_id, start_time, end_time, lesson_topic_id, period_sequence, total_periods_in_sequence, source, archived_at, created_at, updated_at`

// FindByID loads an entry by id.
func (r *ScheduleEntryRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE id = $1`, scheduleEntryColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByStudentWeek returns a student's non-archived entries inside a date range.
func (r *ScheduleEntryRepository) ListByStudentWeek(ctx context.Context, studentID string, weekStart, weekEnd time.Time) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE student_id = $1 AND scheduled_date >= $2 AND scheduled_date < $3 AND archived_at IS NULL ORDER BY scheduled_date ASC, period_number ASC`, scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, weekStart, weekEnd); err != nil {
		return nil, fmt.Errorf("list schedule entries by week: %w", err)
	}
	return entries, nil
}

// List returns entries matching the filter with pagination.
func (r *ScheduleEntryRepository) List(ctx context.Context, filter models.ScheduleEntryFilter) ([]models.ScheduleEntry, int, error) {
	base := "FROM schedule_entries WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.WeekNumber > 0 {
		conditions = append(conditions, fmt.Sprintf("week_number = $%d", len(args)+1))
		args = append(args, filter.WeekNumber)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.MissingTopic != nil {
		if *filter.MissingTopic {
			conditions = append(conditions, "lesson_topic_id IS NULL")
		} else {
			conditions = append(conditions, "lesson_topic_id IS NOT NULL")
		}
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived_at IS NULL")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_date ASC, period_number ASC LIMIT %d OFFSET %d", scheduleEntryColumns, base, size, offset)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}

	return entries, total, nil
}

// ListByTopicAndStudent returns the ordered occurrences of one topic for a
// student, used by the multi-period dependency resolver.
func (r *ScheduleEntryRepository) ListByTopicAndStudent(ctx context.Context, studentID, topicID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE student_id = $1 AND lesson_topic_id = $2 AND archived_at IS NULL ORDER BY period_sequence ASC, scheduled_date ASC`, scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, topicID); err != nil {
		return nil, fmt.Errorf("list schedule entries by topic: %w", err)
	}
	return entries, nil
}

// BulkInsert stores entries within the given executor.
func (r *ScheduleEntryRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.ScheduleEntry) error {
	now := time.Now().UTC()
	for i := range entries {
		payload := entries[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		const query = `INSERT INTO schedule_entries (id, student_id, timetable_entry_id, scheduled_date, week_number, period_number, subject_id, start_time, end_time, lesson_topic_id, period_sequence, total_periods_in_sequence, source, archived_at, created_at, updated_at) VALUES (:id, :student_id, :timetable_entry_id, :scheduled_date, :week_number, :period_number, :subject_id, :start_time, :end_time, :lesson_topic_id, :period_sequence, :total_periods_in_sequence, :source, :archived_at, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, &payload); err != nil {
			return fmt.Errorf("bulk insert schedule entry: %w", err)
		}
		entries[i] = payload
	}
	return nil
}

// DeleteByIDs removes entries within the given executor.
func (r *ScheduleEntryRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM schedule_entries WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build delete schedule entries: %w", err)
	}
	query = exec.Rebind(query)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete schedule entries: %w", err)
	}
	return nil
}

// AssignTopic sets the lesson topic and sequence fields for one entry.
func (r *ScheduleEntryRepository) AssignTopic(ctx context.Context, exec sqlx.ExtContext, entryID, topicID string, periodSequence, totalPeriods int) error {
	const query = `UPDATE schedule_entries SET lesson_topic_id = $1, period_sequence = $2, total_periods_in_sequence = $3, updated_at = $4 WHERE id = $5 AND archived_at IS NULL`
	result, err := exec.ExecContext(ctx, query, topicID, periodSequence, totalPeriods, time.Now().UTC(), entryID)
	if err != nil {
		return fmt.Errorf("assign topic: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("schedule entry %s not found", entryID)
	}
	return nil
}

// ArchiveByIDs soft-archives entries by stamping archived_at.
func (r *ScheduleEntryRepository) ArchiveByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string, archivedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE schedule_entries SET archived_at = ?, updated_at = ? WHERE id IN (?)`, archivedAt, archivedAt, ids)
	if err != nil {
		return fmt.Errorf("build archive schedule entries: %w", err)
	}
	query = exec.Rebind(query)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("archive schedule entries: %w", err)
	}
	return nil
}

// ListDuplicates returns non-archived rows that share a slot with an
// earlier row, ordered so the kept candidate comes first per group.
func (r *ScheduleEntryRepository) ListDuplicates(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries e WHERE archived_at IS NULL AND EXISTS (SELECT 1 FROM schedule_entries d WHERE d.student_id = e.student_id AND d.scheduled_date = e.scheduled_date AND d.period_number = e.period_number AND d.archived_at IS NULL AND d.id <> e.id) ORDER BY student_id, scheduled_date, period_number, created_at ASC`, scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list duplicate schedule entries: %w", err)
	}
	return entries, nil
}

// ListElapsedUnarchived returns entries from weeks that fully elapsed
// before the cutoff and were never archived.
func (r *ScheduleEntryRepository) ListElapsedUnarchived(ctx context.Context, cutoff time.Time) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE archived_at IS NULL AND scheduled_date < $1 ORDER BY student_id, scheduled_date ASC`, scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, cutoff); err != nil {
		return nil, fmt.Errorf("list elapsed schedule entries: %w", err)
	}
	return entries, nil
}

// ListByDateRange returns all non-archived entries inside [from, to],
// without pagination. Used by dashboard aggregation over short ranges.
func (r *ScheduleEntryRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_entries WHERE scheduled_date >= $1 AND scheduled_date <= $2 AND archived_at IS NULL ORDER BY scheduled_date ASC, period_number ASC`, scheduleEntryColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, from, to); err != nil {
		return nil, fmt.Errorf("list schedule entries by range: %w", err)
	}
	return entries, nil
}

// CountByFilter returns aggregate counts for the dashboard.
func (r *ScheduleEntryRepository) CountByFilter(ctx context.Context, filter models.ScheduleEntryFilter) (int, error) {
	_, total, err := r.List(ctx, models.ScheduleEntryFilter{
		StudentID:       filter.StudentID,
		SubjectID:       filter.SubjectID,
		WeekNumber:      filter.WeekNumber,
		DateFrom:        filter.DateFrom,
		DateTo:          filter.DateTo,
		MissingTopic:    filter.MissingTopic,
		IncludeArchived: filter.IncludeArchived,
		Page:            1,
		PageSize:        1,
	})
	return total, err
}

// CountArchived reports how many entries carry an archive stamp.
func (r *ScheduleEntryRepository) CountArchived(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schedule_entries WHERE archived_at IS NOT NULL`); err != nil {
		return 0, fmt.Errorf("count archived schedule entries: %w", err)
	}
	return total, nil
}
