package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// TimetableRepository persists timetables and their entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = `id, student_id, academic_year, source_document_id, status, created_at, updated_at`
const entryColumns = `id, timetable_id, day_of_week, period_number, start_time, end_time, subject_id, mapping_confidence, created_at, updated_at`

// FindByID loads a timetable by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE id = $1`, timetableColumns)
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// FindActiveByStudent returns the student's active timetable.
func (r *TimetableRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE student_id = $1 AND status = 'ACTIVE' ORDER BY created_at DESC LIMIT 1`, timetableColumns)
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, studentID); err != nil {
		return nil, err
	}
	return &tt, nil
}

// ListActive returns every timetable currently in ACTIVE state.
func (r *TimetableRepository) ListActive(ctx context.Context) ([]models.Timetable, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetables WHERE status = 'ACTIVE' ORDER BY created_at ASC`, timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query); err != nil {
		return nil, fmt.Errorf("list active timetables: %w", err)
	}
	return timetables, nil
}

// ListEntries returns all entries of a timetable ordered by day and start.
func (r *TimetableRepository) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_time ASC, period_number ASC`, entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListEntriesByDay returns a timetable's entries for one weekday.
func (r *TimetableRepository) ListEntriesByDay(ctx context.Context, timetableID string, dayOfWeek int) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE timetable_id = $1 AND day_of_week = $2 ORDER BY start_time ASC, period_number ASC`, entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list timetable entries by day: %w", err)
	}
	return entries, nil
}

// FindEntry loads a single timetable entry.
func (r *TimetableRepository) FindEntry(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_entries WHERE id = $1`, entryColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// InsertEntry stores a new entry within the given executor.
func (r *TimetableRepository) InsertEntry(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO timetable_entries (id, timetable_id, day_of_week, period_number, start_time, end_time, subject_id, mapping_confidence, created_at, updated_at) VALUES (:id, :timetable_id, :day_of_week, :period_number, :start_time, :end_time, :subject_id, :mapping_confidence, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

// UpdateEntry modifies an entry within the given executor.
func (r *TimetableRepository) UpdateEntry(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET day_of_week = :day_of_week, period_number = :period_number, start_time = :start_time, end_time = :end_time, subject_id = :subject_id, mapping_confidence = :mapping_confidence, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, entry); err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	return nil
}

// DeleteEntry removes an entry within the given executor.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}

// UpdateSubjectMapping binds an extracted entry to a subject.
func (r *TimetableRepository) UpdateSubjectMapping(ctx context.Context, entryID, subjectID string, confidence float64) error {
	const query = `UPDATE timetable_entries SET subject_id = $1, mapping_confidence = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, subjectID, confidence, time.Now().UTC(), entryID)
	if err != nil {
		return fmt.Errorf("update subject mapping: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("timetable entry %s not found", entryID)
	}
	return nil
}
