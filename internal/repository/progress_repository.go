package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// ProgressRepository persists per-entry progress records.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, schedule_entry_id, assessment_id, window_start, window_end, grace_period_end, submission_id, completed_at, incomplete_reason, backend_status, created_at, updated_at`

// FindByEntryID loads the progress record attached to a schedule entry.
func (r *ProgressRepository) FindByEntryID(ctx context.Context, entryID string) (*models.ProgressRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM progress_records WHERE schedule_entry_id = $1`, progressColumns)
	var record models.ProgressRecord
	if err := r.db.GetContext(ctx, &record, query, entryID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByEntryIDs returns progress records for a set of schedule entries.
func (r *ProgressRepository) ListByEntryIDs(ctx context.Context, entryIDs []string) ([]models.ProgressRecord, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM progress_records WHERE schedule_entry_id IN (?)`, progressColumns), entryIDs)
	if err != nil {
		return nil, fmt.Errorf("build list progress records: %w", err)
	}
	query = r.db.Rebind(query)
	var records []models.ProgressRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list progress records: %w", err)
	}
	return records, nil
}

// BulkInsert stores records within the given executor.
func (r *ProgressRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, records []models.ProgressRecord) error {
	now := time.Now().UTC()
	for i := range records {
		payload := records[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		const query = `INSERT INTO progress_records (id, schedule_entry_id, assessment_id, window_start, window_end, grace_period_end, submission_id, completed_at, incomplete_reason, backend_status, created_at, updated_at) VALUES (:id, :schedule_entry_id, :assessment_id, :window_start, :window_end, :grace_period_end, :submission_id, :completed_at, :incomplete_reason, :backend_status, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, exec, query, &payload); err != nil {
			return fmt.Errorf("bulk insert progress record: %w", err)
		}
		records[i] = payload
	}
	return nil
}

// DeleteByIDs removes records within the given executor.
func (r *ProgressRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM progress_records WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build delete progress records: %w", err)
	}
	query = exec.Rebind(query)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete progress records: %w", err)
	}
	return nil
}

// DeleteByEntryIDs removes records attached to the given schedule entries.
func (r *ProgressRepository) DeleteByEntryIDs(ctx context.Context, exec sqlx.ExtContext, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM progress_records WHERE schedule_entry_id IN (?)`, entryIDs)
	if err != nil {
		return fmt.Errorf("build delete progress records by entry: %w", err)
	}
	query = exec.Rebind(query)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete progress records by entry: %w", err)
	}
	return nil
}

// ListOrphaned returns records whose schedule entry no longer exists.
func (r *ProgressRepository) ListOrphaned(ctx context.Context) ([]models.ProgressRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM progress_records p WHERE NOT EXISTS (SELECT 1 FROM schedule_entries e WHERE e.id = p.schedule_entry_id)`, progressColumns)
	var records []models.ProgressRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list orphaned progress records: %w", err)
	}
	return records, nil
}

// ListCorrupted returns records carrying completed_at without a submission.
func (r *ProgressRepository) ListCorrupted(ctx context.Context) ([]models.ProgressRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM progress_records WHERE completed_at IS NOT NULL AND (submission_id IS NULL OR submission_id = '')`, progressColumns)
	var records []models.ProgressRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list corrupted progress records: %w", err)
	}
	return records, nil
}

// ClearCorruption nulls completed_at and marks the record for repair.
func (r *ProgressRepository) ClearCorruption(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `UPDATE progress_records SET completed_at = NULL, incomplete_reason = $1, updated_at = $2 WHERE id = $3`
	if _, err := exec.ExecContext(ctx, query, models.IncompleteReasonDataRepair, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("clear corrupted progress record: %w", err)
	}
	return nil
}

// SetWindow writes the computed assessment window onto a record.
func (r *ProgressRepository) SetWindow(ctx context.Context, exec sqlx.ExtContext, id string, window models.AssessmentWindow) error {
	const query = `UPDATE progress_records SET window_start = $1, window_end = $2, grace_period_end = $3, updated_at = $4 WHERE id = $5`
	if _, err := exec.ExecContext(ctx, query, window.WindowStart, window.WindowEnd, window.GracePeriodEnd, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set assessment window: %w", err)
	}
	return nil
}
