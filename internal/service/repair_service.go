package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type repairScheduleRepository interface {
	ListDuplicates(ctx context.Context) ([]models.ScheduleEntry, error)
	ListElapsedUnarchived(ctx context.Context, cutoff time.Time) ([]models.ScheduleEntry, error)
	ArchiveByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string, archivedAt time.Time) error
}

type repairProgressRepository interface {
	ListOrphaned(ctx context.Context) ([]models.ProgressRecord, error)
	ListCorrupted(ctx context.Context) ([]models.ProgressRecord, error)
	ListByEntryIDs(ctx context.Context, entryIDs []string) ([]models.ProgressRecord, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) error
	ClearCorruption(ctx context.Context, exec sqlx.ExtContext, id string) error
}

// RepairService reconciles records that violate the generator's invariants:
// progress rows without a schedule entry, completions without a submission,
// duplicate slots, and fully elapsed weeks that were never archived. Every
// category is counted and reported, never thrown.
type RepairService struct {
	db        *sqlx.DB
	schedules repairScheduleRepository
	progress  repairProgressRepository
	cfg       config.RepairConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewRepairService constructs the service.
func NewRepairService(db *sqlx.DB, schedules repairScheduleRepository, progress repairProgressRepository, cfg config.RepairConfig, logger *zap.Logger) *RepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairService{
		db:        db,
		schedules: schedules,
		progress:  progress,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Run scans all issue categories and, unless this is a dry run, fixes them
// inside one transaction.
func (s *RepairService) Run(ctx context.Context, req dto.RepairRequest) (*dto.RepairReport, error) {
	dryRun := s.cfg.DryRunDefault
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	report := &dto.RepairReport{DryRun: dryRun}
	now := s.now()

	orphaned, err := s.progress.ListOrphaned(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan orphaned progress")
	}
	report.OrphanedProgress = len(orphaned)

	corrupted, err := s.progress.ListCorrupted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan corrupted completions")
	}
	report.CorruptedCompletion = len(corrupted)

	duplicates, err := s.duplicateLosers(ctx)
	if err != nil {
		return nil, err
	}
	report.DuplicateEntries = len(duplicates)

	archivable, err := s.archivableEntries(ctx, now)
	if err != nil {
		return nil, err
	}
	report.ArchivedEntries = len(archivable)

	if dryRun {
		return report, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(orphaned) > 0 {
		ids := make([]string, len(orphaned))
		for i, record := range orphaned {
			ids[i] = record.ID
		}
		if err := s.progress.DeleteByIDs(ctx, tx, ids); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete orphaned progress")
		}
	}

	for _, record := range corrupted {
		if err := s.progress.ClearCorruption(ctx, tx, record.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear corrupted completion")
		}
	}

	if len(duplicates) > 0 {
		if err := s.schedules.ArchiveByIDs(ctx, tx, duplicates, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive duplicate entries")
		}
	}

	if len(archivable) > 0 {
		if err := s.schedules.ArchiveByIDs(ctx, tx, archivable, now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive elapsed entries")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit repair")
	}

	s.logger.Info("repair run finished",
		zap.Int("orphaned_progress", report.OrphanedProgress),
		zap.Int("corrupted_completion", report.CorruptedCompletion),
		zap.Int("duplicate_entries", report.DuplicateEntries),
		zap.Int("archived_entries", report.ArchivedEntries))

	return report, nil
}

// duplicateLosers returns the ids of duplicate-slot entries to archive,
// keeping the earliest-created row of each (student, date, period) group.
func (s *RepairService) duplicateLosers(ctx context.Context) ([]string, error) {
	rows, err := s.schedules.ListDuplicates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan duplicate entries")
	}

	kept := make(map[string]bool)
	var losers []string
	for _, entry := range rows {
		key := entry.StudentID + "|" + slotKey(entry.ScheduledDate, entry.PeriodNumber)
		if kept[key] {
			losers = append(losers, entry.ID)
			continue
		}
		kept[key] = true
	}
	return losers, nil
}

// archivableEntries returns elapsed-week entries safe to archive: their
// status is terminal, so no pending state remains.
func (s *RepairService) archivableEntries(ctx context.Context, now time.Time) ([]string, error) {
	weekCutoff := models.DateOnly(now).AddDate(0, 0, -(isoWeekday(now) - 1))
	entries, err := s.schedules.ListElapsedUnarchived(ctx, weekCutoff)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan elapsed entries")
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	records, err := s.progress.ListByEntryIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load elapsed progress")
	}
	byEntry := make(map[string]*models.ProgressRecord, len(records))
	for i := range records {
		byEntry[records[i].ScheduleEntryID] = &records[i]
	}

	var archivable []string
	for _, entry := range entries {
		switch EvaluateStatus(entry, byEntry[entry.ID], now) {
		case models.StatusCompleted, models.StatusMissed:
			archivable = append(archivable, entry.ID)
		}
	}
	return archivable, nil
}
