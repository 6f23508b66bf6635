package service

import (
	"context"
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
)

type repairScheduleRepoFake struct {
	duplicates []models.ScheduleEntry
	elapsed    []models.ScheduleEntry
	archived   []string
}

func (f *repairScheduleRepoFake) ListDuplicates(_ context.Context) ([]models.ScheduleEntry, error) {
	return f.duplicates, nil
}

func (f *repairScheduleRepoFake) ListElapsedUnarchived(_ context.Context, _ time.Time) ([]models.ScheduleEntry, error) {
	return f.elapsed, nil
}

func (f *repairScheduleRepoFake) ArchiveByIDs(_ context.Context, _ sqlx.ExtContext, ids []string, _ time.Time) error {
	f.archived = append(f.archived, ids...)
	return nil
}

type repairProgressRepoFake struct {
	orphaned  []models.ProgressRecord
	corrupted []models.ProgressRecord
	byEntry   map[string]models.ProgressRecord
	deleted   []string
	cleared   []string
}

func (f *repairProgressRepoFake) ListOrphaned(_ context.Context) ([]models.ProgressRecord, error) {
	return f.orphaned, nil
}

func (f *repairProgressRepoFake) ListCorrupted(_ context.Context) ([]models.ProgressRecord, error) {
	return f.corrupted, nil
}

func (f *repairProgressRepoFake) ListByEntryIDs(_ context.Context, entryIDs []string) ([]models.ProgressRecord, error) {
	var out []models.ProgressRecord
	for _, id := range entryIDs {
		if r, ok := f.byEntry[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *repairProgressRepoFake) DeleteByIDs(_ context.Context, _ sqlx.ExtContext, ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *repairProgressRepoFake) ClearCorruption(_ context.Context, _ sqlx.ExtContext, id string) error {
	f.cleared = append(f.cleared, id)
	return nil
}

func newRepairFixture(t *testing.T, cfg config.RepairConfig, schedules *repairScheduleRepoFake, progress *repairProgressRepoFake) (*RepairService, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	db := sqlx.NewDb(rawDB, "sqlmock")
	svc := NewRepairService(db, schedules, progress, cfg, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC) }
	return svc, mock
}

func elapsedEntry(id string, date time.Time) models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:            id,
		StudentID:     "student-1",
		ScheduledDate: date,
		PeriodNumber:  1,
		StartTime:     "09:00",
		EndTime:       "09:45",
	}
}

func TestRepairDryRunReportsWithoutFixing(t *testing.T) {
	lastMonday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	schedules := &repairScheduleRepoFake{
		duplicates: []models.ScheduleEntry{
			elapsedEntry("d1", lastMonday),
			elapsedEntry("d2", lastMonday),
		},
		elapsed: []models.ScheduleEntry{elapsedEntry("e1", lastMonday)},
	}
	progress := &repairProgressRepoFake{
		orphaned:  []models.ProgressRecord{{ID: "p1"}},
		corrupted: []models.ProgressRecord{{ID: "p2"}},
		byEntry:   map[string]models.ProgressRecord{},
	}
	svc, _ := newRepairFixture(t, config.RepairConfig{DryRunDefault: true}, schedules, progress)

	report, err := svc.Run(context.Background(), dto.RepairRequest{})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.OrphanedProgress)
	assert.Equal(t, 1, report.CorruptedCompletion)
	assert.Equal(t, 1, report.DuplicateEntries)
	assert.Equal(t, 1, report.ArchivedEntries)

	assert.Empty(t, progress.deleted)
	assert.Empty(t, progress.cleared)
	assert.Empty(t, schedules.archived)
}

func TestRepairFixesInsideOneTransaction(t *testing.T) {
	lastMonday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	schedules := &repairScheduleRepoFake{
		duplicates: []models.ScheduleEntry{
			elapsedEntry("keep", lastMonday),
			elapsedEntry("lose", lastMonday),
		},
		elapsed: []models.ScheduleEntry{elapsedEntry("e1", lastMonday)},
	}
	progress := &repairProgressRepoFake{
		orphaned:  []models.ProgressRecord{{ID: "p1"}},
		corrupted: []models.ProgressRecord{{ID: "p2"}},
		byEntry:   map[string]models.ProgressRecord{},
	}
	svc, mock := newRepairFixture(t, config.RepairConfig{DryRunDefault: true}, schedules, progress)

	mock.ExpectBegin()
	mock.ExpectCommit()

	dryRun := false
	report, err := svc.Run(context.Background(), dto.RepairRequest{DryRun: &dryRun})
	require.NoError(t, err)
	assert.False(t, report.DryRun)

	assert.Equal(t, []string{"p1"}, progress.deleted)
	assert.Equal(t, []string{"p2"}, progress.cleared)
	// The earliest row of the duplicate group survives; the elapsed terminal
	// entry is archived alongside the loser.
	assert.ElementsMatch(t, []string{"lose", "e1"}, schedules.archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairSkipsElapsedEntriesWithPendingState(t *testing.T) {
	// A completed entry in an elapsed week is archivable; one with an open
	// window is not.
	lastMonday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	open := elapsedEntry("open", lastMonday)
	done := elapsedEntry("done", lastMonday)
	schedules := &repairScheduleRepoFake{elapsed: []models.ScheduleEntry{open, done}}
	progress := &repairProgressRepoFake{
		byEntry: map[string]models.ProgressRecord{
			"open": {
				ScheduleEntryID: "open",
				WindowStart:     instantPtr(time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)),
				WindowEnd:       instantPtr(time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)),
				GracePeriodEnd:  instantPtr(time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC)),
			},
			"done": {
				ScheduleEntryID: "done",
				CompletedAt:     instantPtr(time.Date(2026, 3, 2, 9, 40, 0, 0, time.UTC)),
				SubmissionID:    strPtr("sub-1"),
			},
		},
	}
	svc, mock := newRepairFixture(t, config.RepairConfig{}, schedules, progress)

	mock.ExpectBegin()
	mock.ExpectCommit()

	report, err := svc.Run(context.Background(), dto.RepairRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ArchivedEntries)
	assert.Equal(t, []string{"done"}, schedules.archived)
}
