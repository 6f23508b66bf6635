package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type timetableRepoFake struct {
	timetable *models.Timetable
	entries   map[string]models.TimetableEntry
	inserted  []models.TimetableEntry
}

func newTimetableRepoFake(entries ...models.TimetableEntry) *timetableRepoFake {
	f := &timetableRepoFake{
		timetable: &models.Timetable{ID: "tt-1", StudentID: "student-1", Status: models.TimetableStatusActive},
		entries:   make(map[string]models.TimetableEntry),
	}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

func (f *timetableRepoFake) FindByID(_ context.Context, id string) (*models.Timetable, error) {
	if f.timetable == nil || f.timetable.ID != id {
		return nil, sql.ErrNoRows
	}
	tt := *f.timetable
	return &tt, nil
}

func (f *timetableRepoFake) ListEntries(_ context.Context, timetableID string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range f.entries {
		if e.TimetableID == timetableID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *timetableRepoFake) ListEntriesByDay(_ context.Context, timetableID string, dayOfWeek int) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range f.entries {
		if e.TimetableID == timetableID && e.DayOfWeek == dayOfWeek {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *timetableRepoFake) FindEntry(_ context.Context, id string) (*models.TimetableEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &e, nil
}

func (f *timetableRepoFake) InsertEntry(_ context.Context, _ sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = "generated-" + entry.StartTime
	}
	f.entries[entry.ID] = *entry
	f.inserted = append(f.inserted, *entry)
	return nil
}

func (f *timetableRepoFake) UpdateEntry(_ context.Context, _ sqlx.ExtContext, entry *models.TimetableEntry) error {
	if _, ok := f.entries[entry.ID]; !ok {
		return sql.ErrNoRows
	}
	f.entries[entry.ID] = *entry
	return nil
}

func (f *timetableRepoFake) DeleteEntry(_ context.Context, _ sqlx.ExtContext, id string) error {
	if _, ok := f.entries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.entries, id)
	return nil
}

func (f *timetableRepoFake) UpdateSubjectMapping(_ context.Context, entryID, subjectID string, confidence float64) error {
	e, ok := f.entries[entryID]
	if !ok {
		return sql.ErrNoRows
	}
	e.SubjectID = &subjectID
	e.MappingConfidence = confidence
	f.entries[entryID] = e
	return nil
}

func newConflictServiceFixture(t *testing.T, repo *timetableRepoFake) (*ConflictService, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	db := sqlx.NewDb(rawDB, "sqlmock")
	return NewConflictService(db, repo, nil, zap.NewNop()), mock
}

func mondayEntry(id string, period int, start, end string, subject *string) models.TimetableEntry {
	return models.TimetableEntry{
		ID:           id,
		TimetableID:  "tt-1",
		DayOfWeek:    1,
		PeriodNumber: period,
		StartTime:    start,
		EndTime:      end,
		SubjectID:    subject,
	}
}

func TestDetectConflictsSeverity(t *testing.T) {
	math := strPtr("math")
	science := strPtr("science")

	entries := []models.TimetableEntry{
		mondayEntry("a", 1, "09:00", "09:45", math),
		mondayEntry("b", 2, "09:00", "09:45", science),
		mondayEntry("c", 3, "09:30", "10:15", math),
		mondayEntry("d", 4, "11:00", "11:45", science),
	}

	conflicts := DetectConflicts("tt-1", entries)
	require.Len(t, conflicts, 3)

	severityOf := func(first, second string) models.ConflictSeverity {
		for _, c := range conflicts {
			if c.First.ID == first && c.Second.ID == second || c.First.ID == second && c.Second.ID == first {
				return c.Severity
			}
		}
		t.Fatalf("no conflict between %s and %s", first, second)
		return ""
	}

	assert.Equal(t, models.ConflictSeverityHigh, severityOf("a", "b"))
	assert.Equal(t, models.ConflictSeverityLow, severityOf("a", "c"))
	assert.Equal(t, models.ConflictSeverityLow, severityOf("b", "c"))
}

func TestDetectConflictsSameSubjectSameRangeIsMedium(t *testing.T) {
	math := strPtr("math")
	conflicts := DetectConflicts("tt-1", []models.TimetableEntry{
		mondayEntry("a", 1, "09:00", "09:45", math),
		mondayEntry("b", 2, "09:00", "09:45", math),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictSeverityMedium, conflicts[0].Severity)
}

func TestDetectConflictsDifferentDaysNeverConflict(t *testing.T) {
	a := mondayEntry("a", 1, "09:00", "09:45", nil)
	b := mondayEntry("b", 1, "09:00", "09:45", nil)
	b.DayOfWeek = 2
	assert.Empty(t, DetectConflicts("tt-1", []models.TimetableEntry{a, b}))
}

func TestConflictServiceResolveKeepFirst(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
		mondayEntry("b", 2, "09:00", "09:45", strPtr("science")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionKeepFirst,
		FirstEntryID:  "a",
		SecondEntryID: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.RemainingConflicts)
	_, exists := repo.entries["b"]
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictServiceResolveStaleEntry(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
	)
	svc, _ := newConflictServiceFixture(t, repo)

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionKeepFirst,
		FirstEntryID:  "a",
		SecondEntryID: "vanished",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStaleEntry.Code, appErrors.FromError(err).Code)
}

func TestConflictServiceResolvePairNoLongerOverlaps(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
		mondayEntry("b", 2, "10:00", "10:45", strPtr("science")),
	)
	svc, _ := newConflictServiceFixture(t, repo)

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionKeepSecond,
		FirstEntryID:  "a",
		SecondEntryID: "b",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStaleEntry.Code, appErrors.FromError(err).Code)
}

func TestConflictServiceMergeRequiresSameSubject(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
		mondayEntry("b", 2, "09:30", "10:15", strPtr("science")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionMergePeriods,
		FirstEntryID:  "a",
		SecondEntryID: "b",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictServiceMergeUnionsRange(t *testing.T) {
	math := strPtr("math")
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", math),
		mondayEntry("b", 2, "09:30", "10:15", math),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionMergePeriods,
		FirstEntryID:  "a",
		SecondEntryID: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.RemainingConflicts)

	merged := repo.entries["a"]
	assert.Equal(t, "09:00", merged.StartTime)
	assert.Equal(t, "10:15", merged.EndTime)
	_, stillThere := repo.entries["b"]
	assert.False(t, stillThere)
}

func TestConflictServiceEditTimeStillOverlapping(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
		mondayEntry("b", 2, "09:30", "10:15", strPtr("science")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionEditTime,
		FirstEntryID:  "a",
		SecondEntryID: "b",
		NewStartTime:  "09:40",
		NewEndTime:    "10:25",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverlapRemains.Code, appErrors.FromError(err).Code)
}

func TestConflictServiceEditTimeMovesEntry(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", strPtr("math")),
		mondayEntry("b", 2, "09:30", "10:15", strPtr("science")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:        models.ResolutionEditTime,
		FirstEntryID:  "a",
		SecondEntryID: "b",
		TargetEntryID: "b",
		NewStartTime:  "10:00",
		NewEndTime:    "10:45",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.RemainingConflicts)
	assert.Equal(t, "10:00", repo.entries["b"].StartTime)
}

func TestConflictServiceSplitPeriod(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "10:30", strPtr("math")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:       models.ResolutionSplitPeriod,
		FirstEntryID: "a",
		SplitTime:    "09:45",
	})
	require.NoError(t, err)

	assert.Equal(t, "09:45", repo.entries["a"].EndTime)
	require.Len(t, repo.inserted, 1)
	tail := repo.inserted[0]
	assert.Equal(t, "09:45", tail.StartTime)
	assert.Equal(t, "10:30", tail.EndTime)
	assert.Equal(t, 2, tail.PeriodNumber)
}

func TestConflictServiceUpdateSubjectMapping(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", nil),
	)
	svc, _ := newConflictServiceFixture(t, repo)

	entry, err := svc.UpdateSubjectMapping(context.Background(), "tt-1", "a", dto.UpdateSubjectMappingRequest{
		SubjectID:         "math",
		MappingConfidence: 0.9,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.SubjectID)
	assert.Equal(t, "math", *entry.SubjectID)
	assert.InDelta(t, 0.9, entry.MappingConfidence, 0.0001)
}

func TestConflictServiceUpdateSubjectMappingStaleEntry(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "09:45", nil),
	)
	svc, _ := newConflictServiceFixture(t, repo)

	_, err := svc.UpdateSubjectMapping(context.Background(), "tt-1", "vanished", dto.UpdateSubjectMappingRequest{
		SubjectID: "math",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStaleEntry.Code, appErrors.FromError(err).Code)
}

func TestConflictServiceSplitRejectsEdgeCut(t *testing.T) {
	repo := newTimetableRepoFake(
		mondayEntry("a", 1, "09:00", "10:30", strPtr("math")),
	)
	svc, mock := newConflictServiceFixture(t, repo)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Resolve(context.Background(), "tt-1", dto.ResolveConflictRequest{
		Action:       models.ResolutionSplitPeriod,
		FirstEntryID: "a",
		SplitTime:    "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
