package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type conflictTimetableRepository interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	ListEntriesByDay(ctx context.Context, timetableID string, dayOfWeek int) ([]models.TimetableEntry, error)
	FindEntry(ctx context.Context, id string) (*models.TimetableEntry, error)
	InsertEntry(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	UpdateEntry(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	DeleteEntry(ctx context.Context, exec sqlx.ExtContext, id string) error
	UpdateSubjectMapping(ctx context.Context, entryID, subjectID string, confidence float64) error
}

// ConflictService finds overlapping periods within one timetable day and
// applies corrections. Conflicts are recomputed on demand, never stored.
type ConflictService struct {
	db         *sqlx.DB
	timetables conflictTimetableRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewConflictService constructs the service.
func NewConflictService(db *sqlx.DB, timetables conflictTimetableRepository, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{db: db, timetables: timetables, validator: validate, logger: logger}
}

// DetectConflicts scans one timetable's entries day by day and reports every
// pair of overlapping ranges. Severity grades the collision: identical
// ranges claimed by different subjects are HIGH, identical ranges with the
// same subject MEDIUM, partial overlaps LOW.
func DetectConflicts(timetableID string, entries []models.TimetableEntry) []models.Conflict {
	byDay := make(map[int][]models.TimetableEntry)
	for _, entry := range entries {
		byDay[entry.DayOfWeek] = append(byDay[entry.DayOfWeek], entry)
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	var conflicts []models.Conflict
	for _, day := range days {
		group := byDay[day]
		sort.Slice(group, func(i, j int) bool {
			a, _ := models.MinutesOfDay(group[i].StartTime)
			b, _ := models.MinutesOfDay(group[j].StartTime)
			if a != b {
				return a < b
			}
			return group[i].PeriodNumber < group[j].PeriodNumber
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !group[i].Overlaps(group[j]) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					TimetableID: timetableID,
					DayOfWeek:   day,
					Severity:    conflictSeverity(group[i], group[j]),
					First:       group[i],
					Second:      group[j],
				})
			}
		}
	}
	return conflicts
}

func conflictSeverity(a, b models.TimetableEntry) models.ConflictSeverity {
	if !a.SameRange(b) {
		return models.ConflictSeverityLow
	}
	if a.SubjectID != nil && b.SubjectID != nil && *a.SubjectID == *b.SubjectID {
		return models.ConflictSeverityMedium
	}
	return models.ConflictSeverityHigh
}

// List detects and returns the current conflicts of one timetable.
func (s *ConflictService) List(ctx context.Context, timetableID string) (*dto.ConflictListResponse, error) {
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	entries, err := s.timetables.ListEntries(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	conflicts := DetectConflicts(timetableID, entries)
	return &dto.ConflictListResponse{TimetableID: timetableID, Conflicts: conflicts, Total: len(conflicts)}, nil
}

// Resolve applies one correction to an addressed pair of entries. The pair
// is re-validated against current state first; a stale address fails the
// whole request with STALE_ENTRY and mutates nothing. The response carries
// the recomputed remaining conflicts so callers can iterate to zero.
func (s *ConflictService) Resolve(ctx context.Context, timetableID string, req dto.ResolveConflictRequest) (*dto.ResolveConflictResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}

	first, err := s.loadPairEntry(ctx, timetableID, req.FirstEntryID)
	if err != nil {
		return nil, err
	}

	var second *models.TimetableEntry
	if req.SecondEntryID != "" {
		second, err = s.loadPairEntry(ctx, timetableID, req.SecondEntryID)
		if err != nil {
			return nil, err
		}
		if second.DayOfWeek != first.DayOfWeek || !first.Overlaps(*second) {
			return nil, appErrors.Clone(appErrors.ErrStaleEntry, "addressed entries no longer overlap")
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	switch req.Action {
	case models.ResolutionKeepFirst:
		if second == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "secondEntryId is required for KEEP_FIRST")
		}
		err = s.timetables.DeleteEntry(ctx, tx, second.ID)
	case models.ResolutionKeepSecond:
		if second == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "secondEntryId is required for KEEP_SECOND")
		}
		err = s.timetables.DeleteEntry(ctx, tx, first.ID)
	case models.ResolutionEditTime:
		err = s.applyEditTime(ctx, tx, timetableID, first, second, req)
	case models.ResolutionMergePeriods:
		if second == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "secondEntryId is required for MERGE_PERIODS")
		}
		err = s.applyMerge(ctx, tx, first, second)
	case models.ResolutionSplitPeriod:
		err = s.applySplit(ctx, tx, timetableID, first, req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action %s", req.Action))
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit resolution")
	}

	entries, err := s.timetables.ListEntries(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload timetable entries")
	}
	remaining := DetectConflicts(timetableID, entries)

	s.logger.Info("conflict resolved",
		zap.String("timetable_id", timetableID),
		zap.String("action", string(req.Action)),
		zap.Int("remaining", len(remaining)))

	return &dto.ResolveConflictResponse{
		TimetableID:        timetableID,
		Applied:            string(req.Action),
		RemainingConflicts: len(remaining),
		Conflicts:          remaining,
	}, nil
}

// UpdateSubjectMapping binds an addressed entry to a subject. The entry is
// re-validated against current state first, under the same staleness
// contract as Resolve.
func (s *ConflictService) UpdateSubjectMapping(ctx context.Context, timetableID, entryID string, req dto.UpdateSubjectMappingRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}

	if _, err := s.loadPairEntry(ctx, timetableID, entryID); err != nil {
		return nil, err
	}

	if err := s.timetables.UpdateSubjectMapping(ctx, entryID, req.SubjectID, req.MappingConfidence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject mapping")
	}

	entry, err := s.timetables.FindEntry(ctx, entryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload entry")
	}

	s.logger.Info("subject mapping updated",
		zap.String("timetable_id", timetableID),
		zap.String("entry_id", entryID),
		zap.String("subject_id", req.SubjectID))

	return entry, nil
}

func (s *ConflictService) loadPairEntry(ctx context.Context, timetableID, entryID string) (*models.TimetableEntry, error) {
	entry, err := s.timetables.FindEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStaleEntry, fmt.Sprintf("entry %s no longer exists", entryID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	if entry.TimetableID != timetableID {
		return nil, appErrors.Clone(appErrors.ErrStaleEntry, fmt.Sprintf("entry %s does not belong to timetable %s", entryID, timetableID))
	}
	return entry, nil
}

func (s *ConflictService) applyEditTime(ctx context.Context, tx sqlx.ExtContext, timetableID string, first, second *models.TimetableEntry, req dto.ResolveConflictRequest) error {
	target := first
	if req.TargetEntryID != "" && req.TargetEntryID != first.ID {
		if second == nil || req.TargetEntryID != second.ID {
			return appErrors.Clone(appErrors.ErrStaleEntry, "targetEntryId does not address the conflicting pair")
		}
		target = second
	}

	startMin, err := models.MinutesOfDay(req.NewStartTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid newStartTime")
	}
	endMin, err := models.MinutesOfDay(req.NewEndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid newEndTime")
	}
	if startMin >= endMin {
		return appErrors.Clone(appErrors.ErrValidation, "newStartTime must be before newEndTime")
	}

	moved := *target
	moved.StartTime = models.FormatMinutes(startMin)
	moved.EndTime = models.FormatMinutes(endMin)

	siblings, err := s.timetables.ListEntriesByDay(ctx, timetableID, target.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling entries")
	}
	for _, sibling := range siblings {
		if sibling.ID == target.ID {
			continue
		}
		if moved.Overlaps(sibling) {
			return appErrors.Clone(appErrors.ErrOverlapRemains, fmt.Sprintf("new bounds still overlap entry %s", sibling.ID))
		}
	}

	if err := s.timetables.UpdateEntry(ctx, tx, &moved); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry time")
	}
	return nil
}

func (s *ConflictService) applyMerge(ctx context.Context, tx sqlx.ExtContext, first, second *models.TimetableEntry) error {
	sameSubject := first.SubjectID != nil && second.SubjectID != nil && *first.SubjectID == *second.SubjectID
	if !sameSubject {
		return appErrors.Clone(appErrors.ErrConflict, "MERGE_PERIODS requires both entries to share a subject")
	}

	aStart, _ := models.MinutesOfDay(first.StartTime)
	aEnd, _ := models.MinutesOfDay(first.EndTime)
	bStart, _ := models.MinutesOfDay(second.StartTime)
	bEnd, _ := models.MinutesOfDay(second.EndTime)

	merged := *first
	if bStart < aStart {
		merged.StartTime = models.FormatMinutes(bStart)
	}
	if bEnd > aEnd {
		merged.EndTime = models.FormatMinutes(bEnd)
	}

	if err := s.timetables.UpdateEntry(ctx, tx, &merged); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update merged entry")
	}
	if err := s.timetables.DeleteEntry(ctx, tx, second.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove merged entry")
	}
	return nil
}

func (s *ConflictService) applySplit(ctx context.Context, tx sqlx.ExtContext, timetableID string, target *models.TimetableEntry, req dto.ResolveConflictRequest) error {
	splitMin, err := models.MinutesOfDay(req.SplitTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid splitTime")
	}
	startMin, _ := models.MinutesOfDay(target.StartTime)
	endMin, _ := models.MinutesOfDay(target.EndTime)
	if splitMin <= startMin || splitMin >= endMin {
		return appErrors.Clone(appErrors.ErrValidation, "splitTime must fall strictly inside the entry's range")
	}

	siblings, err := s.timetables.ListEntriesByDay(ctx, timetableID, target.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling entries")
	}
	maxPeriod := 0
	for _, sibling := range siblings {
		if sibling.PeriodNumber > maxPeriod {
			maxPeriod = sibling.PeriodNumber
		}
	}

	head := *target
	head.EndTime = models.FormatMinutes(splitMin)
	if err := s.timetables.UpdateEntry(ctx, tx, &head); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to shrink split entry")
	}

	tail := models.TimetableEntry{
		TimetableID:       timetableID,
		DayOfWeek:         target.DayOfWeek,
		PeriodNumber:      maxPeriod + 1,
		StartTime:         models.FormatMinutes(splitMin),
		EndTime:           target.EndTime,
		SubjectID:         target.SubjectID,
		MappingConfidence: target.MappingConfidence,
	}
	if err := s.timetables.InsertEntry(ctx, tx, &tail); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert split entry")
	}
	return nil
}
