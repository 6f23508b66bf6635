package dto

import "github.com/forhay123/haybee-edu-sub012/internal/models"

// ResolveConflictRequest applies one correction to a pair of overlapping
// timetable entries. The addressed entry ids pin the action to a concrete
// pair; if either no longer matches, the request fails with STALE_ENTRY.
type ResolveConflictRequest struct {
	Action        models.ResolutionAction `json:"action" validate:"required,oneof=KEEP_FIRST KEEP_SECOND EDIT_TIME MERGE_PERIODS SPLIT_PERIOD"`
	FirstEntryID  string                  `json:"firstEntryId" validate:"required"`
	SecondEntryID string                  `json:"secondEntryId"`

	// EDIT_TIME: the entry to move and its new bounds.
	TargetEntryID string `json:"targetEntryId"`
	NewStartTime  string `json:"newStartTime"`
	NewEndTime    string `json:"newEndTime"`

	// SPLIT_PERIOD: wall-clock cut point inside the target range.
	SplitTime string `json:"splitTime"`
}

// UpdateSubjectMappingRequest binds a timetable entry to a subject.
type UpdateSubjectMappingRequest struct {
	SubjectID         string  `json:"subjectId" validate:"required"`
	MappingConfidence float64 `json:"mappingConfidence" validate:"gte=0,lte=1"`
}

// ConflictListResponse reports detected conflicts for one timetable.
type ConflictListResponse struct {
	TimetableID string            `json:"timetableId"`
	Conflicts   []models.Conflict `json:"conflicts"`
	Total       int               `json:"total"`
}

// ResolveConflictResponse reports the applied action and what remains.
type ResolveConflictResponse struct {
	TimetableID        string            `json:"timetableId"`
	Applied            string            `json:"applied"`
	RemainingConflicts int               `json:"remainingConflicts"`
	Conflicts          []models.Conflict `json:"conflicts"`
}
