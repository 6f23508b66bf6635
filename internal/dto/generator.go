package dto

import "github.com/forhay123/haybee-edu-sub012/internal/models"

// GenerateWeekRequest asks for one student's week to be materialized.
type GenerateWeekRequest struct {
	StudentID       string `json:"studentId" validate:"required"`
	TermID          string `json:"termId" validate:"required"`
	WeekNumber      int    `json:"weekNumber" validate:"required,min=1"`
	ForceRegenerate bool   `json:"forceRegenerate"`
}

// MissingTopicItem flags a generated entry awaiting topic assignment.
type MissingTopicItem struct {
	ScheduleEntryID string `json:"scheduleEntryId"`
	ScheduledDate   string `json:"scheduledDate"`
	PeriodNumber    int    `json:"periodNumber"`
	SubjectID       string `json:"subjectId,omitempty"`
}

// GenerateWeekResult summarizes one student-week generation run.
type GenerateWeekResult struct {
	StudentID          string             `json:"studentId"`
	WeekNumber         int                `json:"weekNumber"`
	Created            int                `json:"created"`
	Deleted            int                `json:"deleted"`
	Preserved          int                `json:"preserved"`
	Skipped            bool               `json:"skipped"`
	HolidayRescheduled bool               `json:"holidayRescheduled"`
	MissingTopics      []MissingTopicItem `json:"missingTopics"`
}

// GenerationError captures a per-student failure inside a batch run.
type GenerationError struct {
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// BatchGenerateRequest triggers generation for many students at once.
type BatchGenerateRequest struct {
	StudentIDs      []string `json:"studentIds" validate:"required,min=1,dive,required"`
	TermID          string   `json:"termId" validate:"required"`
	WeekNumber      int      `json:"weekNumber" validate:"required,min=1"`
	ForceRegenerate bool     `json:"forceRegenerate"`
}

// BatchGenerateResult aggregates successes and failures; one student's
// failure never aborts the batch.
type BatchGenerateResult struct {
	Results []GenerateWeekResult `json:"results"`
	Errors  []GenerationError    `json:"errors"`
}

// WeekPreview mirrors GenerateWeekResult without any persistence.
type WeekPreview struct {
	StudentID          string                 `json:"studentId"`
	WeekNumber         int                    `json:"weekNumber"`
	Entries            []models.ScheduleEntry `json:"entries"`
	HolidayRescheduled bool                   `json:"holidayRescheduled"`
	SkippedDates       []string               `json:"skippedDates"`
}
