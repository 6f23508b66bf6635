package dto

import "github.com/forhay123/haybee-edu-sub012/internal/models"

// ScheduleQuery selects a student's schedule entries by week or date range.
type ScheduleQuery struct {
	StudentID  string `form:"studentId"`
	TermID     string `form:"termId"`
	WeekNumber int    `form:"weekNumber"`
	DateFrom   string `form:"dateFrom"`
	DateTo     string `form:"dateTo"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// ScheduleEntryView augments a stored entry with its live-derived status.
type ScheduleEntryView struct {
	models.ScheduleEntry
	Status      models.ScheduleStatus  `json:"status"`
	PeriodState *models.PeriodState    `json:"periodState,omitempty"`
	Progress    *models.ProgressRecord `json:"progress,omitempty"`
}
