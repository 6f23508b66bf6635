package dto

import "github.com/forhay123/haybee-edu-sub012/internal/models"

// AssignTopicRequest attaches a lesson topic to one schedule entry.
type AssignTopicRequest struct {
	ScheduleEntryID string `json:"scheduleEntryId" validate:"required"`
	TopicID         string `json:"topicId" validate:"required"`
}

// BulkAssignTopicRequest applies one topic to many entries in a single
// transaction.
type BulkAssignTopicRequest struct {
	ScheduleEntryIDs []string `json:"scheduleEntryIds" validate:"required,min=1,dive,required"`
	TopicID          string   `json:"topicId" validate:"required"`
}

// QuickAssignRequest commits the top suggestion for one entry. Explicitly
// invoked; suggestions are never auto-committed.
type QuickAssignRequest struct {
	ScheduleEntryID string `json:"scheduleEntryId" validate:"required"`
}

// PendingTopicsQuery filters the missing-topic worklist.
type PendingTopicsQuery struct {
	StudentID  string `form:"studentId"`
	SubjectID  string `form:"subjectId"`
	WeekNumber int    `form:"weekNumber"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// SuggestionsResponse returns scored candidates for one entry.
type SuggestionsResponse struct {
	ScheduleEntryID string                   `json:"scheduleEntryId"`
	Suggestions     []models.TopicSuggestion `json:"suggestions"`
}

// BulkAssignResponse reports how many entries were updated.
type BulkAssignResponse struct {
	TopicID  string `json:"topicId"`
	Assigned int    `json:"assigned"`
}
