package models

import "time"

// IncompleteReason explains why an entry was never completed.
type IncompleteReason string

const (
	IncompleteReasonMissedDeadline IncompleteReason = "MISSED_DEADLINE"
	IncompleteReasonMissedWindow   IncompleteReason = "MISSED_WINDOW"
	IncompleteReasonDataRepair     IncompleteReason = "DATA_REPAIR"
)

// IsMissed reports whether the reason marks the entry as explicitly missed.
func (r IncompleteReason) IsMissed() bool {
	switch r {
	case IncompleteReasonMissedDeadline, IncompleteReasonMissedWindow, IncompleteReasonDataRepair:
		return true
	default:
		return false
	}
}

// ProgressRecord tracks completion and assessment state, one-to-one with a
// schedule entry once an assessment exists for it.
//
// Invariant: CompletedAt and SubmissionID are set together or not at all. A
// record carrying CompletedAt without a submission id is corruption and is
// evaluated as MISSED, never COMPLETED.
type ProgressRecord struct {
	ID               string            `db:"id" json:"id"`
	ScheduleEntryID  string            `db:"schedule_entry_id" json:"schedule_entry_id"`
	AssessmentID     *string           `db:"assessment_id" json:"assessment_id,omitempty"`
	WindowStart      *Instant          `db:"window_start" json:"window_start,omitempty"`
	WindowEnd        *Instant          `db:"window_end" json:"window_end,omitempty"`
	GracePeriodEnd   *Instant          `db:"grace_period_end" json:"grace_period_end,omitempty"`
	SubmissionID     *string           `db:"submission_id" json:"submission_id,omitempty"`
	CompletedAt      *Instant          `db:"completed_at" json:"completed_at,omitempty"`
	IncompleteReason *IncompleteReason `db:"incomplete_reason" json:"incomplete_reason,omitempty"`
	BackendStatus    *string           `db:"backend_status" json:"backend_status,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// HasWindow reports whether a complete assessment window is recorded.
func (p *ProgressRecord) HasWindow() bool {
	return p != nil && p.WindowStart != nil && p.WindowEnd != nil && p.GracePeriodEnd != nil
}

// IsCompleted reports a genuine completion: timestamp plus submission.
func (p *ProgressRecord) IsCompleted() bool {
	return p != nil && p.CompletedAt != nil && p.SubmissionID != nil && *p.SubmissionID != ""
}

// IsCorrupted flags the completed-without-submission state.
func (p *ProgressRecord) IsCorrupted() bool {
	return p != nil && p.CompletedAt != nil && (p.SubmissionID == nil || *p.SubmissionID == "")
}

// AssessmentWindow bundles the computed availability range.
type AssessmentWindow struct {
	WindowStart    Instant `json:"window_start"`
	WindowEnd      Instant `json:"window_end"`
	GracePeriodEnd Instant `json:"grace_period_end"`
}
