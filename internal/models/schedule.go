package models

import "time"

// ScheduleSource records how a schedule entry came to exist.
type ScheduleSource string

const (
	ScheduleSourceGenerated         ScheduleSource = "GENERATED"
	ScheduleSourceHolidayReschedule ScheduleSource = "HOLIDAY_RESCHEDULE"
	ScheduleSourceManualRepair      ScheduleSource = "MANUAL_REPAIR"
)

// ScheduleEntry is one concrete dated occurrence derived from the timetable.
// (student_id, scheduled_date, period_number) is unique among non-archived
// rows.
type ScheduleEntry struct {
	ID                     string         `db:"id" json:"id"`
	StudentID              string         `db:"student_id" json:"student_id"`
	TimetableEntryID       *string        `db:"timetable_entry_id" json:"timetable_entry_id,omitempty"`
	ScheduledDate          time.Time      `db:"scheduled_date" json:"scheduled_date"`
	WeekNumber             int            `db:"week_number" json:"week_number"`
	PeriodNumber           int            `db:"period_number" json:"period_number"`
	SubjectID              *string        `db:"subject_id" json:"subject_id,omitempty"`
	StartTime              string         `db:"start_time" json:"start_time"`
	EndTime                string         `db:"end_time" json:"end_time"`
	LessonTopicID          *string        `db:"lesson_topic_id" json:"lesson_topic_id,omitempty"`
	PeriodSequence         int            `db:"period_sequence" json:"period_sequence"`
	TotalPeriodsInSequence int            `db:"total_periods_in_sequence" json:"total_periods_in_sequence"`
	Source                 ScheduleSource `db:"source" json:"source"`
	ArchivedAt             *time.Time     `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updated_at"`
}

// MissingTopic reports whether the entry still awaits a topic assignment.
func (e ScheduleEntry) MissingTopic() bool {
	return e.LessonTopicID == nil || *e.LessonTopicID == ""
}

// ScheduleEntryFilter narrows schedule entry queries.
type ScheduleEntryFilter struct {
	StudentID       string
	SubjectID       string
	WeekNumber      int
	DateFrom        *time.Time
	DateTo          *time.Time
	MissingTopic    *bool
	IncludeArchived bool
	Page            int
	PageSize        int
}
