package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimetableStatus tracks the lifecycle of an uploaded timetable.
type TimetableStatus string

const (
	TimetableStatusActive   TimetableStatus = "ACTIVE"
	TimetableStatusReplaced TimetableStatus = "REPLACED"
)

// Timetable is a student's weekly recurring period pattern for one academic
// year, produced by the extraction pipeline and refined by conflict
// resolution and subject mapping.
type Timetable struct {
	ID               string          `db:"id" json:"id"`
	StudentID        string          `db:"student_id" json:"student_id"`
	AcademicYear     string          `db:"academic_year" json:"academic_year"`
	SourceDocumentID *string         `db:"source_document_id" json:"source_document_id,omitempty"`
	Status           TimetableStatus `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one recurring period. Day 1 is Monday, 7 is Sunday.
// Start/End are wall-clock "HH:MM" strings with no date attached.
type TimetableEntry struct {
	ID                string    `db:"id" json:"id"`
	TimetableID       string    `db:"timetable_id" json:"timetable_id"`
	DayOfWeek         int       `db:"day_of_week" json:"day_of_week"`
	PeriodNumber      int       `db:"period_number" json:"period_number"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EndTime           string    `db:"end_time" json:"end_time"`
	SubjectID         *string   `db:"subject_id" json:"subject_id,omitempty"`
	MappingConfidence float64   `db:"mapping_confidence" json:"mapping_confidence"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the [start,end) ranges of two entries intersect.
func (e TimetableEntry) Overlaps(other TimetableEntry) bool {
	aStart, errA := MinutesOfDay(e.StartTime)
	aEnd, errB := MinutesOfDay(e.EndTime)
	bStart, errC := MinutesOfDay(other.StartTime)
	bEnd, errD := MinutesOfDay(other.EndTime)
	if errA != nil || errB != nil || errC != nil || errD != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// SameRange reports whether both entries claim an identical time range.
func (e TimetableEntry) SameRange(other TimetableEntry) bool {
	return e.StartTime == other.StartTime && e.EndTime == other.EndTime
}

// ConflictSeverity grades how badly two entries collide.
type ConflictSeverity string

const (
	ConflictSeverityHigh   ConflictSeverity = "HIGH"
	ConflictSeverityMedium ConflictSeverity = "MEDIUM"
	ConflictSeverityLow    ConflictSeverity = "LOW"
)

// Conflict is a derived fact: two entries of one timetable day whose time
// ranges intersect. It is recomputed on demand, never persisted.
type Conflict struct {
	TimetableID string           `json:"timetable_id"`
	DayOfWeek   int              `json:"day_of_week"`
	Severity    ConflictSeverity `json:"severity"`
	First       TimetableEntry   `json:"first"`
	Second      TimetableEntry   `json:"second"`
	Resolved    bool             `json:"resolved"`
}

// ResolutionAction enumerates the supported conflict corrections.
type ResolutionAction string

const (
	ResolutionKeepFirst    ResolutionAction = "KEEP_FIRST"
	ResolutionKeepSecond   ResolutionAction = "KEEP_SECOND"
	ResolutionEditTime     ResolutionAction = "EDIT_TIME"
	ResolutionMergePeriods ResolutionAction = "MERGE_PERIODS"
	ResolutionSplitPeriod  ResolutionAction = "SPLIT_PERIOD"
)

// MinutesOfDay parses an "HH:MM" wall-clock string into minutes since
// midnight.
func MinutesOfDay(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid wall-clock value %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since midnight back to "HH:MM".
func FormatMinutes(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// BindWallClock attaches a wall-clock "HH:MM" to a calendar date, producing
// a UTC instant. This is the only sanctioned way to turn a stored period
// time into a comparable timestamp.
func BindWallClock(date time.Time, wallClock string) (Instant, error) {
	minutes, err := MinutesOfDay(wallClock)
	if err != nil {
		return Instant{}, err
	}
	d := DateOnly(date)
	return NewInstant(d.Add(time.Duration(minutes) * time.Minute)), nil
}
