package models

// ScheduleStatus is the closed set of states a schedule entry can be in.
// Status is always derived from stored fields and the caller's clock; it is
// never trusted as a cached value across a time boundary.
type ScheduleStatus string

const (
	StatusUpcoming  ScheduleStatus = "UPCOMING"
	StatusPending   ScheduleStatus = "PENDING"
	StatusAvailable ScheduleStatus = "AVAILABLE"
	StatusCompleted ScheduleStatus = "COMPLETED"
	StatusMissed    ScheduleStatus = "MISSED"
)

// rank orders statuses along the time axis for monotonicity checks.
func (s ScheduleStatus) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusPending:
		return 1
	case StatusAvailable:
		return 2
	case StatusCompleted, StatusMissed:
		return 3
	default:
		return -1
	}
}

// AtOrAfter reports whether s is at least as far along the lifecycle as
// other. Terminal states (COMPLETED, MISSED) compare equal.
func (s ScheduleStatus) AtOrAfter(other ScheduleStatus) bool {
	return s.rank() >= other.rank()
}

// PeriodState is the multi-period dependency state of one occurrence.
type PeriodState string

const (
	PeriodStateNotScheduled      PeriodState = "NOT_SCHEDULED"
	PeriodStateWaitingPrevious   PeriodState = "WAITING_PREVIOUS"
	PeriodStateWaitingAssessment PeriodState = "WAITING_ASSESSMENT"
	PeriodStateReady             PeriodState = "READY"
	PeriodStateCompleted         PeriodState = "COMPLETED"
)
