package service

import (
	"sort"
	"time"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// ResolveSequence computes the dependency state of every occurrence of one
// multi-period topic for a student. Occurrences are keyed by entry id in the
// returned map. Sequence positions the topic defines but no entry covers are
// NOT_SCHEDULED and simply absent from the map.
//
// A later occurrence needing a teacher-authored assessment that does not
// exist yet is WAITING_ASSESSMENT even when the previous period is done;
// otherwise it is READY only once the previous period is COMPLETED. A missed
// earlier period blocks later ones until repaired, there is no failure state.
func ResolveSequence(topic models.LessonTopic, occurrences []models.ScheduleEntry, progress map[string]*models.ProgressRecord, now time.Time) map[string]models.PeriodState {
	states := make(map[string]models.PeriodState, len(occurrences))
	if len(occurrences) == 0 {
		return states
	}

	ordered := make([]models.ScheduleEntry, len(occurrences))
	copy(ordered, occurrences)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].PeriodSequence != ordered[j].PeriodSequence {
			return ordered[i].PeriodSequence < ordered[j].PeriodSequence
		}
		return ordered[i].ScheduledDate.Before(ordered[j].ScheduledDate)
	})

	previousCompleted := true
	for _, entry := range ordered {
		record := progress[entry.ID]
		completed := EvaluateStatus(entry, record, now) == models.StatusCompleted

		switch {
		case completed:
			states[entry.ID] = models.PeriodStateCompleted
		case entry.PeriodSequence > 1 && topic.RequiresCustomAssessment && missingAssessment(record):
			states[entry.ID] = models.PeriodStateWaitingAssessment
		case entry.PeriodSequence > 1 && !previousCompleted:
			states[entry.ID] = models.PeriodStateWaitingPrevious
		default:
			states[entry.ID] = models.PeriodStateReady
		}

		previousCompleted = completed
	}

	return states
}

func missingAssessment(record *models.ProgressRecord) bool {
	return record == nil || record.AssessmentID == nil || *record.AssessmentID == ""
}

// SequencePlacement decides the sequence fields for the next occurrence of a
// topic given how many periods are already scheduled.
func SequencePlacement(topic models.LessonTopic, alreadyScheduled int) (periodSequence, totalPeriods int) {
	total := topic.TotalPeriods
	if total < 1 {
		total = 1
	}
	next := alreadyScheduled + 1
	if next > total {
		next = total
	}
	return next, total
}
