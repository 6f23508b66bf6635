package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

func sequenceEntry(id string, seq int, date time.Time) models.ScheduleEntry {
	return models.ScheduleEntry{
		ID:                     id,
		StudentID:              "student-1",
		ScheduledDate:          date,
		PeriodSequence:         seq,
		TotalPeriodsInSequence: 3,
		StartTime:              "09:00",
		EndTime:                "09:45",
	}
}

func completedRecord(entryID string) *models.ProgressRecord {
	return &models.ProgressRecord{
		ScheduleEntryID: entryID,
		CompletedAt:     instantPtr(time.Date(2026, 3, 2, 9, 40, 0, 0, time.UTC)),
		SubmissionID:    strPtr("sub-" + entryID),
	}
}

func TestResolveSequenceFirstPeriodReady(t *testing.T) {
	topic := models.LessonTopic{ID: "topic-1", TotalPeriods: 3}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrences := []models.ScheduleEntry{
		sequenceEntry("e1", 1, monday),
		sequenceEntry("e2", 2, monday.AddDate(0, 0, 2)),
	}

	states := ResolveSequence(topic, occurrences, map[string]*models.ProgressRecord{}, monday.Add(8*time.Hour))
	assert.Equal(t, models.PeriodStateReady, states["e1"])
	assert.Equal(t, models.PeriodStateWaitingPrevious, states["e2"])
}

func TestResolveSequenceUnblocksAfterCompletion(t *testing.T) {
	topic := models.LessonTopic{ID: "topic-1", TotalPeriods: 3}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrences := []models.ScheduleEntry{
		sequenceEntry("e1", 1, monday),
		sequenceEntry("e2", 2, monday.AddDate(0, 0, 2)),
		sequenceEntry("e3", 3, monday.AddDate(0, 0, 4)),
	}
	progress := map[string]*models.ProgressRecord{
		"e1": completedRecord("e1"),
	}

	states := ResolveSequence(topic, occurrences, progress, monday.Add(8*time.Hour))
	assert.Equal(t, models.PeriodStateCompleted, states["e1"])
	assert.Equal(t, models.PeriodStateReady, states["e2"])
	assert.Equal(t, models.PeriodStateWaitingPrevious, states["e3"])
}

// A later period needing a teacher-authored assessment stays gated even when
// the previous period is done.
func TestResolveSequenceWaitingAssessment(t *testing.T) {
	topic := models.LessonTopic{ID: "topic-1", TotalPeriods: 2, RequiresCustomAssessment: true}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrences := []models.ScheduleEntry{
		sequenceEntry("e1", 1, monday),
		sequenceEntry("e2", 2, monday.AddDate(0, 0, 2)),
	}
	progress := map[string]*models.ProgressRecord{
		"e1": completedRecord("e1"),
	}

	states := ResolveSequence(topic, occurrences, progress, monday.Add(8*time.Hour))
	assert.Equal(t, models.PeriodStateCompleted, states["e1"])
	assert.Equal(t, models.PeriodStateWaitingAssessment, states["e2"])

	progress["e2"] = &models.ProgressRecord{ScheduleEntryID: "e2", AssessmentID: strPtr("assessment-7")}
	states = ResolveSequence(topic, occurrences, progress, monday.Add(8*time.Hour))
	assert.Equal(t, models.PeriodStateReady, states["e2"])
}

func TestResolveSequenceMissedPreviousBlocks(t *testing.T) {
	topic := models.LessonTopic{ID: "topic-1", TotalPeriods: 2}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrences := []models.ScheduleEntry{
		sequenceEntry("e1", 1, monday),
		sequenceEntry("e2", 2, monday.AddDate(0, 0, 2)),
	}
	progress := map[string]*models.ProgressRecord{
		"e1": {ScheduleEntryID: "e1", IncompleteReason: reasonPtr(models.IncompleteReasonMissedWindow)},
	}

	states := ResolveSequence(topic, occurrences, progress, monday.AddDate(0, 0, 3))
	assert.Equal(t, models.PeriodStateWaitingPrevious, states["e2"])
}

func TestResolveSequenceEmpty(t *testing.T) {
	states := ResolveSequence(models.LessonTopic{}, nil, nil, time.Now())
	assert.Empty(t, states)
}

func TestSequencePlacement(t *testing.T) {
	topic := models.LessonTopic{TotalPeriods: 3}

	seq, total := SequencePlacement(topic, 0)
	assert.Equal(t, 1, seq)
	assert.Equal(t, 3, total)

	seq, total = SequencePlacement(topic, 2)
	assert.Equal(t, 3, seq)
	assert.Equal(t, 3, total)

	// Already fully scheduled: clamp rather than overflow.
	seq, _ = SequencePlacement(topic, 3)
	assert.Equal(t, 3, seq)

	seq, total = SequencePlacement(models.LessonTopic{TotalPeriods: 0}, 0)
	assert.Equal(t, 1, seq)
	assert.Equal(t, 1, total)
}
