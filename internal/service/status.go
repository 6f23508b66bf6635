package service

import (
	"time"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// legacyGracePeriod approximates the assessment grace period for entries that
// predate window computation and carry no window fields.
const legacyGracePeriod = 15 * time.Minute

// EvaluateStatus derives an entry's status from stored fields and the
// caller's clock. The branch order is the contract: an explicit missed
// reason beats a recorded completion, and a completion timestamp without a
// submission id is treated as corruption, never as COMPLETED.
func EvaluateStatus(entry models.ScheduleEntry, progress *models.ProgressRecord, now time.Time) models.ScheduleStatus {
	now = now.UTC()

	if progress != nil {
		if progress.IncompleteReason != nil && progress.IncompleteReason.IsMissed() {
			return models.StatusMissed
		}
		if progress.IsCompleted() {
			return models.StatusCompleted
		}
		if progress.IsCorrupted() {
			return models.StatusMissed
		}
		if progress.BackendStatus != nil {
			switch *progress.BackendStatus {
			case "COMPLETED":
				return models.StatusCompleted
			case "MISSED", "INCOMPLETE":
				return models.StatusMissed
			}
		}
		if progress.HasWindow() {
			if progress.GracePeriodEnd.Before(now) {
				return models.StatusMissed
			}
			if !progress.WindowStart.After(now) {
				return models.StatusAvailable
			}
			return models.StatusPending
		}
	}

	return legacyStatus(entry, now)
}

// legacyStatus approximates window semantics for entries with no progress
// record or no computed window, using the scheduled date and the period's
// raw end time plus a fixed grace period.
func legacyStatus(entry models.ScheduleEntry, now time.Time) models.ScheduleStatus {
	today := models.DateOnly(now)
	scheduled := models.DateOnly(entry.ScheduledDate)

	if scheduled.After(today) {
		return models.StatusUpcoming
	}

	start, errStart := models.BindWallClock(entry.ScheduledDate, entry.StartTime)
	end, errEnd := models.BindWallClock(entry.ScheduledDate, entry.EndTime)
	if errStart != nil || errEnd != nil {
		if scheduled.Before(today) {
			return models.StatusMissed
		}
		return models.StatusPending
	}

	deadline := end.Add(legacyGracePeriod)
	if deadline.Before(now) {
		return models.StatusMissed
	}
	if !start.After(now) {
		return models.StatusAvailable
	}
	return models.StatusPending
}
