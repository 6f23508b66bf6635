package service

import (
	"fmt"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

// WindowCalculator derives the attemptable range of a scheduled assessment
// from the period's end time and the configured window policy. All outputs
// are UTC instants; wall-clock strings never leave this boundary.
type WindowCalculator struct {
	policy config.AssessmentConfig
}

// NewWindowCalculator creates a calculator with the given policy.
func NewWindowCalculator(policy config.AssessmentConfig) *WindowCalculator {
	return &WindowCalculator{policy: policy}
}

// Compute binds the entry's period end to its calendar date and applies the
// offset, duration and grace policy. Guarantees windowStart < windowEnd and
// windowEnd <= gracePeriodEnd, failing with ErrWindowOrdering otherwise.
func (c *WindowCalculator) Compute(entry models.ScheduleEntry) (models.AssessmentWindow, error) {
	periodEnd, err := models.BindWallClock(entry.ScheduledDate, entry.EndTime)
	if err != nil {
		return models.AssessmentWindow{}, fmt.Errorf("bind period end: %w", err)
	}

	start := periodEnd.Add(c.policy.WindowOffset)
	end := start.Add(c.policy.Duration)
	grace := end.Add(c.policy.GracePeriod)

	if !start.Before(end.Time()) || end.After(grace.Time()) {
		cause := fmt.Errorf("window [%s, %s] grace %s", start, end, grace)
		return models.AssessmentWindow{}, appErrors.Wrap(cause, appErrors.ErrWindowOrdering.Code, appErrors.ErrWindowOrdering.Status, appErrors.ErrWindowOrdering.Message)
	}

	return models.AssessmentWindow{
		WindowStart:    start,
		WindowEnd:      end,
		GracePeriodEnd: grace,
	}, nil
}
