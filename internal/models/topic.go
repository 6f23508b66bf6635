package models

import "time"

// LessonTopic is curriculum metadata consumed from the curriculum
// subsystem. TotalPeriods > 1 marks a multi-period topic whose occurrences
// must be completed in sequence order.
type LessonTopic struct {
	ID                       string    `db:"id" json:"id"`
	SubjectID                string    `db:"subject_id" json:"subject_id"`
	Title                    string    `db:"title" json:"title"`
	OrderIndex               int       `db:"order_index" json:"order_index"`
	TotalPeriods             int       `db:"total_periods" json:"total_periods"`
	RequiresCustomAssessment bool      `db:"requires_custom_assessment" json:"requires_custom_assessment"`
	AssessmentID             *string   `db:"assessment_id" json:"assessment_id,omitempty"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// HasAssessment reports whether the topic carries an assessment definition.
func (t LessonTopic) HasAssessment() bool {
	return t.AssessmentID != nil && *t.AssessmentID != ""
}

// TopicSuggestion pairs a candidate topic with its advisory match score.
type TopicSuggestion struct {
	Topic LessonTopic `json:"topic"`
	Score float64     `json:"score"`
}
