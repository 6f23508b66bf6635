package dto

import "time"

// CreateHolidayRequest registers a public holiday.
type CreateHolidayRequest struct {
	Date           time.Time `json:"date" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	IsSchoolClosed bool      `json:"isSchoolClosed"`
}

// UpdateHolidayRequest modifies an existing holiday.
type UpdateHolidayRequest struct {
	Date           time.Time `json:"date" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	IsSchoolClosed bool      `json:"isSchoolClosed"`
}

// HolidayCheckResponse answers a single-date school-day lookup.
type HolidayCheckResponse struct {
	Date        string `json:"date"`
	IsSchoolDay bool   `json:"isSchoolDay"`
	HolidayName string `json:"holidayName,omitempty"`
}

// RescheduleImpactItem describes one affected weekday within a week.
type RescheduleImpactItem struct {
	Date          string `json:"date"`
	HolidayName   string `json:"holidayName"`
	NextSchoolDay string `json:"nextSchoolDay,omitempty"`
	Lost          bool   `json:"lost"`
}

// RescheduleImpactResponse lists holiday impact for a term week.
type RescheduleImpactResponse struct {
	TermID     string                 `json:"termId"`
	WeekNumber int                    `json:"weekNumber"`
	Items      []RescheduleImpactItem `json:"items"`
}
