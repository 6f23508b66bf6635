package models

import "time"

// PublicHoliday is a read-only calendar input to the generator.
type PublicHoliday struct {
	ID             string    `db:"id" json:"id"`
	Date           time.Time `db:"date" json:"date"`
	Name           string    `db:"name" json:"name"`
	IsSchoolClosed bool      `db:"is_school_closed" json:"is_school_closed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// HolidayFilter narrows holiday listings.
type HolidayFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
