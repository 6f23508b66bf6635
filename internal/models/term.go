package models

import "time"

// Term models an academic term within the institution calendar.
type Term struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// WeekNumberOf derives the 1-based week number of a date within the term.
func (t Term) WeekNumberOf(date time.Time) int {
	start := DateOnly(t.StartDate)
	d := DateOnly(date)
	if d.Before(start) {
		return 0
	}
	days := int(d.Sub(start).Hours() / 24)
	return days/7 + 1
}

// WeekStart returns the first calendar date of the given week number.
func (t Term) WeekStart(weekNumber int) time.Time {
	return DateOnly(t.StartDate).AddDate(0, 0, (weekNumber-1)*7)
}

// WeekCount reports how many (possibly partial) weeks the term spans.
func (t Term) WeekCount() int {
	return t.WeekNumberOf(t.EndDate)
}

// DateOnly truncates a time to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
