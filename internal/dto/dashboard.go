package dto

import "time"

// DashboardStats is a read-only projection over the schedule data.
type DashboardStats struct {
	TotalScheduleEntries int            `json:"totalScheduleEntries"`
	EntriesByStatus      map[string]int `json:"entriesByStatus"`
	MissingTopics        int            `json:"missingTopics"`
	OpenConflicts        int            `json:"openConflicts"`
	UpcomingHolidays     int            `json:"upcomingHolidays"`
	ArchivedEntries      int            `json:"archivedEntries"`
	GeneratedAt          time.Time      `json:"generatedAt"`
}
