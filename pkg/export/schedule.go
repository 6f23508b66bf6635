package export

import (
	"fmt"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
)

var scheduleHeaders = []string{"Date", "Period", "Start", "End", "Subject", "Topic", "Status"}

func scheduleDataset(views []dto.ScheduleEntryView) Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, view := range views {
		subject := ""
		if view.SubjectID != nil {
			subject = *view.SubjectID
		}
		topic := ""
		if view.LessonTopicID != nil {
			topic = *view.LessonTopicID
		}
		rows = append(rows, map[string]string{
			"Date":    view.ScheduledDate.Format("2006-01-02"),
			"Period":  fmt.Sprintf("%d", view.PeriodNumber),
			"Start":   view.StartTime,
			"End":     view.EndTime,
			"Subject": subject,
			"Topic":   topic,
			"Status":  string(view.Status),
		})
	}
	return Dataset{Headers: scheduleHeaders, Rows: rows}
}

// ScheduleCSV renders decorated schedule entries as CSV.
func ScheduleCSV(views []dto.ScheduleEntryView) ([]byte, error) {
	return NewCSVExporter().Render(scheduleDataset(views))
}

// SchedulePDF renders decorated schedule entries as a tabular PDF.
func SchedulePDF(studentID string, views []dto.ScheduleEntryView) ([]byte, error) {
	title := fmt.Sprintf("Schedule %s", studentID)
	return NewPDFExporter().Render(scheduleDataset(views), title)
}
